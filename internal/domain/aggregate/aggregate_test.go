package aggregate_test

import (
	"testing"

	"github.com/okian/questpace/internal/domain/aggregate"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/split"
	. "github.com/smartystreets/goconvey/convey"
)

func frames(v ...model.Frame) []model.Frame { return v }

// set builds a split set where a negative value stands for an invalid split.
func set(v ...model.Frame) split.Set {
	out := make(split.Set, len(v))
	for i, f := range v {
		if f >= 0 {
			out[i] = model.Frames(f)
		}
	}
	return out
}

func TestMedian(t *testing.T) {
	Convey("Given the median helper", t, func() {
		cases := []struct {
			in   []model.Frame
			want model.Frame
		}{
			{frames(10, 20, 30), 20},
			{frames(10, 20, 30, 40), 25},
			{frames(), 0},
			{frames(5), 5},
			{frames(30, 10, 20), 20},
			{frames(10, 11), 10},
		}

		Convey("Then it should match the expected values", func() {
			for _, c := range cases {
				So(aggregate.Median(c.in), ShouldEqual, c.want)
			}
		})

		Convey("Then it should not reorder its input", func() {
			in := frames(30, 10, 20)
			_ = aggregate.Median(in)
			So(in, ShouldResemble, frames(30, 10, 20))
		})

		Convey("Then min of empty input should be zero", func() {
			So(aggregate.Min(nil), ShouldEqual, model.Frame(0))
			So(aggregate.Min(frames(7, 3, 9)), ShouldEqual, model.Frame(3))
		})
	})
}

func TestCompute(t *testing.T) {
	Convey("Given three complete runs", t, func() {
		entries := []aggregate.Entry{
			{RunID: 1, Splits: set(100, 200, 300)},
			{RunID: 2, Splits: set(120, 150, 330)},
			{RunID: 3, Splits: set(90, 260, 310)},
		}

		Convey("When computing the aggregate", func() {
			res := aggregate.Compute(3, entries)

			Convey("Then medians and minimums are per checkpoint", func() {
				So(res.Median.Values, ShouldResemble, frames(100, 200, 310))
				So(res.Fastest.Values, ShouldResemble, frames(90, 150, 300))
				So(res.Median.Samples, ShouldResemble, []int{3, 3, 3})
				So(res.Runs, ShouldEqual, 3)
			})

			Convey("Then sum of best should be the sum of the minimums", func() {
				So(res.SumOfBest, ShouldEqual, model.Frame(540))
			})

			Convey("Then sum of best should not exceed any run's total", func() {
				for _, e := range entries {
					So(res.SumOfBest <= e.Splits.Total().Frames, ShouldBeTrue)
				}
			})

			Convey("Then the fastest run is picked on cumulative time", func() {
				// cumulative: r1 100/300/600, r2 120/270/600, r3 90/350/660
				So(res.FastestRun[0], ShouldEqual, model.RunID(3))
				So(res.FastestRun[1], ShouldEqual, model.RunID(2))
				So(res.FastestRun[2], ShouldEqual, model.RunID(1))
				So(res.CumulativeMedian.Values, ShouldResemble, frames(100, 300, 600))
			})
		})
	})

	Convey("Given runs with invalid splits", t, func() {
		entries := []aggregate.Entry{
			{RunID: 1, Splits: set(100, -1, 300)},
			{RunID: 2, Splits: set(140, 200, -1)},
		}
		res := aggregate.Compute(3, entries)

		Convey("Then invalid splits are left out of each checkpoint", func() {
			So(res.Median.Values, ShouldResemble, frames(120, 200, 300))
			So(res.Median.Samples, ShouldResemble, []int{2, 1, 1})
		})

		Convey("Then cumulative statistics only use gap-free prefixes", func() {
			So(res.CumulativeMedian.Samples, ShouldResemble, []int{2, 1, 0})
			So(res.CumulativeMedian.Values[1], ShouldEqual, model.Frame(340))
			_, ok := res.FastestRun[2]
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given tied cumulative times", t, func() {
		res := aggregate.Compute(1, []aggregate.Entry{
			{RunID: 7, Splits: set(100)},
			{RunID: 3, Splits: set(100)},
		})

		Convey("Then the first run seen wins", func() {
			So(res.FastestRun[0], ShouldEqual, model.RunID(7))
		})
	})

	Convey("Given no entries", t, func() {
		res := aggregate.Compute(3, nil)

		Convey("Then every checkpoint is empty but sized", func() {
			So(res.Median.Values, ShouldResemble, frames(0, 0, 0))
			So(res.Median.Empty(), ShouldBeTrue)
			So(res.SumOfBest, ShouldEqual, model.Frame(0))
			So(len(res.FastestRun), ShouldEqual, 0)
		})
	})

	Convey("Given a run measured at zero frames", t, func() {
		res := aggregate.Compute(1, []aggregate.Entry{{RunID: 1, Splits: set(0)}})

		Convey("Then samples distinguish it from an empty cohort", func() {
			So(res.Median.Values[0], ShouldEqual, model.Frame(0))
			So(res.Median.Samples[0], ShouldEqual, 1)
			So(res.Median.Empty(), ShouldBeFalse)
		})
	})
}

func TestClearTimes(t *testing.T) {
	Convey("Given complete and incomplete runs", t, func() {
		entries := []aggregate.Entry{
			{RunID: 1, Splits: set(100, 200)},
			{RunID: 2, Splits: set(150, 250)},
			{RunID: 3, Splits: set(200, 300)},
			{RunID: 4, Splits: set(100, -1)},
		}

		Convey("When building the distribution", func() {
			d := aggregate.ClearTimes(entries)

			Convey("Then only complete runs are counted", func() {
				So(d.Count, ShouldEqual, 3)
				So(d.Min, ShouldEqual, model.Frame(300))
				So(d.Max, ShouldEqual, model.Frame(500))
			})

			Convey("Then quantiles should be close to the recorded totals", func() {
				So(float64(d.P50), ShouldAlmostEqual, 400, 1)
				So(d.Mean, ShouldAlmostEqual, 400, 1)
				So(d.P90 >= d.P50, ShouldBeTrue)
			})
		})
	})

	Convey("Given no complete runs", t, func() {
		d := aggregate.ClearTimes([]aggregate.Entry{{RunID: 1, Splits: set(-1)}})
		So(d, ShouldResemble, aggregate.Distribution{})
	})
}
