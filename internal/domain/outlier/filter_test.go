package outlier_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/outlier"
	. "github.com/smartystreets/goconvey/convey"
)

// series builds a series with one reading every 30 frames.
func series(hps ...model.HP) model.Series {
	out := make(model.Series, len(hps))
	for i, hp := range hps {
		out[i] = model.Point{Elapsed: model.Frame(i * 30), HP: hp}
	}
	return out
}

func hpsOf(s model.Series) []model.HP {
	out := make([]model.HP, len(s))
	for i, p := range s {
		out[i] = p.HP
	}
	return out
}

func TestFilter(t *testing.T) {
	Convey("Given a clean decreasing series", t, func() {
		in := series(1000, 950, 950, 900, 400)

		Convey("When filtering", func() {
			res, err := outlier.Filter(in)

			Convey("Then every reading should survive", func() {
				So(err, ShouldBeNil)
				So(res.Series, ShouldResemble, in)
				So(res.MaxHP, ShouldEqual, model.HP(1000))
				So(res.Suppressed, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a run whose only reading is zero HP", t, func() {
		Convey("Then the run should be rejected", func() {
			_, err := outlier.Filter(series(0))
			So(errors.Is(err, outlier.ErrZeroStartHP), ShouldBeTrue)
		})
	})

	Convey("Given an empty series", t, func() {
		_, err := outlier.Filter(nil)
		So(errors.Is(err, outlier.ErrTooFewSamples), ShouldBeTrue)
	})

	Convey("Given a run with a single reading above zero", t, func() {
		res, err := outlier.Filter(series(1000))

		Convey("Then it has no step to split and is rejected", func() {
			So(errors.Is(err, outlier.ErrTooFewSamples), ShouldBeTrue)
			So(res.MaxHP, ShouldEqual, model.HP(1000))
			So(len(res.Series), ShouldEqual, 1)
		})
	})

	Convey("Given a single glitch reading", t, func() {
		in := series(1000, 980, 500, 970, 960)

		Convey("When filtering", func() {
			res, err := outlier.Filter(in)

			Convey("Then the glitch should be suppressed", func() {
				So(err, ShouldBeNil)
				So(hpsOf(res.Series), ShouldResemble, []model.HP{1000, 980, 970, 960})
				So(res.Suppressed, ShouldEqual, 1)
				So(res.Unmarked, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a suspicious drop followed by HP above the last accepted reading", t, func() {
		in := series(1000, 900, 600, 950, 940)

		Convey("When filtering with un-marking enabled", func() {
			res, err := outlier.Filter(in)

			Convey("Then the drop should be reinstated with a backfilled point", func() {
				So(err, ShouldBeNil)
				So(res.Series, ShouldResemble, model.Series{
					{Elapsed: 0, HP: 1000},
					{Elapsed: 30, HP: 900},
					{Elapsed: 60, HP: 600},
					{Elapsed: 89, HP: 600, Synthetic: true},
					{Elapsed: 90, HP: 950},
					{Elapsed: 120, HP: 940},
				})
				So(res.Unmarked, ShouldEqual, 1)
				So(res.Suppressed, ShouldEqual, 0)
				So(res.Corrections, ShouldResemble, []model.Frame{90})
			})
		})

		Convey("When filtering with un-marking disabled", func() {
			res, err := outlier.Filter(in, outlier.WithUnmark(false))

			Convey("Then the drop stays suppressed and the rises are rebounds", func() {
				So(err, ShouldBeNil)
				So(hpsOf(res.Series), ShouldResemble, []model.HP{1000, 900})
				So(res.Suppressed, ShouldEqual, 1)
				So(res.Rebounds, ShouldEqual, 2)
			})
		})
	})

	Convey("Given adjacent frames around an un-marked reading", t, func() {
		in := model.Series{{Elapsed: 0, HP: 1000}, {Elapsed: 10, HP: 900}, {Elapsed: 20, HP: 600}, {Elapsed: 21, HP: 950}}

		Convey("Then no synthetic point fits in the gap", func() {
			res, err := outlier.Filter(in)
			So(err, ShouldBeNil)
			So(len(res.Series), ShouldEqual, 4)
			So(res.Series[2], ShouldResemble, model.Point{Elapsed: 20, HP: 600})
			So(res.Series[3], ShouldResemble, model.Point{Elapsed: 21, HP: 950})
		})
	})

	Convey("Given a reading that rebounds", t, func() {
		res, err := outlier.Filter(series(1000, 900, 950, 850))

		Convey("Then the rebound should be dropped", func() {
			So(err, ShouldBeNil)
			So(hpsOf(res.Series), ShouldResemble, []model.HP{1000, 900, 850})
			So(res.Rebounds, ShouldEqual, 1)
		})
	})

	Convey("Given a run that collapses after the first reading", t, func() {
		res, err := outlier.Filter(series(1000, 100, 90, 80))

		Convey("Then it should be reported as all outliers", func() {
			So(errors.Is(err, outlier.ErrAllOutliers), ShouldBeTrue)
			So(res.Suppressed, ShouldEqual, 3)
		})

		Convey("And a looser threshold should keep it", func() {
			res, err := outlier.Filter(series(1000, 100, 90, 80), outlier.WithDropFraction(0.95))
			So(err, ShouldBeNil)
			So(len(res.Series), ShouldEqual, 4)
		})
	})

	Convey("Given an invalid drop fraction", t, func() {
		res, err := outlier.Filter(series(1000, 700), outlier.WithDropFraction(7))

		Convey("Then the default threshold should apply", func() {
			So(errors.Is(err, outlier.ErrAllOutliers), ShouldBeTrue)
			So(res.Suppressed, ShouldEqual, 1)
		})
	})

	Convey("Given a series that must not be modified", t, func() {
		in := series(1000, 900, 600, 950)
		before := in.Clone()
		_, _ = outlier.Filter(in)
		So(in, ShouldResemble, before)
	})
}

func TestFilter_NonIncreasing(t *testing.T) {
	Convey("Given many noisy series", t, func() {
		rng := rand.New(rand.NewSource(7))

		Convey("Then filtered HP never rises except at recorded corrections", func() {
			violations := 0
			checked := 0
			for run := 0; run < 200; run++ {
				hp := model.HP(10000)
				var in model.Series
				for i := 0; i < 120; i++ {
					in = append(in, model.Point{Elapsed: model.Frame(i * 15), HP: hp})
					switch rng.Intn(10) {
					case 0:
						hp -= model.HP(rng.Intn(4000))
					case 1:
						hp += model.HP(rng.Intn(500))
					default:
						hp -= model.HP(rng.Intn(200))
					}
					if hp < 0 {
						hp = 0
					}
				}

				res, err := outlier.Filter(in)
				if err != nil {
					continue
				}
				corrections := make(map[model.Frame]bool, len(res.Corrections))
				for _, f := range res.Corrections {
					corrections[f] = true
				}
				checked++
				for i := 1; i < len(res.Series); i++ {
					prev, cur := res.Series[i-1], res.Series[i]
					if cur.Elapsed <= prev.Elapsed {
						violations++
					}
					if cur.HP > prev.HP && !corrections[cur.Elapsed] {
						violations++
					}
				}
			}
			So(checked, ShouldBeGreaterThan, 0)
			So(violations, ShouldEqual, 0)
		})
	})
}
