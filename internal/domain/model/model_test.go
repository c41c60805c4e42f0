package model_test

import (
	"testing"
	"time"

	model "github.com/okian/questpace/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestFrame(t *testing.T) {
	convey.Convey("Given frame counts", t, func() {
		convey.Convey("When converting 90 frames", func() {
			f := model.Frame(90)

			convey.Convey("Then it should be three seconds", func() {
				convey.So(f.Duration(), convey.ShouldEqual, 3*time.Second)
				convey.So(f.Seconds(), convey.ShouldEqual, 3.0)
			})
		})

		convey.Convey("When converting a single frame", func() {
			convey.So(model.Frame(1).Duration(), convey.ShouldEqual, time.Second/30)
		})
	})
}

func TestFilter_Match(t *testing.T) {
	convey.Convey("Given a solo great sword cohort filter", t, func() {
		f := model.Filter{
			QuestID:     23527,
			Weapon:      "great_sword",
			Category:    "speedrun",
			RunBuffs:    0b101,
			HasRunBuffs: true,
			SoloOnly:    true,
		}
		base := model.Run{
			ID:        1,
			QuestID:   23527,
			Weapon:    "great_sword",
			Category:  "speedrun",
			RunBuffs:  0b101,
			PartySize: 1,
		}

		convey.Convey("Then a matching run should pass", func() {
			convey.So(f.Match(base), convey.ShouldBeTrue)
		})

		convey.Convey("Then each mismatching attribute should reject the run", func() {
			r := base
			r.QuestID = 1
			convey.So(f.Match(r), convey.ShouldBeFalse)

			r = base
			r.Weapon = "lance"
			convey.So(f.Match(r), convey.ShouldBeFalse)

			r = base
			r.Category = "casual"
			convey.So(f.Match(r), convey.ShouldBeFalse)

			r = base
			r.RunBuffs = 0b100
			convey.So(f.Match(r), convey.ShouldBeFalse)

			r = base
			r.PartySize = 2
			convey.So(f.Match(r), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given an empty filter", t, func() {
		convey.Convey("Then every run should match", func() {
			convey.So(model.Filter{}.Match(model.Run{ID: 9, PartySize: 4, RunBuffs: 7}), convey.ShouldBeTrue)
		})
	})
}

func TestSeries_Clone(t *testing.T) {
	convey.Convey("Given a series", t, func() {
		s := model.Series{{Elapsed: 0, HP: 100}, {Elapsed: 5, HP: 90}}

		convey.Convey("When cloning and modifying the clone", func() {
			c := s.Clone()
			c[1].HP = 1

			convey.Convey("Then the original should be untouched", func() {
				convey.So(s[1].HP, convey.ShouldEqual, model.HP(90))
			})
		})

		convey.Convey("When cloning nil", func() {
			convey.So(model.Series(nil).Clone(), convey.ShouldBeNil)
		})
	})
}

func TestCohort_IDs(t *testing.T) {
	convey.Convey("Given a cohort", t, func() {
		c := model.Cohort{{ID: 3}, {ID: 1}, {ID: 2}}
		convey.So(c.IDs(), convey.ShouldResemble, []model.RunID{3, 1, 2})
	})
}
