package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/questpace/internal/adapters/repository"
	service "github.com/okian/questpace/internal/app"
	"github.com/okian/questpace/internal/domain/analysis"
	"github.com/okian/questpace/internal/domain/checkpoint"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/telemetry"
	"github.com/okian/questpace/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// steady builds a run that loses 1% HP every step frames.
func steady(id model.RunID, quest int, step model.Frame) model.Run {
	var tel model.RawTelemetry
	for i := 0; i <= 100; i++ {
		tel = append(tel, model.RawFrame{
			Frame: 90000 - model.Frame(i)*step,
			HP:    map[model.SlotID]model.HP{0: model.HP(1000 - i*10)},
		})
	}
	return model.Run{ID: id, QuestID: quest, Weapon: "bow", PartySize: 1, Telemetry: tel}
}

func started(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeFalse)
			So(stats["mode"], ShouldEqual, "fine")
			So(stats["collision_policy"], ShouldEqual, "last_write_wins")
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithDefaultPlan(checkpoint.Objective),
			service.WithCollisionPolicy(telemetry.RejectCollisions),
			service.WithMaxCohortRuns(5),
			service.WithStore(repository.NewMemStore()),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["mode"], ShouldEqual, "objective")
			So(stats["collision_policy"], ShouldEqual, "reject")
			So(stats["max_cohort_runs"], ShouldEqual, 5)
		})
	})

	Convey("Given invalid option values", t, func() {
		svc := service.New(service.WithMaxCohortRuns(-1), service.WithStore(nil), service.WithLogger(nil))

		Convey("Then they are ignored", func() {
			So(svc.GetStats()["max_cohort_runs"], ShouldEqual, 10_000)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then every operation reports it", func() {
			_, err := svc.Analyze(ctx, model.Filter{}, "")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Run(ctx, 1, "")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Reload(ctx, nil)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(errors.Is(svc.Put(ctx, steady(1, 1, 30)), service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then Stop is a no-op", func() {
			So(svc.Stop, ShouldNotPanic)
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("Then starting again is harmless", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldBeTrue)
		})

		Convey("Then stopping marks it stopped", func() {
			svc.Stop()
			So(svc.GetStats()["started"], ShouldBeFalse)
			svc.Stop()
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a service holding two quests", t, func() {
		svc := started(t)
		ctx := context.Background()
		_, err := svc.Reload(ctx, []model.Run{
			steady(1, 1, 30), steady(2, 1, 36), steady(3, 1, 40),
			steady(4, 2, 30),
			{ID: 5, QuestID: 1},
		})
		So(err, ShouldBeNil)

		Convey("When analyzing one quest in the default mode", func() {
			rep, err := svc.Analyze(ctx, model.Filter{QuestID: 1}, "")

			Convey("Then the cohort is that quest only", func() {
				So(err, ShouldBeNil)
				So(rep.Mode, ShouldEqual, "fine")
				So(rep.CohortSize, ShouldEqual, 4)
				So(rep.Kept, ShouldEqual, 3)
				So(len(rep.Checkpoints), ShouldEqual, 10)
				So(len(rep.Discarded), ShouldEqual, 1)
				So(rep.Discarded[0].Reason, ShouldEqual, analysis.ReasonNoTelemetry)
			})

			Convey("Then the fastest run is the best curve", func() {
				So(rep.SumOfBest.Frames, ShouldEqual, model.Frame(3000))
				for _, c := range rep.Curves {
					So(c.Best, ShouldEqual, c.RunID == 1)
				}
			})
		})

		Convey("When analyzing in objective mode", func() {
			rep, err := svc.Analyze(ctx, model.Filter{QuestID: 1}, "objective")
			So(err, ShouldBeNil)
			So(rep.Mode, ShouldEqual, "objective")
			So(len(rep.Checkpoints), ShouldEqual, 3)
		})

		Convey("When the mode is unknown", func() {
			_, err := svc.Analyze(ctx, model.Filter{}, "coarse")
			So(errors.Is(err, service.ErrInvalidMode), ShouldBeTrue)
			So(errors.Is(err, checkpoint.ErrUnknownMode), ShouldBeTrue)
		})

		Convey("When no run matches", func() {
			rep, err := svc.Analyze(ctx, model.Filter{QuestID: 9}, "")
			So(err, ShouldBeNil)
			So(rep.CohortSize, ShouldEqual, 0)
			So(rep.Kept, ShouldEqual, 0)
		})

		Convey("When the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Analyze(cctx, model.Filter{}, "")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a capped service", t, func() {
		svc := started(t, service.WithMaxCohortRuns(2))
		_, err := svc.Reload(context.Background(), []model.Run{steady(1, 1, 30), steady(2, 1, 36), steady(3, 1, 40)})
		So(err, ShouldBeNil)

		Convey("Then the cohort is capped", func() {
			rep, err := svc.Analyze(context.Background(), model.Filter{}, "")
			So(err, ShouldBeNil)
			So(rep.CohortSize, ShouldEqual, 2)
		})
	})
}

func TestService_Run(t *testing.T) {
	Convey("Given a service with a clean and a broken run", t, func() {
		svc := started(t, service.WithCollisionPolicy(telemetry.RejectCollisions))
		ctx := context.Background()

		collide := steady(2, 1, 30)
		collide.Telemetry = append(collide.Telemetry, model.RawFrame{
			Frame: collide.Telemetry[10].Frame,
			HP:    map[model.SlotID]model.HP{0: 880},
		})
		_, err := svc.Reload(ctx, []model.Run{steady(1, 1, 30), collide})
		So(err, ShouldBeNil)

		Convey("When inspecting the clean run", func() {
			rep, err := svc.Run(ctx, 1, "objective")

			Convey("Then the breakdown and total are set", func() {
				So(err, ShouldBeNil)
				So(rep.Mode, ShouldEqual, "objective")
				So(rep.Run.Frames, ShouldEqual, 101)
				So(rep.Total, ShouldNotBeNil)
				So(rep.Total.Frames, ShouldEqual, model.Frame(3000))
				So(rep.Reason, ShouldEqual, analysis.Reason(""))
			})
		})

		Convey("When inspecting the colliding run", func() {
			rep, err := svc.Run(ctx, 2, "")

			Convey("Then the reason explains the exclusion", func() {
				So(err, ShouldBeNil)
				So(rep.Reason, ShouldEqual, analysis.ReasonFrameCollision)
				So(rep.Detail, ShouldNotBeEmpty)
				So(rep.Total, ShouldBeNil)
			})
		})

		Convey("When the run is unknown", func() {
			_, err := svc.Run(ctx, 42, "")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the mode is unknown", func() {
			_, err := svc.Run(ctx, 1, "coarse")
			So(errors.Is(err, service.ErrInvalidMode), ShouldBeTrue)
		})
	})
}

func TestService_Reload(t *testing.T) {
	Convey("Given a started service with a listener", t, func() {
		svc := started(t)
		ctx := context.Background()
		var notified int
		svc.OnReload(func(context.Context) { notified++ })

		Convey("When reloading with a duplicate ID", func() {
			n, err := svc.Reload(ctx, []model.Run{steady(1, 1, 30), steady(1, 2, 30), steady(2, 1, 36)})

			Convey("Then the duplicate is skipped and the rest loads", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
				So(svc.GetStats()["runs"], ShouldEqual, 2)
				So(notified, ShouldEqual, 1)
			})
		})

		Convey("When reloading twice", func() {
			_, err := svc.Reload(ctx, []model.Run{steady(1, 1, 30), steady(2, 1, 36)})
			So(err, ShouldBeNil)
			_, err = svc.Reload(ctx, []model.Run{steady(3, 1, 30)})
			So(err, ShouldBeNil)

			Convey("Then the second set replaces the first", func() {
				stats := svc.GetStats()
				So(stats["runs"], ShouldEqual, 1)
				So(stats["reloads"], ShouldEqual, 2)
				So(stats["last_reload"], ShouldNotBeEmpty)
				So(notified, ShouldEqual, 2)
			})
		})

		Convey("When the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Reload(cctx, []model.Run{steady(1, 1, 30)})

			Convey("Then nothing is replaced or announced", func() {
				So(errors.Is(err, repository.ErrStoreCanceled), ShouldBeTrue)
				So(notified, ShouldEqual, 0)
			})
		})
	})
}

func TestService_Put(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started(t)
		ctx := context.Background()

		Convey("Then runs can be added one at a time", func() {
			So(svc.Put(ctx, steady(1, 1, 30)), ShouldBeNil)
			So(svc.GetStats()["runs"], ShouldEqual, 1)
		})

		Convey("Then a repeated ID is refused", func() {
			So(svc.Put(ctx, steady(1, 1, 30)), ShouldBeNil)
			So(errors.Is(svc.Put(ctx, steady(1, 1, 30)), repository.ErrDuplicateRun), ShouldBeTrue)
		})
	})
}
