package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should use the pace namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "questpace")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("x"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.runsStored.Set(3)

			Convey("Then series should carry the prefix and const labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_x_runs_stored" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
			})
		})

		Convey("When invalid option values are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithRefreshInterval(-time.Second),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "questpace")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording analysis metrics", func() {
			before := testutil.ToFloat64(globalManager.analysesTotal.WithLabelValues("fine"))
			RecordAnalysis("fine")
			RecordAnalysisLatency(12.5)
			UpdateCohortSize(42)
			RecordRunDiscarded("zero_start_hp")
			RecordOutliers(3, 1)
			RecordIntegrityFault()

			Convey("Then the series should move", func() {
				So(testutil.ToFloat64(globalManager.analysesTotal.WithLabelValues("fine")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.cohortSize), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.runsDiscarded.WithLabelValues("zero_start_hp")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.outliersSuppressed), ShouldBeGreaterThanOrEqualTo, 3)
				So(testutil.ToFloat64(globalManager.outliersUnmarked), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.integrityFaults), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording repository and reload metrics", func() {
			UpdateRunsStored(7)
			RecordDuplicateRun()
			RecordRepositoryQueryLatency(1)
			RecordRepositoryUpdateLatency(2)
			RecordCohortReload()
			RecordCohortReloadError()

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.runsStored), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.duplicateRuns), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.cohortReloads), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording HTTP, websocket and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/pace", "GET", "200")
				RecordHTTPRequestDuration("/pace", "GET", "200", 5.0)
				RecordErrorByEndpoint("/pace", "GET", "bad_request")
				RecordErrorByComponent("cohortfile", "decode")
				UpdateWSClients(2)
				RecordWSMessage()
				UpdateSystemMetrics()
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.wsClients), ShouldEqual, 2)
			So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldBeGreaterThan, 0)
		})

		Convey("When the system collector's context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				StartSystemCollector(ctx)
				close(done)
			}()
			cancel()

			Convey("Then it should return", func() {
				select {
				case <-done:
					So(true, ShouldBeTrue)
				case <-time.After(time.Second):
					So("collector did not stop", ShouldBeEmpty)
				}
			})
		})

		Convey("When exposing the registry", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
