package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerRegistersFamilies(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("labmetrics"),
			WithSubsystem("results"),
			WithLatencyBuckets([]float64{1, 5, 25}),
			WithConstLabels(prometheus.Labels{"deployment": "trial"}),
			WithRegistry(registry),
		)

		Convey("When a gauge is set and the registry gathered", func() {
			m.dataLoaded.Set(1)

			families, err := registry.Gather()
			So(err, ShouldBeNil)

			Convey("Then the family carries the configured naming and labels", func() {
				var found bool
				for _, mf := range families {
					if mf.GetName() != "labmetrics_results_data_loaded" {
						continue
					}
					found = true

					series := mf.GetMetric()
					So(series, ShouldHaveLength, 1)
					labels := series[0].GetLabel()
					So(labels, ShouldHaveLength, 1)
					So(labels[0].GetName(), ShouldEqual, "deployment")
					So(labels[0].GetValue(), ShouldEqual, "trial")
				}
				So(found, ShouldBeTrue)
				So(testutil.ToFloat64(m.dataLoaded), ShouldEqual, 1)
			})
		})
	})
}

func TestManagerOptionGuards(t *testing.T) {
	Convey("Given zero-valued options", t, func() {
		m := NewManager(
			WithNamespace(""),
			WithSubsystem(""),
			WithLatencyBuckets(nil),
			WithConstLabels(nil),
			WithRegistry(prometheus.NewRegistry()),
		)

		Convey("Then the defaults hold", func() {
			So(m.namespace, ShouldEqual, "ecgserve")
			So(m.subsystem, ShouldEqual, "api")
			So(m.buckets, ShouldResemble, prometheus.DefBuckets)
			So(m.constLabels, ShouldBeNil)
		})
	})
}

func TestPackageRecorders(t *testing.T) {
	Convey("Given the package-level recording helpers", t, func() {
		Convey("When recording across every family", func() {
			record := func() {
				UpdateDataLoaded(true)
				UpdateDataLoaded(false)
				RecordDataLoad(true)
				RecordDataLoad(false)
				UpdateDatasetCases(10)
				RecordLookup("case", "hit")
				RecordLookup("case", "miss")
				RecordLookupLatency(1.5)

				RecordHTTPRequest("cases", "GET", "200")
				RecordHTTPRequestDuration("cases", "GET", "200", 12.0)
				RecordRateLimited("cases")
				RecordPanicRecovered()
				RecordErrorByType("not_found", "medium")
				RecordErrorByEndpoint("case", "GET", "not_found")

				RecordAuditRecord()
				RecordAuditDropped()
				RecordAuditWriteError()
				UpdateAuditQueueDepth(3)

				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(0.7)
			}

			So(record, ShouldNotPanic)

			Convey("Then the recorded series reach the package registry", func() {
				hits := testutil.ToFloat64(globalManager.lookups.WithLabelValues("case", "hit"))
				So(hits, ShouldBeGreaterThanOrEqualTo, 1)

				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)

				var owned bool
				for _, mf := range families {
					if strings.HasPrefix(mf.GetName(), "ecgserve_api_") {
						owned = true
						break
					}
				}
				So(owned, ShouldBeTrue)
			})
		})
	})
}
