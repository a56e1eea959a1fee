package service_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cardiolab/ecgserve/internal/adapters/audit"
	service "github.com/cardiolab/ecgserve/internal/app"
	"github.com/cardiolab/ecgserve/internal/domain/diagnosis"
	"github.com/cardiolab/ecgserve/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func auditRecord(path string) audit.Record {
	return audit.NewRecord(http.MethodGet, path, path, http.StatusOK, 5*time.Millisecond, "10.0.0.1", 128)
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service over the full fixture set", t, func() {
		svc := service.New(service.WithDataDir(writeDataDir(t)))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Loaded(ctx), ShouldBeTrue)

		Convey("When listing cases", func() {
			cases, err := svc.ListCases(ctx)
			So(err, ShouldBeNil)
			So(len(cases), ShouldEqual, 2)

			Convey("Then summaries carry only the list fields", func() {
				So(cases[0].CaseID, ShouldEqual, 1)
				So(cases[0].Description, ShouldEqual, "Classic anterior MI")
				So(cases[0].TrueClass, ShouldEqual, diagnosis.Infarction)
				So(cases[0].PredictedClass, ShouldEqual, diagnosis.Infarction)
				So(cases[0].Confidence, ShouldEqual, 0.94)
			})
		})

		Convey("When fetching a single case", func() {
			c, err := svc.GetCase(ctx, 1)
			So(err, ShouldBeNil)
			So(c.ClinicalNote, ShouldEqual, "ST elevation in V1-V4.")
			So(c.Demographics.Age, ShouldEqual, 63)

			Convey("And a missing id reports not found", func() {
				_, err := svc.GetCase(ctx, 42)
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When fetching the prediction projection", func() {
			p, err := svc.GetPrediction(ctx, 1)
			So(err, ShouldBeNil)
			So(p.PredictedClass, ShouldEqual, diagnosis.Infarction)
			So(p.Confidence, ShouldEqual, 0.94)
			So(p.Predictions["NORM"], ShouldEqual, 0.01)
			So(p.TrueClass, ShouldEqual, diagnosis.Infarction)
		})

		Convey("When fetching the clinical report", func() {
			r, err := svc.GetClinicalReport(ctx, 2)
			So(err, ShouldBeNil)
			So(r.CaseID, ShouldEqual, 2)
			So(r.ClinicalNote, ShouldEqual, "No acute findings.")

			Convey("Then a case without attributions still has a map", func() {
				So(r.ShapImportance, ShouldNotBeNil)
				So(len(r.ShapImportance), ShouldEqual, 0)
			})
		})

		Convey("When fetching the metrics summary", func() {
			m, err := svc.MetricsSummary(ctx)
			So(err, ShouldBeNil)
			So(m.ModelName, ShouldEqual, "ECG-ResNet1D")
			So(m.Version, ShouldEqual, "2.1.0")
			So(m.PerformanceMetrics.TestAccuracy, ShouldEqual, 0.874)
			So(m.TestCases, ShouldEqual, 2)
		})

		Convey("When fetching the performance views", func() {
			rob, err := svc.RobustnessSummary(ctx)
			So(err, ShouldBeNil)
			So(len(rob.JitterLevels), ShouldEqual, 2)
			So(len(rob.ScalePerformance), ShouldEqual, 2)

			cal, err := svc.Calibration(ctx)
			So(err, ShouldBeNil)
			So(cal["bins"], ShouldNotBeNil)

			curves, err := svc.RocPrCurves(ctx)
			So(err, ShouldBeNil)
			So(curves["roc_curves"], ShouldNotBeNil)
			So(curves["pr_curves"], ShouldNotBeNil)

			demo, err := svc.DemographicAnalysis(ctx)
			So(err, ShouldBeNil)
			So(demo["age_over_65"], ShouldNotBeNil)
		})

		Convey("When fetching images with nothing on disk", func() {
			_, err := svc.CaseImages(ctx, 1)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("When recording audit entries", func() {
			So(svc.Audit(ctx, auditRecord("/cases")), ShouldBeTrue)
			So(svc.Audit(ctx, auditRecord("/health")), ShouldBeTrue)

			// The writer drains asynchronously; poll until both land.
			deadline := time.After(2 * time.Second)
			for {
				recent, err := svc.AuditRecent(ctx, 10)
				So(err, ShouldBeNil)
				if len(recent) == 2 {
					So(recent[0].Method, ShouldEqual, http.MethodGet)
					break
				}
				select {
				case <-deadline:
					t.Fatalf("audit trail drained %d of 2 records", len(recent))
				case <-time.After(5 * time.Millisecond):
				}
			}
		})
	})
}

func TestServiceSparsePerformanceData(t *testing.T) {
	Convey("Given a performance document with only curve data", t, func() {
		dir := writeDataDir(t)
		sparse := `{"roc_curves": {"MI": {"auc": 0.97}}, "pr_curves": {}}`
		err := os.WriteFile(filepath.Join(dir, "performance_data.json"), []byte(sparse), 0o600)
		So(err, ShouldBeNil)

		svc := service.New(service.WithDataDir(dir))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("Then robustness degrades to empty series", func() {
			rob, err := svc.RobustnessSummary(ctx)
			So(err, ShouldBeNil)
			So(rob.JitterLevels, ShouldNotBeNil)
			So(len(rob.JitterLevels), ShouldEqual, 0)
		})

		Convey("And curves still answer", func() {
			curves, err := svc.RocPrCurves(ctx)
			So(err, ShouldBeNil)
			So(curves["roc_curves"], ShouldNotBeNil)
		})

		Convey("But calibration reports not found", func() {
			_, err := svc.Calibration(ctx)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("And demographic analysis reports not found", func() {
			_, err := svc.DemographicAnalysis(ctx)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service under concurrent reads", t, func() {
		svc := service.New(service.WithDataDir(writeDataDir(t)))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When many goroutines query at once", func() {
			numGoroutines := 20
			done := make(chan error, numGoroutines)

			for i := 0; i < numGoroutines; i++ {
				go func(id int) {
					for j := 0; j < 25; j++ {
						if _, err := svc.ListCases(ctx); err != nil {
							done <- err
							return
						}
						if _, err := svc.GetCase(ctx, 1+(id+j)%2); err != nil {
							done <- err
							return
						}
						if _, err := svc.MetricsSummary(ctx); err != nil {
							done <- err
							return
						}
					}
					done <- nil
				}(i)
			}

			Convey("Then every query succeeds", func() {
				for i := 0; i < numGoroutines; i++ {
					So(<-done, ShouldBeNil)
				}
			})
		})
	})
}
