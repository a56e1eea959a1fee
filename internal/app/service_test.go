package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/cardiolab/ecgserve/internal/app"
	"github.com/cardiolab/ecgserve/internal/domain/model"
	"github.com/cardiolab/ecgserve/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const testCasesJSON = `[
  {
    "case_id": 1,
    "description": "Classic anterior MI",
    "true_class": "MI",
    "predicted_class": "MI",
    "confidence": 0.94,
    "predictions": {"NORM": 0.01, "MI": 0.94, "STTC": 0.02, "CD": 0.02, "HYP": 0.01},
    "demographics": {"age": 63, "sex": "M", "heart_rate": 72, "rhythm": "sinus", "height": 178, "weight": 84},
    "clinical_note": "ST elevation in V1-V4.",
    "shap_importance": {"age": 0.21, "heart_rate": 0.12}
  },
  {
    "case_id": 2,
    "description": "Healthy control",
    "true_class": "NORM",
    "predicted_class": "NORM",
    "confidence": 0.91,
    "predictions": {"NORM": 0.91, "MI": 0.02, "STTC": 0.03, "CD": 0.02, "HYP": 0.02},
    "demographics": {"age": 35, "sex": "F", "heart_rate": null, "rhythm": null, "height": 164, "weight": 58},
    "clinical_note": "No acute findings."
  }
]`

const testModelCardJSON = `{
  "model_info": {"name": "ECG-ResNet1D", "version": "2.1.0", "architecture": "ResNet-1D + Dense Multimodal"},
  "performance": {
    "test_accuracy": 0.874,
    "macro_f1": 0.81,
    "class_f1_scores": {"NORM": 0.93, "MI": 0.88, "STTC": 0.79, "CD": 0.77, "HYP": 0.68},
    "mi_clinical_metrics": {"sensitivity": 0.962, "specificity": 0.9997, "ppv": 0.91, "npv": 0.99}
  },
  "dataset_info": {"name": "PTB-XL", "test_size": 2198}
}`

const testPerformanceJSON = `{
  "robustness": {
    "jitter_levels": [0.01, 0.05],
    "jitter_performance": [0.87, 0.82],
    "scale_factors": [0.8, 1.2],
    "scale_performance": [0.86, 0.85]
  },
  "calibration": {"bins": [0.1, 0.5, 0.9], "observed": [0.12, 0.48, 0.9]},
  "roc_curves": {"MI": {"auc": 0.97}},
  "pr_curves": {"MI": {"ap": 0.93}},
  "slice_analysis": {"age_over_65": {"accuracy": 0.85}}
}`

// writeDataDir lays out the three evaluation documents and returns the dir.
func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"curated_cases.json":    testCasesJSON,
		"model_card.json":       testModelCardJSON,
		"performance_data.json": testPerformanceJSON,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
	return dir
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Version(), ShouldEqual, "1.0.0")
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithDataDir("some/dir"),
			service.WithAuditMaxRecords(50),
			service.WithAuditQueueSize(16),
			service.WithVersion("9.9.9"),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Version(), ShouldEqual, "9.9.9")
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a service pointed at a valid data directory", t, func() {
		svc := service.New(service.WithDataDir(writeDataDir(t)))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And the data should be loaded", func() {
				So(svc.Loaded(ctx), ShouldBeTrue)
				So(svc.StartedAt().IsZero(), ShouldBeFalse)

				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["data_loaded"], ShouldEqual, true)
				So(stats["case_count"], ShouldEqual, 2)
				So(stats["audit_dropped"], ShouldEqual, int64(0))
				So(stats["audit"], ShouldNotBeNil)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a service pointed at an empty data directory", t, func() {
		svc := service.New(service.WithDataDir(t.TempDir()))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then startup still succeeds", func() {
				So(err, ShouldBeNil)
			})

			Convey("And the service reports unloaded data", func() {
				So(svc.Loaded(ctx), ShouldBeFalse)

				cases, err := svc.ListCases(ctx)
				So(err, ShouldEqual, model.ErrNotLoaded)
				So(cases, ShouldBeNil)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithDataDir(writeDataDir(t)))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And stopping again should be a no-op", func() {
				svc.Stop()
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats["version"], ShouldEqual, "1.0.0")
			})
		})
	})
}

func TestService_AuditFallback(t *testing.T) {
	Convey("Given an audit path that cannot be opened", t, func() {
		// A directory is not a valid database file.
		svc := service.New(
			service.WithDataDir(writeDataDir(t)),
			service.WithAuditPath(t.TempDir()),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then startup falls back to the in-memory trail", func() {
				So(err, ShouldBeNil)
				So(svc.Audit(ctx, auditRecord("/health")), ShouldBeTrue)
			})
		})
	})
}
