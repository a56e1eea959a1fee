package report_test

import (
	"testing"

	"github.com/cardiolab/ecgserve/internal/domain/diagnosis"
	"github.com/cardiolab/ecgserve/internal/domain/model"
	"github.com/cardiolab/ecgserve/internal/domain/report"
	"github.com/smartystreets/goconvey/convey"
)

func sampleCase() model.Case {
	hr := 88
	return model.Case{
		CaseID:         7,
		Description:    "Borderline ST/T change",
		TrueClass:      diagnosis.STTChange,
		PredictedClass: diagnosis.STTChange,
		Confidence:     0.78,
		Predictions: map[string]float64{
			"NORM": 0.10, "MI": 0.05, "STTC": 0.78, "CD": 0.04, "HYP": 0.03,
		},
		Demographics: model.Demographics{Age: 54, Sex: "F", HeartRate: &hr, Height: 164, Weight: 61},
		ClinicalNote: "Diffuse T-wave flattening, recommend follow-up.",
		ShapImportance: map[string]float64{
			"age": 0.18, "sex": 0.04,
		},
	}
}

func TestProjections(t *testing.T) {
	convey.Convey("Given a loaded case", t, func() {
		c := sampleCase()

		convey.Convey("When projecting the listing row", func() {
			s := report.Summarize(c)

			convey.Convey("Then shared fields match the source record", func() {
				convey.So(s.CaseID, convey.ShouldEqual, c.CaseID)
				convey.So(s.Description, convey.ShouldEqual, c.Description)
				convey.So(s.TrueClass, convey.ShouldEqual, c.TrueClass)
				convey.So(s.PredictedClass, convey.ShouldEqual, c.PredictedClass)
				convey.So(s.Confidence, convey.ShouldEqual, c.Confidence)
			})
		})

		convey.Convey("When projecting the prediction", func() {
			p := report.Prediction(c)

			convey.Convey("Then shared fields match the source record", func() {
				convey.So(p.CaseID, convey.ShouldEqual, c.CaseID)
				convey.So(p.PredictedClass, convey.ShouldEqual, c.PredictedClass)
				convey.So(p.Confidence, convey.ShouldEqual, c.Confidence)
				convey.So(p.TrueClass, convey.ShouldEqual, c.TrueClass)
				convey.So(p.Predictions, convey.ShouldResemble, c.Predictions)
			})
		})

		convey.Convey("When projecting the clinical report", func() {
			r := report.Clinical(c)

			convey.Convey("Then shared fields match the source record", func() {
				convey.So(r.CaseID, convey.ShouldEqual, c.CaseID)
				convey.So(r.Demographics, convey.ShouldResemble, c.Demographics)
				convey.So(r.PredictedClass, convey.ShouldEqual, c.PredictedClass)
				convey.So(r.Confidence, convey.ShouldEqual, c.Confidence)
				convey.So(r.ClinicalNote, convey.ShouldEqual, c.ClinicalNote)
				convey.So(r.ShapImportance, convey.ShouldResemble, c.ShapImportance)
			})
		})

		convey.Convey("When the case carries no attribution scores", func() {
			c.ShapImportance = nil
			r := report.Clinical(c)

			convey.Convey("Then the report exposes an empty mapping, not null", func() {
				convey.So(r.ShapImportance, convey.ShouldNotBeNil)
				convey.So(r.ShapImportance, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When projecting repeatedly", func() {
			first := report.Prediction(c)
			second := report.Prediction(c)

			convey.Convey("Then the projections are identical", func() {
				convey.So(second, convey.ShouldResemble, first)
			})
		})
	})
}

func TestSummarizeAll(t *testing.T) {
	convey.Convey("Given a case list", t, func() {
		a := sampleCase()
		b := sampleCase()
		b.CaseID = 8
		b.Description = "Second case"

		convey.Convey("When summarizing all cases", func() {
			rows := report.SummarizeAll([]model.Case{a, b})

			convey.Convey("Then order and identity are preserved", func() {
				convey.So(rows, convey.ShouldHaveLength, 2)
				convey.So(rows[0].CaseID, convey.ShouldEqual, 7)
				convey.So(rows[1].CaseID, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When summarizing an empty list", func() {
			rows := report.SummarizeAll(nil)

			convey.So(rows, convey.ShouldNotBeNil)
			convey.So(rows, convey.ShouldBeEmpty)
		})
	})
}

func TestMetrics(t *testing.T) {
	convey.Convey("Given a model card", t, func() {
		card := model.ModelCard{
			ModelInfo: model.ModelInfo{
				Name:         "ECG-ResNet1D",
				Version:      "2.1.0",
				Architecture: "ResNet-1D + Dense Multimodal",
			},
			Performance: model.PerformanceMetrics{
				TestAccuracy: 0.874,
				MacroF1:      0.81,
				ClassF1Scores: map[string]float64{
					"NORM": 0.93, "MI": 0.88,
				},
				MIClinicalMetrics: model.MIClinicalMetrics{
					Sensitivity: 0.962, Specificity: 0.9997, PPV: 0.91, NPV: 0.99,
				},
			},
			DatasetInfo: model.DatasetInfo{Name: "PTB-XL", TestSize: 2198},
		}

		convey.Convey("When projecting the metrics summary", func() {
			s := report.Metrics(card, 10)

			convey.Convey("Then the summary mirrors the card", func() {
				convey.So(s.ModelName, convey.ShouldEqual, "ECG-ResNet1D")
				convey.So(s.Version, convey.ShouldEqual, "2.1.0")
				convey.So(s.Architecture, convey.ShouldEqual, "ResNet-1D + Dense Multimodal")
				convey.So(s.PerformanceMetrics, convey.ShouldResemble, card.Performance)
				convey.So(s.TestCases, convey.ShouldEqual, 10)
			})
		})
	})
}

func TestRobustnessOrEmpty(t *testing.T) {
	convey.Convey("Given an evaluation document", t, func() {
		convey.Convey("When the robustness section is present", func() {
			pd := model.PerformanceData{
				Robustness: &model.Robustness{
					JitterLevels:      []float64{0.01, 0.05},
					JitterPerformance: []float64{0.87, 0.82},
					ScaleFactors:      []float64{0.8, 1.2},
					ScalePerformance:  []float64{0.86, 0.85},
				},
			}
			r := report.RobustnessOrEmpty(pd)

			convey.So(r, convey.ShouldResemble, *pd.Robustness)
		})

		convey.Convey("When the robustness section is absent", func() {
			r := report.RobustnessOrEmpty(model.PerformanceData{})

			convey.Convey("Then every series is an empty array, not null", func() {
				convey.So(r.JitterLevels, convey.ShouldNotBeNil)
				convey.So(r.JitterLevels, convey.ShouldBeEmpty)
				convey.So(r.JitterPerformance, convey.ShouldBeEmpty)
				convey.So(r.ScaleFactors, convey.ShouldBeEmpty)
				convey.So(r.ScalePerformance, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the section exists with partial series", func() {
			pd := model.PerformanceData{Robustness: &model.Robustness{JitterLevels: []float64{0.01}}}
			r := report.RobustnessOrEmpty(pd)

			convey.So(r.JitterLevels, convey.ShouldHaveLength, 1)
			convey.So(r.ScalePerformance, convey.ShouldNotBeNil)
			convey.So(r.ScalePerformance, convey.ShouldBeEmpty)
		})
	})
}

func TestCurves(t *testing.T) {
	convey.Convey("Given an evaluation document", t, func() {
		convey.Convey("When both curve sections are present", func() {
			pd := model.PerformanceData{
				ROCCurves: map[string]any{"MI": map[string]any{"auc": 0.97}},
				PRCurves:  map[string]any{"MI": map[string]any{"ap": 0.93}},
			}
			out := report.Curves(pd)

			convey.So(out["roc_curves"], convey.ShouldResemble, pd.ROCCurves)
			convey.So(out["pr_curves"], convey.ShouldResemble, pd.PRCurves)
		})

		convey.Convey("When the document has no curves", func() {
			out := report.Curves(model.PerformanceData{})

			convey.Convey("Then both keys map to empty objects", func() {
				convey.So(out["roc_curves"], convey.ShouldResemble, map[string]any{})
				convey.So(out["pr_curves"], convey.ShouldResemble, map[string]any{})
			})
		})
	})
}
