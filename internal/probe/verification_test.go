package probe

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func sampleCase() Case {
	return Case{
		CaseID:         7,
		Description:    "Acute anterior myocardial infarction",
		TrueClass:      "MI",
		PredictedClass: "MI",
		Confidence:     0.94,
		Predictions: map[string]float64{
			"NORM": 0.01,
			"MI":   0.94,
			"STTC": 0.03,
			"CD":   0.01,
			"HYP":  0.01,
		},
	}
}

func samplePrediction() Prediction {
	c := sampleCase()
	return Prediction{
		CaseID:         c.CaseID,
		PredictedClass: c.PredictedClass,
		Confidence:     c.Confidence,
		Predictions:    c.Predictions,
		TrueClass:      c.TrueClass,
	}
}

func TestVerifyCaseConsistency(t *testing.T) {
	convey.Convey("Given a listing row and a case detail", t, func() {
		detail := sampleCase()
		summary := CaseSummary{
			CaseID:         detail.CaseID,
			Description:    detail.Description,
			TrueClass:      detail.TrueClass,
			PredictedClass: detail.PredictedClass,
			Confidence:     detail.Confidence,
		}

		convey.Convey("When every shared field matches", func() {
			problems := verifyCaseConsistency(summary, detail)

			convey.Convey("Then no problems are reported", func() {
				convey.So(problems, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the detail carries a different predicted class", func() {
			detail.PredictedClass = "NORM"
			problems := verifyCaseConsistency(summary, detail)

			convey.Convey("Then the disagreement is reported", func() {
				convey.So(problems, convey.ShouldHaveLength, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "predicted_class")
			})
		})

		convey.Convey("When several fields disagree", func() {
			detail.CaseID = 8
			detail.Confidence = 0.5
			detail.Description = "Different description"
			problems := verifyCaseConsistency(summary, detail)

			convey.Convey("Then each disagreement is reported", func() {
				convey.So(problems, convey.ShouldHaveLength, 3)
			})
		})
	})
}

func TestVerifyPrediction(t *testing.T) {
	convey.Convey("Given a case detail and its prediction projection", t, func() {
		detail := sampleCase()

		convey.Convey("When the projection agrees with the detail", func() {
			problems, warnings := verifyPrediction(detail, samplePrediction())

			convey.Convey("Then nothing is flagged", func() {
				convey.So(problems, convey.ShouldBeEmpty)
				convey.So(warnings, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the projection carries a different confidence", func() {
			pred := samplePrediction()
			pred.Confidence = 0.5
			problems, warnings := verifyPrediction(detail, pred)

			convey.Convey("Then the disagreement is a problem", func() {
				convey.So(problems, convey.ShouldNotBeEmpty)
				convey.So(problems[0], convey.ShouldContainSubstring, "confidence")
			})

			convey.Convey("And the confidence no longer matching its class probability is a warning", func() {
				convey.So(warnings, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a class probability differs", func() {
			pred := samplePrediction()
			pred.Predictions = map[string]float64{
				"NORM": 0.02,
				"MI":   0.94,
				"STTC": 0.03,
				"CD":   0.01,
				"HYP":  0.01,
			}
			problems, _ := verifyPrediction(detail, pred)

			convey.Convey("Then the disagreement is a problem", func() {
				convey.So(problems, convey.ShouldHaveLength, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "NORM")
			})
		})

		convey.Convey("When the predicted class is not the argmax of its probabilities", func() {
			pred := samplePrediction()
			pred.PredictedClass = "STTC"
			detail.PredictedClass = "STTC"
			problems, warnings := verifyPrediction(detail, pred)

			convey.Convey("Then it is a warning, not a problem", func() {
				convey.So(problems, convey.ShouldBeEmpty)
				convey.So(warnings, convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		convey.Convey("When the probabilities do not sum to one", func() {
			lopsided := map[string]float64{"NORM": 0.2, "MI": 0.2}
			detail.Predictions = lopsided
			detail.PredictedClass = "MI"
			detail.Confidence = 0.2
			pred := Prediction{
				CaseID:         detail.CaseID,
				PredictedClass: "MI",
				Confidence:     0.2,
				Predictions:    lopsided,
				TrueClass:      detail.TrueClass,
			}
			problems, warnings := verifyPrediction(detail, pred)

			convey.Convey("Then it is a warning, not a problem", func() {
				convey.So(problems, convey.ShouldBeEmpty)
				convey.So(warnings, convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}

func TestVerifyReport(t *testing.T) {
	convey.Convey("Given a case detail and its clinical report projection", t, func() {
		detail := sampleCase()

		convey.Convey("When the projection agrees with the detail", func() {
			rep := ClinicalReport{
				CaseID:         detail.CaseID,
				PredictedClass: detail.PredictedClass,
				Confidence:     detail.Confidence,
				ClinicalNote:   "ST elevation in the anterior leads.",
			}

			convey.Convey("Then no problems are reported", func() {
				convey.So(verifyReport(detail, rep), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the projection disagrees", func() {
			rep := ClinicalReport{
				CaseID:         detail.CaseID,
				PredictedClass: "NORM",
				Confidence:     0.1,
			}
			problems := verifyReport(detail, rep)

			convey.Convey("Then each disagreement is reported", func() {
				convey.So(problems, convey.ShouldHaveLength, 2)
			})
		})
	})
}

func TestVerifyImages(t *testing.T) {
	ref := func(s string) *string { return &s }

	convey.Convey("Given an artifact listing", t, func() {
		convey.Convey("When the message matches the number of references", func() {
			img := Images{
				CaseID:         3,
				ECGSingleClean: ref("/images/ecg/case_003.png"),
				SHAP:           ref("/images/attribution/shap_003.png"),
				Message:        "2 of 5 artifacts available for case 3",
			}

			convey.Convey("Then no problems are reported", func() {
				convey.So(verifyImages(3, img), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the message disagrees with the references", func() {
			img := Images{
				CaseID:         3,
				ECGSingleClean: ref("/images/ecg/case_003.png"),
				Message:        "4 of 5 artifacts available for case 3",
			}
			problems := verifyImages(3, img)

			convey.Convey("Then the mismatch is reported", func() {
				convey.So(problems, convey.ShouldHaveLength, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "does not match")
			})
		})

		convey.Convey("When the listing carries no references at all", func() {
			img := Images{CaseID: 3, Message: "0 of 5 artifacts available for case 3"}
			problems := verifyImages(3, img)

			convey.Convey("Then the empty answer is reported", func() {
				convey.So(problems, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When the listing carries the wrong case id", func() {
			img := Images{
				CaseID:         4,
				ECGSingleClean: ref("/images/ecg/case_003.png"),
				Message:        "1 of 5 artifacts available for case 4",
			}
			problems := verifyImages(3, img)

			convey.Convey("Then the id mismatch is reported", func() {
				convey.So(problems, convey.ShouldHaveLength, 1)
				convey.So(problems[0], convey.ShouldContainSubstring, "case_id")
			})
		})
	})
}

func TestArgmax(t *testing.T) {
	convey.Convey("Given class probability maps", t, func() {
		convey.Convey("When one class dominates", func() {
			top, tie := argmax(map[string]float64{"NORM": 0.1, "MI": 0.8, "CD": 0.1})

			convey.Convey("Then it is returned without a tie", func() {
				convey.So(top, convey.ShouldEqual, "MI")
				convey.So(tie, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When two classes share the maximum", func() {
			_, tie := argmax(map[string]float64{"NORM": 0.4, "MI": 0.4, "CD": 0.2})

			convey.Convey("Then the tie is reported", func() {
				convey.So(tie, convey.ShouldBeTrue)
			})
		})
	})
}
