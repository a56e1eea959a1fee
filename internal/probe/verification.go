package probe

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
)

// Soft-check tolerances.
const (
	confidenceTolerance = 1e-6
	probabilitySumSlack = 0.02
)

// verifyCaseConsistency checks the listing row against the full record.
// Both are projections of the same stored document, so every shared
// field must match exactly.
func verifyCaseConsistency(summary CaseSummary, detail Case) []string {
	var problems []string
	id := summary.CaseID

	if detail.CaseID != id {
		problems = append(problems, fmt.Sprintf("case %d: detail carries case_id %d", id, detail.CaseID))
	}
	if detail.Description != summary.Description {
		problems = append(problems, fmt.Sprintf("case %d: description differs between listing and detail", id))
	}
	if detail.TrueClass != summary.TrueClass {
		problems = append(problems, fmt.Sprintf("case %d: true_class %q in listing but %q in detail", id, summary.TrueClass, detail.TrueClass))
	}
	if detail.PredictedClass != summary.PredictedClass {
		problems = append(problems, fmt.Sprintf("case %d: predicted_class %q in listing but %q in detail", id, summary.PredictedClass, detail.PredictedClass))
	}
	if detail.Confidence != summary.Confidence {
		problems = append(problems, fmt.Sprintf("case %d: confidence %.6f in listing but %.6f in detail", id, summary.Confidence, detail.Confidence))
	}

	return problems
}

// verifyPrediction checks the prediction projection against the full
// record. Field disagreements are hard problems; model-output sanity
// checks (argmax, probability mass) are soft warnings since they report
// on the stored data rather than the server.
func verifyPrediction(detail Case, pred Prediction) ([]string, int) {
	var problems []string
	var warnings int
	id := detail.CaseID

	if pred.CaseID != id {
		problems = append(problems, fmt.Sprintf("case %d: prediction carries case_id %d", id, pred.CaseID))
	}
	if pred.PredictedClass != detail.PredictedClass {
		problems = append(problems, fmt.Sprintf("case %d: predicted_class %q in detail but %q in prediction", id, detail.PredictedClass, pred.PredictedClass))
	}
	if pred.TrueClass != detail.TrueClass {
		problems = append(problems, fmt.Sprintf("case %d: true_class %q in detail but %q in prediction", id, detail.TrueClass, pred.TrueClass))
	}
	if pred.Confidence != detail.Confidence {
		problems = append(problems, fmt.Sprintf("case %d: confidence %.6f in detail but %.6f in prediction", id, detail.Confidence, pred.Confidence))
	}
	if len(pred.Predictions) != len(detail.Predictions) {
		problems = append(problems, fmt.Sprintf("case %d: %d class probabilities in detail but %d in prediction", id, len(detail.Predictions), len(pred.Predictions)))
	} else {
		for class, p := range detail.Predictions {
			if pred.Predictions[class] != p {
				problems = append(problems, fmt.Sprintf("case %d: probability for %q differs between detail and prediction", id, class))
			}
		}
	}

	if len(pred.Predictions) > 0 {
		if top, tie := argmax(pred.Predictions); !tie && top != pred.PredictedClass {
			warnings++
			log.Printf("⚠️  case %d: predicted_class %q is not the argmax class %q", id, pred.PredictedClass, top)
		}

		var sum float64
		for _, p := range pred.Predictions {
			sum += p
		}
		if math.Abs(sum-1) > probabilitySumSlack {
			warnings++
			log.Printf("⚠️  case %d: class probabilities sum to %.4f", id, sum)
		}

		if p, ok := pred.Predictions[pred.PredictedClass]; ok && math.Abs(p-pred.Confidence) > confidenceTolerance {
			warnings++
			log.Printf("⚠️  case %d: confidence %.6f differs from predicted class probability %.6f", id, pred.Confidence, p)
		}
	}

	return problems, warnings
}

// verifyReport checks the clinical report projection against the full record.
func verifyReport(detail Case, rep ClinicalReport) []string {
	var problems []string
	id := detail.CaseID

	if rep.CaseID != id {
		problems = append(problems, fmt.Sprintf("case %d: clinical report carries case_id %d", id, rep.CaseID))
	}
	if rep.PredictedClass != detail.PredictedClass {
		problems = append(problems, fmt.Sprintf("case %d: predicted_class %q in detail but %q in clinical report", id, detail.PredictedClass, rep.PredictedClass))
	}
	if rep.Confidence != detail.Confidence {
		problems = append(problems, fmt.Sprintf("case %d: confidence %.6f in detail but %.6f in clinical report", id, detail.Confidence, rep.Confidence))
	}

	return problems
}

// verifyImages checks that the artifact listing is internally consistent:
// the advertised count must match the number of non-null references.
func verifyImages(id int, img Images) []string {
	var problems []string

	if img.CaseID != id {
		problems = append(problems, fmt.Sprintf("case %d: image listing carries case_id %d", id, img.CaseID))
	}

	available := 0
	for _, ref := range []*string{img.ECGSingleClean, img.ECG12LeadClean, img.GradCAMSingle, img.GradCAM12Lead, img.SHAP} {
		if ref != nil {
			available++
		}
	}

	if available == 0 {
		problems = append(problems, fmt.Sprintf("case %d: image listing answered 200 with no artifact references", id))
		return problems
	}
	if !strings.HasPrefix(img.Message, fmt.Sprintf("%d of 5", available)) {
		problems = append(problems, fmt.Sprintf("case %d: image listing message %q does not match %d available artifacts", id, img.Message, available))
	}

	return problems
}

// argmax returns the class with the highest probability and whether the
// maximum is shared by more than one class.
func argmax(preds map[string]float64) (string, bool) {
	best := ""
	bestVal := math.Inf(-1)
	tie := false
	for class, p := range preds {
		switch {
		case p > bestVal:
			best, bestVal, tie = class, p, false
		case p == bestVal:
			tie = true
		}
	}
	return best, tie
}

// displayClassBreakdown shows how the listed cases distribute over the
// predicted classes.
func displayClassBreakdown(summaries []CaseSummary, verbose bool) {
	if len(summaries) == 0 {
		return
	}

	counts := make(map[string]int)
	confidence := make(map[string]float64)
	for _, s := range summaries {
		counts[s.PredictedClass]++
		confidence[s.PredictedClass] += s.Confidence
	}

	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		if counts[classes[i]] != counts[classes[j]] {
			return counts[classes[i]] > counts[classes[j]]
		}
		return classes[i] < classes[j]
	})

	log.Printf("🏷️  Predicted class breakdown across %d cases:", len(summaries))
	for _, class := range classes {
		n := counts[class]
		log.Printf("   %s - %d cases, mean confidence %.3f", class, n, confidence[class]/float64(n))
	}

	if verbose {
		minConf, maxConf, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, s := range summaries {
			minConf = math.Min(minConf, s.Confidence)
			maxConf = math.Max(maxConf, s.Confidence)
			sum += s.Confidence
		}

		log.Printf(`📊 Confidence statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, sum/float64(len(summaries)), maxConf, minConf)
	}
}
