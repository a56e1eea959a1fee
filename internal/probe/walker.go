package probe

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// listCases retrieves the case listing.
func listCases(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) ([]CaseSummary, error) {
	log.Println("📋 Retrieving case listing...")

	var summaries []CaseSummary
	status, err := getJSON(ctx, client, config.BaseURL+"/cases", &summaries)
	if err != nil {
		return nil, err
	}
	if status != StatusOK {
		return nil, fmt.Errorf("unexpected HTTP %d", status)
	}

	stats.CasesListed = len(summaries)
	log.Printf("✅ Listed %d cases", len(summaries))
	return summaries, nil
}

// caseFindings holds the verification outcome for one case.
type caseFindings struct {
	problems []string
	warnings int
}

// walkCases fetches every projection of every listed case concurrently
// and verifies they agree with the listing row and with each other.
func walkCases(ctx context.Context, client *HTTPClient, config *Config, summaries []CaseSummary, stats *Stats) error {
	log.Printf("🔍 Verifying %d cases with %d workers...", len(summaries), config.Workers)

	findings := make([]caseFindings, len(summaries))
	var (
		verified int64
		failed   int64
	)

	// Progress reporting. Workers race for the report slot via CAS so
	// only one of them logs per interval.
	var lastReport atomic.Int64
	lastReport.Store(time.Now().UnixNano())
	reportInterval := 1 * time.Second

	// Create worker pool
	caseChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for index := range caseChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := verifySingleCase(ctx, client, config.BaseURL, summaries[index])
					findings[index] = result

					if len(result.problems) > 0 {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							for _, p := range result.problems {
								log.Printf("⚠️  %s", p)
							}
						}
					} else {
						atomic.AddInt64(&verified, 1)
					}

					// Progress reporting
					last := lastReport.Load()
					if now := time.Now(); now.Sub(time.Unix(0, last)) >= reportInterval &&
						lastReport.CompareAndSwap(last, now.UnixNano()) {
						ok := atomic.LoadInt64(&verified)
						bad := atomic.LoadInt64(&failed)
						log.Printf("📊 Progress: %d/%d cases checked (clean: %d, flagged: %d)",
							ok+bad, len(summaries), ok, bad)
					}
				}
			}
		}(i)
	}

	// Send case indices to workers
	go func() {
		defer close(caseChan)
		for i := range summaries {
			select {
			case <-ctx.Done():
				return
			case caseChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Aggregate findings in listing order
	for _, f := range findings {
		stats.Mismatches = append(stats.Mismatches, f.problems...)
		stats.Warnings += f.warnings
	}
	stats.CasesVerified = int(atomic.LoadInt64(&verified))
	stats.CasesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Case verification completed:
   Clean: %d
   Flagged: %d
   Warnings: %d
`, stats.CasesVerified, stats.CasesFailed, stats.Warnings)

	if ctx.Err() != nil {
		return fmt.Errorf("case verification interrupted: %w", ctx.Err())
	}
	return nil
}

// verifySingleCase fetches the detail, prediction, clinical report and
// artifact listing for one case and cross-checks them.
func verifySingleCase(ctx context.Context, client *HTTPClient, baseURL string, summary CaseSummary) caseFindings {
	var out caseFindings
	id := summary.CaseID

	var detail Case
	if _, err := getJSON(ctx, client, fmt.Sprintf("%s/case/%d", baseURL, id), &detail); err != nil {
		out.problems = append(out.problems, fmt.Sprintf("case %d: detail fetch failed: %v", id, err))
		return out
	}
	out.problems = append(out.problems, verifyCaseConsistency(summary, detail)...)

	var pred Prediction
	if _, err := getJSON(ctx, client, fmt.Sprintf("%s/case/%d/prediction", baseURL, id), &pred); err != nil {
		out.problems = append(out.problems, fmt.Sprintf("case %d: prediction fetch failed: %v", id, err))
	} else {
		problems, warnings := verifyPrediction(detail, pred)
		out.problems = append(out.problems, problems...)
		out.warnings += warnings
	}

	var rep ClinicalReport
	if _, err := getJSON(ctx, client, fmt.Sprintf("%s/clinical-report/%d", baseURL, id), &rep); err != nil {
		out.problems = append(out.problems, fmt.Sprintf("case %d: clinical report fetch failed: %v", id, err))
	} else {
		out.problems = append(out.problems, verifyReport(detail, rep)...)
	}

	// Artifact listings are optional: a case with no rendered files
	// answers 404 here.
	var img Images
	status, err := getJSON(ctx, client, fmt.Sprintf("%s/case/%d/images", baseURL, id), &img)
	switch {
	case err != nil && status != StatusNotFound:
		out.problems = append(out.problems, fmt.Sprintf("case %d: image listing fetch failed: %v", id, err))
	case err == nil:
		out.problems = append(out.problems, verifyImages(id, img)...)
	}

	return out
}
