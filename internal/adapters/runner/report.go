package runner

import (
	"fmt"
	"io"

	"github.com/mikey/outreach-reply-engine/internal/core"
)

// PrintReport writes a human-readable batch summary
func PrintReport(w io.Writer, report *core.BatchReport) {
	summary := report.Summary

	fmt.Fprintf(w, "\n=== Batch Summary ===\n")
	fmt.Fprintf(w, "Fetched: %d\n", report.Fetched)
	fmt.Fprintf(w, "Processed: %d\n", summary.TotalProcessed)
	fmt.Fprintf(w, "Skipped: %d\n", summary.SkippedCount)
	fmt.Fprintf(w, "Errors: %d\n", summary.ErrorCount)
	fmt.Fprintf(w, "Engagement rate: %.1f%%\n", summary.EngagementRate)
	fmt.Fprintf(w, "%s\n", summary.Message)

	if summary.TotalProcessed > 0 {
		fmt.Fprintf(w, "\n=== By Intent ===\n")
		for _, intent := range core.Intents {
			if n := summary.Counts[intent]; n > 0 {
				fmt.Fprintf(w, "%s: %d\n", intent, n)
			}
		}

		fmt.Fprintf(w, "\n=== Results ===\n")
		for _, intent := range core.Intents {
			for _, r := range report.Results[intent] {
				fmt.Fprintf(w, "[%s] %s %q -> %s\n", intent, r.From, r.Subject, r.Outcome)
			}
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n=== Errors ===\n")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "%s: %s\n", e.MessageID, e.Error)
		}
	}

	if len(summary.Recommendations) > 0 {
		fmt.Fprintf(w, "\n=== Recommendations ===\n")
		for _, rec := range summary.Recommendations {
			fmt.Fprintf(w, "- %s\n", rec)
		}
	}
}
