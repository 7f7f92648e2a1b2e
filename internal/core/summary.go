package core

import "fmt"

const (
	highEngagementRate = 15.0
	lowEngagementRate  = 5.0
)

// Summarize aggregates a batch report into counts and recommendations
func Summarize(report *BatchReport) BatchSummary {
	summary := BatchSummary{
		Counts:          make(map[Intent]int, len(Intents)),
		SkippedCount:    len(report.Skipped),
		ErrorCount:      len(report.Errors),
		Recommendations: []string{},
	}

	engaged := 0
	for _, intent := range Intents {
		n := len(report.Results[intent])
		summary.Counts[intent] = n
		summary.TotalProcessed += n
		if intent.Engaged() {
			engaged += n
		}
	}

	if summary.TotalProcessed == 0 {
		summary.Message = "No emails processed"
		return summary
	}

	summary.EngagementRate = float64(engaged) / float64(summary.TotalProcessed) * 100
	summary.Message = fmt.Sprintf("Processed %d replies, engagement rate %.1f%%", summary.TotalProcessed, summary.EngagementRate)

	if n := summary.Counts[IntentInterested]; n > 0 {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("%d interested responses - follow up quickly!", n))
	}
	if n := summary.Counts[IntentScheduling]; n > 0 {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("%d scheduling requests - confirm your availability", n))
	}
	if n := summary.Counts[IntentUnclear]; n > 0 {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("%d emails need manual review", n))
	}

	switch {
	case summary.EngagementRate > highEngagementRate:
		summary.Recommendations = append(summary.Recommendations,
			"Great engagement rate! Consider increasing outreach volume.")
	case summary.EngagementRate < lowEngagementRate:
		summary.Recommendations = append(summary.Recommendations,
			"Low engagement - review email content and targeting.")
	}

	return summary
}
