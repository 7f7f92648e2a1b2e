package core

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	positivePatterns = compileAll(
		`\b(interested|sounds good|yes|tell me more|learn more|information|details)\b`,
		`\b(schedule|meeting|call|discuss|when|available)\b`,
		`\b(like to know|would like|please send|can you)\b`,
	)
	negativePatterns = compileAll(
		`\b(not interested|no thank|decline|pass|busy|not now)\b`,
		`\b(maybe later|not at this time|budget|financial)\b`,
	)
	schedulingPatterns = compileAll(
		`\b(schedule|calendar|meeting|appointment|time|when)\b`,
		`\b(available|book|arrange|set up|coordinate)\b`,
	)
	unsubscribePatterns = compileAll(
		`\b(unsubscribe|remove|stop|opt out|no more|do not contact)\b`,
	)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}

// countMatches counts patterns that match at least once
func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

// PatternClassifier is the deterministic keyword classifier. The rule order
// and the confidence values are fixed; the first matching rule wins.
type PatternClassifier struct{}

// NewPatternClassifier creates a pattern classifier
func NewPatternClassifier() *PatternClassifier {
	return &PatternClassifier{}
}

// ClassifyText classifies the lower-cased combination of subject and body.
// Text is NFKC-normalized first so compatibility forms such as full-width
// letters match the keyword patterns.
func (p *PatternClassifier) ClassifyText(subject, body string) *Classification {
	text := strings.ToLower(norm.NFKC.String(subject + " " + body))

	if countMatches(unsubscribePatterns, text) > 0 {
		return patternResult(IntentUnsubscribe, 0.8,
			"Contains unsubscribe keywords",
			[]string{"unsubscribe", "remove", "stop"},
			"Add to do-not-contact list")
	}

	if countMatches(schedulingPatterns, text) >= 2 {
		return patternResult(IntentScheduling, 0.7,
			"Multiple scheduling-related keywords",
			[]string{"schedule", "meeting", "time"},
			"Send available time slots")
	}

	positive := countMatches(positivePatterns, text)
	negative := countMatches(negativePatterns, text)

	if positive > negative && positive >= 1 {
		return patternResult(IntentInterested, 0.6,
			"Contains positive keywords",
			[]string{"interested", "information"},
			"Send detailed information")
	}
	if negative > 0 {
		return patternResult(IntentNotInterested, 0.6,
			"Contains negative keywords",
			[]string{"not interested"},
			"Mark as not interested")
	}

	if strings.Contains(text, "?") || strings.Contains(text, "how") || strings.Contains(text, "what") {
		return patternResult(IntentNeedInfo, 0.5,
			"Contains questions",
			[]string{"?", "how", "what"},
			"Provide additional information")
	}

	return patternResult(IntentUnclear, 0.3,
		"No clear indicators found",
		[]string{},
		"Manual review required")
}

func patternResult(intent Intent, confidence float64, rationale string, phrases []string, action string) *Classification {
	return &Classification{
		Intent:          intent,
		Confidence:      confidence,
		Rationale:       rationale,
		KeyPhrases:      phrases,
		SuggestedAction: action,
		Method:          MethodPattern,
	}
}
