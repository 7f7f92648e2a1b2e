package core

import (
	"time"
)

// Intent is the classified purpose of an inbound reply
type Intent string

const (
	IntentInterested    Intent = "interested"
	IntentNeedInfo      Intent = "need_info"
	IntentNotInterested Intent = "not_interested"
	IntentScheduling    Intent = "scheduling"
	IntentUnsubscribe   Intent = "unsubscribe"
	IntentUnclear       Intent = "unclear"
)

// Intents lists every recognized intent in reporting order
var Intents = []Intent{
	IntentInterested,
	IntentNeedInfo,
	IntentScheduling,
	IntentNotInterested,
	IntentUnsubscribe,
	IntentUnclear,
}

// ParseIntent maps a free-form label onto a recognized intent
func ParseIntent(s string) (Intent, bool) {
	candidate := Intent(normalizeLabel(s))
	for _, intent := range Intents {
		if intent == candidate {
			return intent, true
		}
	}
	return "", false
}

// Engaged reports whether the intent counts towards the engagement rate
func (i Intent) Engaged() bool {
	return i == IntentInterested || i == IntentScheduling || i == IntentNeedInfo
}

// Classification methods
const (
	MethodAI      = "ai"
	MethodPattern = "pattern"
	MethodSkipped = "skipped"
)

// InboundMessage represents a message fetched from the mailbox
type InboundMessage struct {
	ID         string
	ThreadID   string
	Sender     string
	Subject    string
	Body       string
	ReceivedAt time.Time
	Labels     []string
}

// SenderIdentity is the normalized sender of an inbound message
type SenderIdentity struct {
	Address string
	Name    string
}

// Classification is the verdict on a single inbound message
type Classification struct {
	Intent          Intent
	Confidence      float64
	Rationale       string
	KeyPhrases      []string
	SuggestedAction string
	Method          string
	ModelUsed       string
}

// Contact is a ledger entry for an outreach target
type Contact struct {
	ID           string
	SchoolID     string
	Name         string
	Email        string
	Status       string
	ResponseType string
	LastContact  time.Time
	Notes        string
}

// School is a ledger entry for an organization we reach out to
type School struct {
	ID       string
	Name     string
	District string
	Status   string
}

// Contact statuses written by the reply workflows
const (
	StatusInterested           = "Interested"
	StatusMeetingRequested     = "Meeting Requested"
	StatusUnsubscribed         = "Unsubscribed"
	StatusInformationRequested = "Information Requested"
	StatusNotInterested        = "Not Interested"
	StatusNeedsReview          = "Needs Review"
)

// StatusUpdate describes a change to a contact's engagement status
type StatusUpdate struct {
	Status       string
	ResponseType string
	Notes        string
}

// SuppressionEntry is a do-not-contact record
type SuppressionEntry struct {
	Email       string
	ContactName string
	SchoolName  string
	Reason      string
	AddedAt     time.Time
	AddedBy     string
	Active      bool
}

// SuppressionStatus is the result of adding a suppression entry
type SuppressionStatus string

const (
	SuppressionAdded  SuppressionStatus = "success"
	SuppressionExists SuppressionStatus = "exists"
)

// ActivityNote is an entry in the outreach activity log
type ActivityNote struct {
	ID           string
	OccurredAt   time.Time
	ActivityType string
	Contact      string
	Status       string
	Priority     string
	AssignedTo   string
	Notes        string
}

// SentMessage is the receipt for an outbound message
type SentMessage struct {
	ID      string
	To      string
	Subject string
	SentAt  time.Time
}

// Draft is an outbound message before it is sent
type Draft struct {
	Subject string
	Body    string
}

// BatchSpec selects the inbound messages for a run
type BatchSpec struct {
	Query       string
	MaxMessages int
}

// MessageReport records what happened to a dispatched message
type MessageReport struct {
	MessageID      string
	From           string
	Subject        string
	Classification *Classification
	Outcome        DispatchOutcome
}

// SkippedMessage records a message that was not dispatched
type SkippedMessage struct {
	MessageID      string
	From           string
	Subject        string
	Reason         string
	Classification *Classification
}

// MessageError records a message whose processing failed outright
type MessageError struct {
	MessageID string
	Error     string
}

// BatchSummary aggregates the outcome of a run
type BatchSummary struct {
	TotalProcessed  int
	Counts          map[Intent]int
	SkippedCount    int
	ErrorCount      int
	EngagementRate  float64
	Message         string
	Recommendations []string
}

// BatchReport is the full result of a run
type BatchReport struct {
	Fetched int
	Results map[Intent][]MessageReport
	Skipped []SkippedMessage
	Errors  []MessageError
	Summary BatchSummary
}
