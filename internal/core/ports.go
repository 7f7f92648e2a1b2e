package core

import (
	"context"
	"time"
)

// MessageSource supplies inbound messages
type MessageSource interface {
	// FetchMessages returns at most max messages matching query
	FetchMessages(ctx context.Context, query string, max int) ([]*InboundMessage, error)
}

// MessageAcknowledger is implemented by sources that can mark messages as
// handled so later batches do not fetch them again
type MessageAcknowledger interface {
	MarkProcessed(ctx context.Context, ids []string) error
}

// Mailer sends outbound messages
type Mailer interface {
	SendMessage(ctx context.Context, to, subject, body string) (*SentMessage, error)
}

// SuppressionRegistry is the durable do-not-contact list
type SuppressionRegistry interface {
	// IsSuppressed reports whether an active entry exists for the address
	IsSuppressed(ctx context.Context, email string) (bool, error)

	// AddSuppressed stores an entry, returning SuppressionExists if the
	// address is already listed
	AddSuppressed(ctx context.Context, entry SuppressionEntry) (SuppressionStatus, error)
}

// ContactLedger is the durable record of outreach targets
type ContactLedger interface {
	// FindContactByEmail returns ErrNotFound when no contact matches
	FindContactByEmail(ctx context.Context, email string) (*Contact, error)

	// UpdateContactStatus reports false when the contact does not exist
	UpdateContactStatus(ctx context.Context, contactID string, update StatusUpdate) (bool, error)

	// FindSchool returns ErrNotFound when no school matches
	FindSchool(ctx context.Context, schoolID string) (*School, error)

	// HasOutreach reports whether we previously sent mail to the address
	HasOutreach(ctx context.Context, email string) (bool, error)
}

// ActivityLog records notable workflow events
type ActivityLog interface {
	LogActivity(ctx context.Context, note ActivityNote) error
}

// OutboundLog records sent messages
type OutboundLog interface {
	RecordSent(ctx context.Context, msg *SentMessage) error
	CountSentSince(ctx context.Context, since time.Time) (int, error)
}

// TextGenerator is a single-shot generative text capability
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Store bundles the persistence ports served by one backend
type Store interface {
	SuppressionRegistry
	ContactLedger
	ActivityLog
	OutboundLog
}
