package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of core.Store
type MemoryStore struct {
	mu           sync.RWMutex
	schools      map[string]core.School
	contacts     map[string]core.Contact
	suppressions map[string]core.SuppressionEntry
	activities   []core.ActivityNote
	outbound     []core.SentMessage
	now          func() time.Time
	logger       *zap.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		schools:      make(map[string]core.School),
		contacts:     make(map[string]core.Contact),
		suppressions: make(map[string]core.SuppressionEntry),
		now:          time.Now,
		logger:       logger,
	}
}

// SetClock replaces the clock used for timestamps
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SaveSchool inserts or replaces a school, assigning an ID if it has none
func (s *MemoryStore) SaveSchool(ctx context.Context, school core.School) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	s.schools[school.ID] = school
	return school.ID, nil
}

// SaveContact inserts or replaces a contact, assigning an ID if it has none
func (s *MemoryStore) SaveContact(ctx context.Context, contact core.Contact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	contact.Email = normalizeEmail(contact.Email)
	s.contacts[contact.ID] = contact
	return contact.ID, nil
}

// FindContactByEmail implements core.ContactLedger
func (s *MemoryStore) FindContactByEmail(ctx context.Context, email string) (*core.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = normalizeEmail(email)
	for _, contact := range s.contacts {
		if contact.Email == email {
			c := contact
			return &c, nil
		}
	}
	return nil, core.ErrNotFound
}

// UpdateContactStatus implements core.ContactLedger
func (s *MemoryStore) UpdateContactStatus(ctx context.Context, contactID string, update core.StatusUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[contactID]
	if !ok {
		return false, nil
	}

	now := s.now()
	contact.Status = update.Status
	contact.LastContact = now
	if update.ResponseType != "" {
		contact.ResponseType = update.ResponseType
	}
	if update.Notes != "" {
		contact.Notes = appendNote(contact.Notes, update.Notes, now)
	}
	s.contacts[contactID] = contact

	s.logger.Debug("Updated contact status",
		zap.String("contact_id", contactID),
		zap.String("status", update.Status))
	return true, nil
}

// FindSchool implements core.ContactLedger
func (s *MemoryStore) FindSchool(ctx context.Context, schoolID string) (*core.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	school, ok := s.schools[schoolID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &school, nil
}

// HasOutreach implements core.ContactLedger. Only sends recorded in this
// store count, so a fresh process knows no prior outreach.
func (s *MemoryStore) HasOutreach(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = normalizeEmail(email)
	for _, msg := range s.outbound {
		if normalizeEmail(msg.To) == email {
			return true, nil
		}
	}
	return false, nil
}

// IsSuppressed implements core.SuppressionRegistry
func (s *MemoryStore) IsSuppressed(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.suppressions[normalizeEmail(email)]
	return ok && entry.Active, nil
}

// AddSuppressed implements core.SuppressionRegistry
func (s *MemoryStore) AddSuppressed(ctx context.Context, entry core.SuppressionEntry) (core.SuppressionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(entry.Email)
	if _, ok := s.suppressions[key]; ok {
		return core.SuppressionExists, nil
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.now()
	}
	s.suppressions[key] = entry

	s.logger.Info("Added to do-not-contact list", zap.String("email", key))
	return core.SuppressionAdded, nil
}

// LogActivity implements core.ActivityLog
func (s *MemoryStore) LogActivity(ctx context.Context, note core.ActivityNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.OccurredAt.IsZero() {
		note.OccurredAt = s.now()
	}
	s.activities = append(s.activities, note)
	return nil
}

// Activities returns a copy of the activity log
func (s *MemoryStore) Activities() []core.ActivityNote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]core.ActivityNote(nil), s.activities...)
}

// RecordSent implements core.OutboundLog
func (s *MemoryStore) RecordSent(ctx context.Context, msg *core.SentMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := *msg
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.SentAt.IsZero() {
		record.SentAt = s.now()
	}
	s.outbound = append(s.outbound, record)
	return nil
}

// CountSentSince implements core.OutboundLog
func (s *MemoryStore) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, msg := range s.outbound {
		if !msg.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// appendNote adds a dated line to existing notes
func appendNote(existing, note string, at time.Time) string {
	return strings.TrimSpace(existing + "\n[" + at.Format(time.DateOnly) + "] " + note)
}
