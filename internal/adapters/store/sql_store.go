package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"go.uber.org/zap"
)

// timestamps are stored as fixed-width UTC text so they compare as strings
const timeLayout = "2006-01-02T15:04:05Z"

// SQLStore is a database/sql implementation of core.Store
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
	logger  *zap.Logger
}

// NewSQLStore opens the database, verifies the connection and creates the
// schema if needed
func NewSQLStore(dialect Dialect, dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name, err)
	}
	if dialect.MaxOpenConns > 0 {
		db.SetMaxOpenConns(dialect.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect.Name, err)
	}

	for _, stmt := range dialect.Schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	logger.Info("Store ready", zap.String("dialect", dialect.Name))

	return &SQLStore{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		now:     time.Now,
		logger:  logger,
	}, nil
}

// SetClock replaces the clock used for timestamps
func (s *SQLStore) SetClock(now func() time.Time) {
	s.now = now
}

// SaveSchool inserts or replaces a school, assigning an ID if it has none
func (s *SQLStore) SaveSchool(ctx context.Context, school core.School) (string, error) {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}

	values := map[string]interface{}{
		"name":     school.Name,
		"district": school.District,
		"status":   school.Status,
	}
	if err := s.upsert(ctx, "schools", school.ID, values); err != nil {
		return "", fmt.Errorf("failed to save school: %w", err)
	}
	return school.ID, nil
}

// SaveContact inserts or replaces a contact, assigning an ID if it has none
func (s *SQLStore) SaveContact(ctx context.Context, contact core.Contact) (string, error) {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}

	values := map[string]interface{}{
		"school_id":     contact.SchoolID,
		"name":          contact.Name,
		"email":         normalizeEmail(contact.Email),
		"status":        contact.Status,
		"response_type": contact.ResponseType,
		"last_contact":  formatTime(contact.LastContact),
		"notes":         contact.Notes,
	}
	if err := s.upsert(ctx, "contacts", contact.ID, values); err != nil {
		return "", fmt.Errorf("failed to save contact: %w", err)
	}
	return contact.ID, nil
}

// upsert updates the row with the given id or inserts it
func (s *SQLStore) upsert(ctx context.Context, table, id string, values map[string]interface{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := s.builder.Select("COUNT(*)").From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return err
	}

	if count > 0 {
		query, args, err = s.builder.Update(table).SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	} else {
		row := map[string]interface{}{"id": id}
		for k, v := range values {
			row[k] = v
		}
		query, args, err = s.builder.Insert(table).SetMap(row).ToSql()
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return tx.Commit()
}

// FindContactByEmail implements core.ContactLedger
func (s *SQLStore) FindContactByEmail(ctx context.Context, email string) (*core.Contact, error) {
	query, args, err := s.builder.
		Select("id", "school_id", "name", "email", "status", "response_type", "last_contact", "notes").
		From("contacts").
		Where(sq.Eq{"email": normalizeEmail(email)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	return s.scanContact(s.db.QueryRowContext(ctx, query, args...))
}

func (s *SQLStore) findContactByID(ctx context.Context, tx *sql.Tx, id string) (*core.Contact, error) {
	query, args, err := s.builder.
		Select("id", "school_id", "name", "email", "status", "response_type", "last_contact", "notes").
		From("contacts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	return s.scanContact(tx.QueryRowContext(ctx, query, args...))
}

func (s *SQLStore) scanContact(row *sql.Row) (*core.Contact, error) {
	var contact core.Contact
	var lastContact string

	err := row.Scan(&contact.ID, &contact.SchoolID, &contact.Name, &contact.Email,
		&contact.Status, &contact.ResponseType, &lastContact, &contact.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query contact: %w", err)
	}

	contact.LastContact, err = parseTime(lastContact)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_contact: %w", err)
	}
	return &contact, nil
}

// UpdateContactStatus implements core.ContactLedger
func (s *SQLStore) UpdateContactStatus(ctx context.Context, contactID string, update core.StatusUpdate) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	contact, err := s.findContactByID(ctx, tx, contactID)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := s.now()
	values := map[string]interface{}{
		"status":       update.Status,
		"last_contact": formatTime(now),
	}
	if update.ResponseType != "" {
		values["response_type"] = update.ResponseType
	}
	if update.Notes != "" {
		values["notes"] = appendNote(contact.Notes, update.Notes, now)
	}

	query, args, err := s.builder.Update("contacts").SetMap(values).Where(sq.Eq{"id": contactID}).ToSql()
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("failed to update contact: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit contact update: %w", err)
	}

	s.logger.Debug("Updated contact status",
		zap.String("contact_id", contactID),
		zap.String("status", update.Status))
	return true, nil
}

// FindSchool implements core.ContactLedger
func (s *SQLStore) FindSchool(ctx context.Context, schoolID string) (*core.School, error) {
	query, args, err := s.builder.
		Select("id", "name", "district", "status").
		From("schools").
		Where(sq.Eq{"id": schoolID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var school core.School
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&school.ID, &school.Name, &school.District, &school.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query school: %w", err)
	}
	return &school, nil
}

// HasOutreach implements core.ContactLedger
func (s *SQLStore) HasOutreach(ctx context.Context, email string) (bool, error) {
	query, args, err := s.builder.
		Select("COUNT(*)").
		From("outbound_messages").
		Where(sq.Eq{"recipient": normalizeEmail(email)}).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to query outbound messages: %w", err)
	}
	return count > 0, nil
}

// IsSuppressed implements core.SuppressionRegistry
func (s *SQLStore) IsSuppressed(ctx context.Context, email string) (bool, error) {
	query, args, err := s.builder.
		Select("COUNT(*)").
		From("suppressions").
		Where(sq.Eq{"email": normalizeEmail(email), "active": true}).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to query suppressions: %w", err)
	}
	return count > 0, nil
}

// AddSuppressed implements core.SuppressionRegistry
func (s *SQLStore) AddSuppressed(ctx context.Context, entry core.SuppressionEntry) (core.SuppressionStatus, error) {
	email := normalizeEmail(entry.Email)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := s.builder.Select("COUNT(*)").From("suppressions").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return "", err
	}
	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return "", fmt.Errorf("failed to query suppressions: %w", err)
	}
	if count > 0 {
		return core.SuppressionExists, nil
	}

	addedAt := entry.AddedAt
	if addedAt.IsZero() {
		addedAt = s.now()
	}

	query, args, err = s.builder.
		Insert("suppressions").
		Columns("email", "contact_name", "school_name", "reason", "added_at", "added_by", "active").
		Values(email, entry.ContactName, entry.SchoolName, entry.Reason, formatTime(addedAt), entry.AddedBy, entry.Active).
		ToSql()
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert suppression: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit suppression: %w", err)
	}

	s.logger.Info("Added to do-not-contact list", zap.String("email", email))
	return core.SuppressionAdded, nil
}

// LogActivity implements core.ActivityLog
func (s *SQLStore) LogActivity(ctx context.Context, note core.ActivityNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.OccurredAt.IsZero() {
		note.OccurredAt = s.now()
	}

	query, args, err := s.builder.
		Insert("activities").
		Columns("id", "occurred_at", "activity_type", "contact", "status", "priority", "assigned_to", "notes").
		Values(note.ID, formatTime(note.OccurredAt), note.ActivityType, note.Contact, note.Status, note.Priority, note.AssignedTo, note.Notes).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// RecordSent implements core.OutboundLog
func (s *SQLStore) RecordSent(ctx context.Context, msg *core.SentMessage) error {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = s.now()
	}

	query, args, err := s.builder.
		Insert("outbound_messages").
		Columns("id", "recipient", "subject", "sent_at").
		Values(id, normalizeEmail(msg.To), msg.Subject, formatTime(sentAt)).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record sent message: %w", err)
	}
	return nil
}

// CountSentSince implements core.OutboundLog
func (s *SQLStore) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	query, args, err := s.builder.
		Select("COUNT(*)").
		From("outbound_messages").
		Where(sq.GtOrEq{"sent_at": formatTime(since)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sent messages: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.String("dialect", s.dialect.Name), zap.Error(err))
		return err
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}
