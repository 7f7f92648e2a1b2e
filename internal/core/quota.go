package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SendQuota enforces a per-calendar-day cap on outbound messages
type SendQuota struct {
	mu    sync.Mutex
	limit int
	sent  int
	day   string
	now   func() time.Time
}

// NewSendQuota creates a quota with the given daily limit. A nil clock
// defaults to time.Now.
func NewSendQuota(limit int, now func() time.Time) *SendQuota {
	if now == nil {
		now = time.Now
	}
	return &SendQuota{
		limit: limit,
		now:   now,
		day:   now().Format(time.DateOnly),
	}
}

// rollover resets the counter when the calendar day changed. Callers hold mu.
func (q *SendQuota) rollover() {
	today := q.now().Format(time.DateOnly)
	if today != q.day {
		q.day = today
		q.sent = 0
	}
}

// Check returns ErrRateLimitExceeded when no sends remain today
func (q *SendQuota) Check() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.sent >= q.limit {
		return ErrRateLimitExceeded
	}
	return nil
}

// Record counts one successful send
func (q *SendQuota) Record() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	q.sent++
}

// Seed sets today's count, typically from the outbound log at start-up
func (q *SendQuota) Seed(sent int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	q.sent = sent
}

// Remaining returns the number of sends left today
func (q *SendQuota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.sent >= q.limit {
		return 0
	}
	return q.limit - q.sent
}

// StartOfDay returns midnight of the quota clock's current day
func (q *SendQuota) StartOfDay() time.Time {
	now := q.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// GatedMailer is a Mailer that consults the send quota before every send and
// records successful sends in the outbound log
type GatedMailer struct {
	next     Mailer
	quota    *SendQuota
	outbound OutboundLog
	logger   *zap.Logger
}

// NewGatedMailer wraps next with quota enforcement. outbound may be nil.
func NewGatedMailer(next Mailer, quota *SendQuota, outbound OutboundLog, logger *zap.Logger) *GatedMailer {
	return &GatedMailer{
		next:     next,
		quota:    quota,
		outbound: outbound,
		logger:   logger,
	}
}

// SendMessage sends through the wrapped mailer if the quota allows it
func (m *GatedMailer) SendMessage(ctx context.Context, to, subject, body string) (*SentMessage, error) {
	if err := m.quota.Check(); err != nil {
		m.logger.Warn("Daily email limit reached, not sending",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil, err
	}

	sent, err := m.next.SendMessage(ctx, to, subject, body)
	if err != nil {
		return nil, err
	}
	m.quota.Record()

	if m.outbound != nil {
		if err := m.outbound.RecordSent(ctx, sent); err != nil {
			m.logger.Error("Failed to record sent message",
				zap.String("to", to),
				zap.Error(err))
		}
	}

	m.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("remaining_today", m.quota.Remaining()))

	return sent, nil
}

// SeedQuota loads today's send count from the outbound log into the quota
func SeedQuota(ctx context.Context, quota *SendQuota, outbound OutboundLog) error {
	count, err := outbound.CountSentSince(ctx, quota.StartOfDay())
	if err != nil {
		return err
	}
	quota.Seed(count)
	return nil
}
