package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikey/outreach-reply-engine/internal/adapters/store"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"github.com/mikey/outreach-reply-engine/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errSMTPDown = errors.New("smtp: connection refused")

// Wednesday
var testNow = time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)

var testProfile = core.Profile{
	Organization:   "S&P Smiles Co.",
	Signatory:      "The S&P Smiles Co. Team",
	OperatorEmail:  "ops@spsmiles.co.za",
	ColleagueEmail: "partner@spsmiles.co.za",
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// recordingMailer captures outbound mail. failTo makes sends to the listed
// recipients fail; failAll makes every send fail.
type recordingMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failTo  map[string]bool
	failAll bool
}

func (m *recordingMailer) SendMessage(ctx context.Context, to, subject, body string) (*core.SentMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll || m.failTo[to] {
		return nil, errSMTPDown
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return &core.SentMessage{To: to, Subject: subject, SentAt: testNow}, nil
}

func (m *recordingMailer) to(addr string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []sentMail
	for _, s := range m.sent {
		if s.To == addr {
			out = append(out, s)
		}
	}
	return out
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

type fakeSource struct {
	messages []*core.InboundMessage
	err      error
}

func (s *fakeSource) FetchMessages(ctx context.Context, query string, max int) ([]*core.InboundMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if max > 0 && len(s.messages) > max {
		return s.messages[:max], nil
	}
	return s.messages, nil
}

// brokenLedger fails the lookups the tests choose
type brokenLedger struct {
	*store.MemoryStore
	findErr     error
	outreachErr error
}

func (l *brokenLedger) FindContactByEmail(ctx context.Context, email string) (*core.Contact, error) {
	if l.findErr != nil {
		return nil, l.findErr
	}
	return l.MemoryStore.FindContactByEmail(ctx, email)
}

func (l *brokenLedger) HasOutreach(ctx context.Context, email string) (bool, error) {
	if l.outreachErr != nil {
		return false, l.outreachErr
	}
	return l.MemoryStore.HasOutreach(ctx, email)
}

type harness struct {
	store      *store.MemoryStore
	mailer     *recordingMailer
	quota      *core.SendQuota
	dispatcher *core.Dispatcher
	classifier *core.ReplyClassifier
}

type harnessOptions struct {
	limit     int
	generator core.TextGenerator
	ledger    core.ContactLedger
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	logger := zap.NewNop()
	if opts.limit == 0 {
		opts.limit = 100
	}

	memStore := store.NewMemoryStore(logger)
	memStore.SetClock(func() time.Time { return testNow })

	var ledger core.ContactLedger = memStore
	if opts.ledger != nil {
		ledger = opts.ledger
	}

	mailer := &recordingMailer{failTo: map[string]bool{}}
	clock := func() time.Time { return testNow }
	quota := core.NewSendQuota(opts.limit, clock)
	gated := core.NewGatedMailer(mailer, quota, memStore, logger)

	tp := utils.NewTextProcessor(logger)

	var primary core.ClassificationStrategy
	if opts.generator != nil {
		primary = core.NewAIStrategy(opts.generator, tp, 4000, "test-model")
	}

	dispatcher, err := core.NewDispatcher(core.DispatcherDeps{
		Mailer:       gated,
		Suppressions: memStore,
		Ledger:       ledger,
		Activity:     memStore,
		Composer:     core.NewComposer(opts.generator, tp, testProfile, 4000),
	}, testProfile, 5, clock, logger)
	require.NoError(t, err)

	return &harness{
		store:      memStore,
		mailer:     mailer,
		quota:      quota,
		dispatcher: dispatcher,
		classifier: core.NewReplyClassifier(primary, logger),
	}
}

// seedContact registers a school and contact and records prior outreach
func (h *harness) seedContact(t *testing.T, email, name, school string) string {
	t.Helper()
	ctx := context.Background()

	schoolID, err := h.store.SaveSchool(ctx, core.School{Name: school})
	require.NoError(t, err)
	contactID, err := h.store.SaveContact(ctx, core.Contact{SchoolID: schoolID, Name: name, Email: email})
	require.NoError(t, err)
	require.NoError(t, h.store.RecordSent(ctx, &core.SentMessage{
		To:      email,
		Subject: "Dental Screening Partnership Opportunity for " + school,
		SentAt:  testNow.Add(-48 * time.Hour),
	}))
	return contactID
}

func (h *harness) contactStatus(t *testing.T, email string) string {
	t.Helper()
	contact, err := h.store.FindContactByEmail(context.Background(), email)
	require.NoError(t, err)
	return contact.Status
}

func reply(id, from, subject, body string) *core.InboundMessage {
	return &core.InboundMessage{
		ID:         id,
		ThreadID:   "thread-" + id,
		Sender:     from,
		Subject:    subject,
		Body:       body,
		ReceivedAt: testNow,
	}
}

func classified(intent core.Intent) *core.Classification {
	return &core.Classification{Intent: intent, Confidence: 0.9, Method: core.MethodAI}
}
