package mailbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"go.uber.org/zap"
)

const dialTimeout = 10 * time.Second

// IMAPSource fetches inbound replies from an IMAP mailbox. Fetching never
// changes flags; MarkProcessed sets \Seen on the messages a batch handled.
type IMAPSource struct {
	cfg    config.IMAPConfig
	now    func() time.Time
	logger *zap.Logger

	mu          sync.Mutex
	uidValidity uint32
	uids        map[string][]uint32
}

// NewIMAPSource creates a new IMAP message source
func NewIMAPSource(cfg config.IMAPConfig, logger *zap.Logger) *IMAPSource {
	return &IMAPSource{
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
		uids:   make(map[string][]uint32),
	}
}

// FetchMessages implements core.MessageSource. It opens one session per
// call and returns the newest max matches, newest first.
func (s *IMAPSource) FetchMessages(ctx context.Context, query string, max int) ([]*core.InboundMessage, error) {
	if max <= 0 {
		return nil, fmt.Errorf("max messages must be positive, got %d", max)
	}
	q, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := c.Logout(); err != nil {
			s.logger.Debug("IMAP logout failed", zap.Error(err))
		}
	}()

	status, err := c.Select(s.cfg.Folder, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select folder %s: %w", s.cfg.Folder, err)
	}

	now := s.now()
	uids, err := c.UidSearch(q.Criteria(now))
	if err != nil {
		return nil, fmt.Errorf("failed to search mailbox: %w", err)
	}
	uids = newest(uids, max)
	if len(uids) == 0 {
		return []*core.InboundMessage{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages, fetched, err := s.fetch(c, uids, q.Cutoff(now))
	if err != nil {
		return nil, err
	}
	s.remember(status.UidValidity, messages, fetched)

	s.logger.Info("Fetched messages",
		zap.String("folder", s.cfg.Folder),
		zap.String("query", query),
		zap.Int("matched", len(uids)),
		zap.Int("returned", len(messages)))
	return messages, nil
}

func (s *IMAPSource) connect() (*client.Client, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}

	var c *client.Client
	var err error
	if s.cfg.TLS {
		c, err = client.DialWithDialerTLS(dialer, s.cfg.Address, nil)
	} else {
		c, err = client.DialWithDialer(dialer, s.cfg.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server %s: %w", s.cfg.Address, err)
	}

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to log in to IMAP server: %w", err)
	}
	return c, nil
}

// fetch returns the parsed messages and the UIDs they came from
func (s *IMAPSource) fetch(c *client.Client, uids []uint32, cutoff time.Time) ([]*core.InboundMessage, []uint32, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid, imap.FetchFlags, imap.FetchInternalDate}

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, ch)
	}()

	var messages []*core.InboundMessage
	var fetched []uint32
	for msg := range ch {
		if !cutoff.IsZero() && msg.InternalDate.Before(cutoff) {
			continue
		}
		inbound, err := s.convert(msg, section)
		if err != nil {
			s.logger.Warn("Skipping unreadable message", zap.Uint32("uid", msg.Uid), zap.Error(err))
			continue
		}
		messages = append(messages, inbound)
		fetched = append(fetched, msg.Uid)
	}
	if err := <-done; err != nil {
		return nil, nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.After(messages[j].ReceivedAt)
	})
	return messages, fetched, nil
}

func (s *IMAPSource) convert(msg *imap.Message, section *imap.BodySectionName) (*core.InboundMessage, error) {
	body := msg.GetBody(section)
	if body == nil {
		return nil, errors.New("server returned no body")
	}

	parsed, err := ParseMessage(body)
	if err != nil {
		return nil, err
	}

	id := parsed.MessageID
	if id == "" {
		id = strconv.FormatUint(uint64(msg.Uid), 10)
	}
	received := msg.InternalDate
	if received.IsZero() {
		received = parsed.Date
	}

	return &core.InboundMessage{
		ID:         id,
		ThreadID:   parsed.ThreadID(),
		Sender:     parsed.From,
		Subject:    parsed.Subject,
		Body:       parsed.Text,
		ReceivedAt: received,
		Labels:     append([]string(nil), msg.Flags...),
	}, nil
}

// remember maps message IDs to the UIDs they were fetched from
func (s *IMAPSource) remember(uidValidity uint32, messages []*core.InboundMessage, uids []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uidValidity != s.uidValidity {
		s.uidValidity = uidValidity
		s.uids = make(map[string][]uint32)
	}
	for i, msg := range messages {
		s.uids[msg.ID] = appendUID(s.uids[msg.ID], uids[i])
	}
}

func appendUID(uids []uint32, uid uint32) []uint32 {
	for _, existing := range uids {
		if existing == uid {
			return uids
		}
	}
	return append(uids, uid)
}

// MarkProcessed implements core.MessageAcknowledger by flagging the given
// messages \Seen. It is a no-op unless mark_seen is enabled. IDs that were
// not returned by an earlier fetch are ignored.
func (s *IMAPSource) MarkProcessed(ctx context.Context, ids []string) error {
	if !s.cfg.MarkSeen || len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	uidValidity := s.uidValidity
	var uids []uint32
	for _, id := range ids {
		uids = append(uids, s.uids[id]...)
	}
	s.mu.Unlock()

	if len(uids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := s.connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Logout(); err != nil {
			s.logger.Debug("IMAP logout failed", zap.Error(err))
		}
	}()

	status, err := c.Select(s.cfg.Folder, false)
	if err != nil {
		return fmt.Errorf("failed to select folder %s: %w", s.cfg.Folder, err)
	}
	if status.UidValidity != uidValidity {
		return fmt.Errorf("folder %s UIDVALIDITY changed from %d to %d", s.cfg.Folder, uidValidity, status.UidValidity)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("failed to mark messages as seen: %w", err)
	}

	s.mu.Lock()
	for _, id := range ids {
		delete(s.uids, id)
	}
	s.mu.Unlock()

	s.logger.Debug("Marked messages as seen", zap.Int("count", len(uids)))
	return nil
}

// newest keeps the max highest UIDs; UIDs grow with arrival order
func newest(uids []uint32, max int) []uint32 {
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if len(uids) > max {
		uids = uids[len(uids)-max:]
	}
	return uids
}
