package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startIMAPServer runs an in-memory IMAP server. The memory backend has a
// single user "username" with password "password".
func startIMAPServer(t *testing.T) string {
	t.Helper()

	s := server.New(memory.New())
	s.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = s.Serve(listener)
	}()
	t.Cleanup(func() { _ = s.Close() })

	return listener.Addr().String()
}

func appendReply(t *testing.T, addr, from, subject, body string, received time.Time, flags ...string) {
	t.Helper()

	c, err := client.Dial(addr)
	require.NoError(t, err)
	defer c.Logout()
	require.NoError(t, c.Login("username", "password"))

	raw := fmt.Sprintf("From: %s\r\nTo: outreach@spsmiles.co.za\r\nSubject: %s\r\n"+
		"Date: %s\r\nMessage-ID: <%d@school.example>\r\nContent-Type: text/plain\r\n\r\n%s\r\n",
		from, subject, received.Format(time.RFC1123Z), received.UnixNano(), body)
	require.NoError(t, c.Append("INBOX", flags, received, bytes.NewBufferString(raw)))
}

func newTestSource(addr string, markSeen bool) *IMAPSource {
	return NewIMAPSource(config.IMAPConfig{
		Address:  addr,
		Username: "username",
		Password: "password",
		Folder:   "INBOX",
		MarkSeen: markSeen,
	}, zap.NewNop())
}

func TestIMAPSourceFetchesNewestMatches(t *testing.T) {
	addr := startIMAPServer(t)
	now := time.Now()

	appendReply(t, addr, "Jane <jane@greenfield.edu>", "Re: Partnership", "first", now.Add(-3*time.Hour))
	appendReply(t, addr, "Tom <tom@hillside.edu>", "Re: Partnership", "second", now.Add(-2*time.Hour))
	appendReply(t, addr, "Ann <ann@lakeview.edu>", "Re: Partnership", "third", now.Add(-time.Hour))
	appendReply(t, addr, "Old <old@lakeview.edu>", "Re: Partnership", "already read", now.Add(-time.Hour), imap.SeenFlag)

	source := newTestSource(addr, false)
	messages, err := source.FetchMessages(context.Background(), "is:unread subject:Partnership", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "Ann <ann@lakeview.edu>", messages[0].Sender)
	assert.Equal(t, "Tom <tom@hillside.edu>", messages[1].Sender)
	assert.Equal(t, "Re: Partnership", messages[0].Subject)
	assert.Contains(t, messages[0].Body, "third")
	assert.NotEmpty(t, messages[0].ID)
	assert.Equal(t, messages[0].ID, messages[0].ThreadID)

	// Without mark_seen the messages stay unread
	again, err := source.FetchMessages(context.Background(), "is:unread subject:Partnership", 10)
	require.NoError(t, err)
	assert.Len(t, again, 3)
}

func TestIMAPSourceMarkProcessed(t *testing.T) {
	addr := startIMAPServer(t)
	appendReply(t, addr, "Jane <jane@greenfield.edu>", "Re: Partnership", "yes please", time.Now())
	appendReply(t, addr, "Tom <tom@hillside.edu>", "Re: Partnership", "maybe", time.Now().Add(time.Minute))

	source := newTestSource(addr, true)
	messages, err := source.FetchMessages(context.Background(), "is:unread subject:Partnership", 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// Fetching alone leaves messages unread
	again, err := source.FetchMessages(context.Background(), "is:unread subject:Partnership", 10)
	require.NoError(t, err)
	require.Len(t, again, 2)

	require.NoError(t, source.MarkProcessed(context.Background(), []string{messages[0].ID, "<unknown@school.example>"}))

	remaining, err := source.FetchMessages(context.Background(), "is:unread subject:Partnership", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, messages[1].ID, remaining[0].ID)
}

func TestIMAPSourceMarkProcessedDisabled(t *testing.T) {
	addr := startIMAPServer(t)
	appendReply(t, addr, "Jane <jane@greenfield.edu>", "Re: Partnership", "yes please", time.Now())

	source := newTestSource(addr, false)
	messages, err := source.FetchMessages(context.Background(), "is:unread", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	require.NoError(t, source.MarkProcessed(context.Background(), []string{messages[0].ID}))

	again, err := source.FetchMessages(context.Background(), "is:unread", 10)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestIMAPSourceAppliesExactAge(t *testing.T) {
	addr := startIMAPServer(t)
	now := time.Now()
	appendReply(t, addr, "Jane <jane@greenfield.edu>", "Re: Partnership", "recent", now.Add(-3*time.Hour))
	appendReply(t, addr, "Tom <tom@hillside.edu>", "Re: Partnership", "stale", now.Add(-30*time.Hour))

	messages, err := newTestSource(addr, false).FetchMessages(context.Background(), "subject:Partnership newer_than:12h", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Body, "recent")
}

func TestIMAPSourceErrors(t *testing.T) {
	t.Run("bad query", func(t *testing.T) {
		_, err := newTestSource("127.0.0.1:1", false).FetchMessages(context.Background(), "label:work", 10)
		assert.Error(t, err)
	})

	t.Run("unreachable server", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := listener.Addr().String()
		require.NoError(t, listener.Close())

		_, err = newTestSource(addr, false).FetchMessages(context.Background(), "is:unread", 10)
		assert.Error(t, err)
	})

	t.Run("bad credentials", func(t *testing.T) {
		source := newTestSource(startIMAPServer(t), false)
		source.cfg.Password = "wrong"
		_, err := source.FetchMessages(context.Background(), "is:unread", 10)
		assert.Error(t, err)
	})

	t.Run("non-positive max", func(t *testing.T) {
		_, err := newTestSource("127.0.0.1:1", false).FetchMessages(context.Background(), "is:unread", 0)
		assert.EqualError(t, err, "max messages must be positive, got 0")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestSource("127.0.0.1:1", false).FetchMessages(ctx, "is:unread", 10)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewest(t *testing.T) {
	assert.Equal(t, []uint32{7, 9}, newest([]uint32{9, 3, 7}, 2))
	assert.Equal(t, []uint32{3, 7, 9}, newest([]uint32{9, 3, 7}, 5))
}
