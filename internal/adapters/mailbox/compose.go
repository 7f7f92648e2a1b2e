package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

// Parsed is the subset of an RFC 5322 message the engine works with
type Parsed struct {
	MessageID  string
	InReplyTo  string
	References []string
	From       string
	Subject    string
	Text       string
	Date       time.Time
}

// ParseMessage reads a raw RFC 5322 message. HTML-only messages are
// converted to plain text.
func ParseMessage(r io.Reader) (*Parsed, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	parsed := &Parsed{
		MessageID: trimAngles(env.GetHeader("Message-ID")),
		InReplyTo: trimAngles(env.GetHeader("In-Reply-To")),
		From:      env.GetHeader("From"),
		Subject:   env.GetHeader("Subject"),
		Text:      env.Text,
	}
	for _, ref := range strings.Fields(env.GetHeader("References")) {
		parsed.References = append(parsed.References, trimAngles(ref))
	}
	if date, err := env.Date(); err == nil {
		parsed.Date = date
	}
	return parsed, nil
}

// ThreadID returns the Message-ID of the first message in the conversation
func (p *Parsed) ThreadID() string {
	if len(p.References) > 0 {
		return p.References[0]
	}
	if p.InReplyTo != "" {
		return p.InReplyTo
	}
	return p.MessageID
}

// BuildMessage renders a plain-text message ready for SMTP DATA
func BuildMessage(from, to, subject, body, messageID string, date time.Time) ([]byte, error) {
	sender, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	recipient, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	part, err := enmime.Builder().
		From(sender.Name, sender.Address).
		To(recipient.Name, recipient.Address).
		Subject(subject).
		Date(date).
		Header("Message-ID", "<"+messageID+">").
		Text([]byte(body)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return buf.Bytes(), nil
}

// messageIDDomain picks the right-hand side of generated Message-IDs
func messageIDDomain(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		if _, domain, ok := strings.Cut(addr.Address, "@"); ok {
			return domain
		}
	}
	return "localhost"
}

func trimAngles(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "<"), ">")
}
