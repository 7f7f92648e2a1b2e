package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"os"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"go.uber.org/zap"
)

// SMTPMailer sends outbound messages through an SMTP relay
type SMTPMailer struct {
	cfg    config.SMTPConfig
	now    func() time.Time
	logger *zap.Logger

	// tlsConfig is the base for STARTTLS; ServerName is filled from the address
	tlsConfig *tls.Config
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// SendMessage implements core.Mailer
func (m *SMTPMailer) SendMessage(ctx context.Context, to, subject, body string) (*core.SentMessage, error) {
	sentAt := m.now().UTC()
	id := uuid.NewString()

	data, err := BuildMessage(m.cfg.From, to, subject, body, id+"@"+messageIDDomain(m.cfg.From), sentAt)
	if err != nil {
		return nil, err
	}
	sender, _ := mail.ParseAddress(m.cfg.From)
	recipient, _ := mail.ParseAddress(to)

	if err := m.deliver(ctx, sender.Address, recipient.Address, data); err != nil {
		return nil, err
	}

	m.logger.Info("Sent message",
		zap.String("id", id),
		zap.String("to", recipient.Address),
		zap.String("subject", subject))

	return &core.SentMessage{
		ID:      id,
		To:      recipient.Address,
		Subject: subject,
		SentAt:  sentAt,
	}, nil
}

func (m *SMTPMailer) deliver(ctx context.Context, from, to string, data []byte) error {
	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	var deadline time.Time
	if m.cfg.Timeout > 0 {
		deadline = time.Now().Add(m.cfg.Timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	var c *smtp.Client
	if m.cfg.StartTLS {
		// NewClientStartTLS closes the connection on failure
		c, err = smtp.NewClientStartTLS(conn, m.startTLSConfig())
		if err != nil {
			return fmt.Errorf("STARTTLS with %s failed: %w", m.cfg.Address, err)
		}
	} else {
		c = smtp.NewClient(conn)
	}
	defer c.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if m.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := c.Rcpt(to, nil); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message was accepted by DATA already
		m.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

func (m *SMTPMailer) startTLSConfig() *tls.Config {
	cfg := &tls.Config{}
	if m.tlsConfig != nil {
		cfg = m.tlsConfig.Clone()
	}
	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(m.cfg.Address)
		if err != nil {
			host = m.cfg.Address
		}
		cfg.ServerName = host
	}
	return cfg
}

// LogMailer records outbound messages in the log instead of sending them
type LogMailer struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewLogMailer creates a dry-run mailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{now: time.Now, logger: logger}
}

// SendMessage implements core.Mailer
func (m *LogMailer) SendMessage(ctx context.Context, to, subject, body string) (*core.SentMessage, error) {
	if _, err := mail.ParseAddress(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	sent := &core.SentMessage{
		ID:      uuid.NewString(),
		To:      to,
		Subject: subject,
		SentAt:  m.now().UTC(),
	}
	m.logger.Info("Dry run: message not sent",
		zap.String("id", sent.ID),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)))
	return sent, nil
}
