package factory

import (
	"errors"

	"github.com/mikey/outreach-reply-engine/internal/adapters/mailbox"
	"github.com/mikey/outreach-reply-engine/internal/config"
	"github.com/mikey/outreach-reply-engine/internal/core"
	"go.uber.org/zap"
)

// MailboxFactory creates the inbound source and the outbound mailer
type MailboxFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, logger *zap.Logger) *MailboxFactory {
	return &MailboxFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSource creates the IMAP message source
func (f *MailboxFactory) CreateSource() (core.MessageSource, error) {
	imapCfg := f.cfg.GetIMAP()
	if imapCfg.Address == "" {
		return nil, errors.New("mailbox.imap.address is required")
	}
	if imapCfg.Username == "" {
		return nil, errors.New("mailbox.imap.username is required")
	}
	return mailbox.NewIMAPSource(imapCfg, f.logger), nil
}

// CreateMailer creates the SMTP mailer, or a logging mailer in dry-run mode.
// The result is not rate limited; wrap it in a core.GatedMailer.
func (f *MailboxFactory) CreateMailer() (core.Mailer, error) {
	smtpCfg, err := f.cfg.GetSMTP()
	if err != nil {
		return nil, err
	}

	if smtpCfg.DryRun {
		f.logger.Warn("SMTP dry run enabled, outbound mail is only logged")
		return mailbox.NewLogMailer(f.logger), nil
	}

	if smtpCfg.Address == "" {
		return nil, errors.New("mailbox.smtp.address is required")
	}
	if smtpCfg.From == "" {
		return nil, errors.New("mailbox.smtp.from is required")
	}
	return mailbox.NewSMTPMailer(smtpCfg, f.logger), nil
}
