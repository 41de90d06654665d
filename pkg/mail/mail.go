// Package mail sends transactional email over SMTP. Delivery is best effort;
// callers treat failures as non-fatal and log them.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/agrimandi/agrimandi-backend/pkg/config"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPSender builds a Sender from the SMTP configuration. Auth is skipped
// when no username is configured (local relays, MailHog).
func NewSMTPSender(cfg config.SMTPConfig) Sender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &smtpSender{
		addr: cfg.Addr(),
		from: cfg.From,
		auth: auth,
	}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	msg := "From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// NoopSender discards all messages. Used in tests and local setups without SMTP.
type NoopSender struct{}

func (NoopSender) Send(context.Context, string, string, string) error { return nil }
