package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// ErrNotConfigured is returned when SMTP host or sender are missing.
var ErrNotConfigured = errors.New("smtp not configured (SMTP_HOST/SMTP_FROM)")

// Config holds SMTP delivery settings.
type Config struct {
	Host          string
	Port          int
	User          string
	Password      string
	From          string
	SkipTLSVerify bool
}

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPMailer sends HTML mail through a STARTTLS relay.
type SMTPMailer struct {
	from   string
	dialer sender
}

// New builds a mailer. Port 587 is assumed when unset.
func New(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify, //nolint:gosec
	}
	return &SMTPMailer{from: cfg.From, dialer: d}, nil
}

// Send delivers one message. An empty recipient list is a no-op.
func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
