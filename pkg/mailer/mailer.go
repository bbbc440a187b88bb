// Package mailer delivers HTML email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Transport sends one message or fails.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Host   string
	Port   int
	Secure bool
	User   string
	Pass   string
	From   string
}

type SMTPTransport struct {
	client *mail.Client
	from   string
}

func NewSMTP(cfg Config) (*SMTPTransport, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
	}
	if cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPTransport{client: client, from: cfg.From}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(t.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	for _, a := range msg.Attachments {
		var fileOpts []mail.FileOption
		if a.ContentType != "" {
			fileOpts = append(fileOpts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Content), fileOpts...); err != nil {
			return fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogTransport drops messages after logging them. Used when SMTP
// credentials are not configured.
type LogTransport struct {
	Logger *slog.Logger
}

func (t LogTransport) Send(ctx context.Context, msg Message) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "email credentials missing, skipping send",
		"to", msg.To, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return nil
}
