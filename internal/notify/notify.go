// Package notify delivers administrative notices raised by the login
// flow (auto-registrations, failed lookups). Delivery is best-effort;
// the login path surfaces send errors but never retries them.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier is the administrative notice sink.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// SMTPNotifier mails notices to the configured admin address.
type SMTPNotifier struct {
	Addr string // host:port
	From string
	To   string
}

func (n *SMTPNotifier) Send(_ context.Context, subject, body string) error {
	host := n.Addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	msg := strings.Join([]string{
		"Message-ID: <" + uuid.NewString() + "@" + host + ">",
		"From: " + n.From,
		"To: " + n.To,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(n.Addr, nil, n.From, []string{n.To}, []byte(msg)); err != nil {
		return fmt.Errorf("notify: send %q: %w", subject, err)
	}
	return nil
}

// LogNotifier writes notices to the structured log. Used when SMTP is
// not configured (dev, offline).
type LogNotifier struct {
	Log zerolog.Logger
}

func (n *LogNotifier) Send(_ context.Context, subject, body string) error {
	n.Log.Info().
		Str("notice_id", uuid.NewString()).
		Str("subject", subject).
		Str("body", body).
		Msg("admin notice")
	return nil
}
