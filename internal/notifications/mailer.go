// Package notifications delivers request lifecycle events to admins and
// requesters. Delivery is best-effort: failures are logged and never
// propagate back into the request path.
package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer delivers mail over a plain SMTP connection.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer creates an SMTP mailer. Returns nil when host or from is
// unset, which disables email delivery.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	if host == "" || from == "" {
		return nil
	}
	if port == 0 {
		port = 587
	}
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if m == nil {
		return nil
	}
	if to == "" {
		return fmt.Errorf("missing recipient address")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String()))
}
