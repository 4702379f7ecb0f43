// Package notify sends notification mail to organization members.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a plain-text message to a set of recipients.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// SMTPMailer sends mail through a standard SMTP relay with PLAIN auth.
type SMTPMailer struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Send delivers one message to all recipients.
func (m *SMTPMailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.From, strings.Join(to, ", "), subject, body)
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	addr := m.Host + ":" + m.Port
	if err := smtp.SendMail(addr, auth, m.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer is a no-op Mailer used when SMTP is not configured; the
// caller logs the skipped delivery.
type LogMailer struct{}

func (LogMailer) Send([]string, string, string) error { return nil }
