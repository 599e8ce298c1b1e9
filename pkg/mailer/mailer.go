package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// Mailer sends guest-facing transactional email
type Mailer interface {
	Send(to, subject, body string) error
	GetName() string
}

// SMTPConfig holds configuration for the SMTP mailer
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer implements email sending over plain SMTP with AUTH
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPMailer creates a new SMTP mailer client
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", config.Host, config.Port),
		auth: auth,
		from: config.From,
	}
}

// Send delivers a plain-text message. Transient SMTP failures get one
// retry before the error is returned to the caller.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := m.buildMessage(to, subject, body)

	err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg)
	if err == nil {
		return nil
	}

	time.Sleep(2 * time.Second)
	if retryErr := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg); retryErr != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, retryErr)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// GetName returns the name of this mail gateway
func (m *SMTPMailer) GetName() string {
	return "SMTP Mailer"
}
