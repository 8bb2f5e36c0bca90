package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/Nathan-Yinka/Project-management-application/pkg/config"
)

// Mailer delivers plain-text notification mail.
type Mailer interface {
	Send(to []string, subject, body string) error
}

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: cfg.Addr(),
		auth: auth,
		from: cfg.From,
	}
}

func (m *SMTPMailer) Send(to []string, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %v: %w", to, err)
	}
	return nil
}

// LogMailer writes mail to the log instead of the network. Used in
// development when no SMTP server is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) Send(to []string, subject, body string) error {
	m.Logger.Info("mail", "to", to, "subject", subject, "body", body)
	return nil
}
