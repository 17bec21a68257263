// Package email sends transactional mail over SMTP.
package email

import (
	"context"

	gomail "gopkg.in/gomail.v2"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
)

// Config holds SMTP settings
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// SMTPMailer sends mail through a single SMTP account
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger logging.Logger
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(config Config, logger logging.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
		logger: logger,
	}
}

// Send delivers a plain-text message
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "email canceled")
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(message); err != nil {
		return errors.NewExternal("failed to send email: " + err.Error())
	}

	m.logger.Debug(ctx, "Email sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})

	return nil
}
