package notify

import (
	"context"
	"fmt"

	"gopkg.in/mail.v2"

	"github.com/jonwraymond/healthwatch/alert"
)

// Dialer is satisfied by *mail.Dialer.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// MailConfig configures a Mail channel.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Mail sends alerts as plain-text email.
type Mail struct {
	from   string
	to     []string
	dialer Dialer
}

// NewMail creates a mail channel that dials the configured SMTP server.
func NewMail(config MailConfig) *Mail {
	if config.Port == 0 {
		config.Port = 587
	}
	return newMail(config.From, config.To, mail.NewDialer(config.Host, config.Port, config.Username, config.Password))
}

func newMail(from string, to []string, dialer Dialer) *Mail {
	return &Mail{from: from, to: append([]string(nil), to...), dialer: dialer}
}

// Send mails a. SMTP dialing does not take a context; Send returns early
// only if ctx is already done.
func (m *Mail) Send(ctx context.Context, a alert.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", Subject(a))
	msg.SetBody("text/plain", Body(a))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("notify: mail: %w", err)
	}
	return nil
}
