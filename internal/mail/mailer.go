// AngelaMos | 2026
// mailer.go

package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/carterperez-dev/minicms/internal/config"
)

// ErrNotConfigured is returned before any dial when SMTP credentials are
// missing.
var ErrNotConfigured = errors.New("smtp transport is not configured")

type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type Mailer struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg config.MailConfig) *Mailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.InsecureSkipVerify {
		//nolint:gosec // G402: opt-in for relays with self-signed certificates
		dialer.TLSConfig = &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: true,
		}
	}

	return &Mailer{cfg: cfg, dialer: dialer}
}

func (m *Mailer) Configured() bool {
	return m.cfg.Configured()
}

// Send delivers one message and returns the Message-ID it was sent with.
func (m *Mailer) Send(ctx context.Context, msg Message) (string, error) {
	if !m.Configured() {
		return "", ErrNotConfigured
	}

	if msg.To == "" {
		return "", fmt.Errorf("send mail: no recipient specified")
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}

	messageID := m.newMessageID()

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from())
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetHeader("Message-ID", messageID)

	if msg.HTMLBody != "" {
		gm.SetBody("text/html", msg.HTMLBody)
		if msg.TextBody != "" {
			gm.AddAlternative("text/plain", msg.TextBody)
		}
	} else {
		gm.SetBody("text/plain", msg.TextBody)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}

	return messageID, nil
}

// Ping opens and closes one SMTP session.
func (m *Mailer) Ping(_ context.Context) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	sc, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	return sc.Close()
}

func (m *Mailer) from() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return m.cfg.Username
}

func (m *Mailer) newMessageID() string {
	domain := m.cfg.Host
	if at := strings.LastIndex(m.from(), "@"); at >= 0 {
		domain = m.from()[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

var _ Sender = (*Mailer)(nil)
