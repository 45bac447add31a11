package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chakravyuh/backend/internal/application/notification"
	"github.com/chakravyuh/backend/internal/infrastructure/config"
	gomail "gopkg.in/gomail.v2"
)

// SMTPMailer implements notification.Sender over SMTP.
type SMTPMailer struct {
	cfg config.EmailConfig
}

// NewSMTPMailer creates a mailer with the given SMTP settings
func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

var _ notification.Sender = (*SMTPMailer)(nil)

// IsConfigured reports whether real credentials are present. Placeholder
// values left over from a template config count as unconfigured so local
// setups run without spamming errors.
func (m *SMTPMailer) IsConfigured() bool {
	if m.cfg.Host == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return false
	}
	for _, v := range []string{m.cfg.Username, m.cfg.Password} {
		lower := strings.ToLower(v)
		if strings.Contains(lower, "your-email") ||
			strings.Contains(lower, "your-password") ||
			strings.Contains(lower, "changeme") {
			return false
		}
	}
	return true
}

// Send renders the named template and delivers one message. The dial and
// send are synchronous; callers run this off the request path.
func (m *SMTPMailer) Send(ctx context.Context, email notification.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := renderTemplate(email.TemplateName, email.Context)
	if err != nil {
		return fmt.Errorf("failed to render email template %q: %w", email.TemplateName, err)
	}

	msg := gomail.NewMessage()
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	msg.SetHeader("From", from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", body)

	for cid, data := range email.InlineImages {
		payload := data
		msg.Embed(cid,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(payload))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {"image/png"}}),
		)
	}

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	errCh := make(chan error, 1)
	go func() { errCh <- dialer.DialAndSend(msg) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
