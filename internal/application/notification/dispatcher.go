package notification

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chakravyuh/backend/internal/domain/registration"
	"go.uber.org/zap"
)

// Email is one outbound message to a single recipient.
type Email struct {
	To           string
	Subject      string
	TemplateName string
	Context      map[string]any
	// InlineImages maps Content-IDs to PNG payloads embedded in the body.
	InlineImages map[string][]byte
}

// Sender delivers a single email. Implementations report whether they are
// configured at all so the dispatcher can skip work instead of erroring on
// every send.
type Sender interface {
	Send(ctx context.Context, email Email) error
	IsConfigured() bool
}

// Links holds the externally visible base URLs embedded in outgoing emails.
// Empty fields simply omit the corresponding link from the message.
type Links struct {
	FrontendURL   string
	PublicBaseURL string
}

// Dispatcher fans registration emails out to every recipient on the
// registration. Delivery is best effort: sends run on detached goroutines,
// failures are logged and never propagate to the request that queued them.
type Dispatcher struct {
	sender Sender
	links  Links
	logger *zap.Logger

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given sender
func NewDispatcher(sender Sender, links Links, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, links: links, logger: logger}
}

// DispatchRegistrationReceived queues the acknowledgement email sent right
// after a registration is created. Returns the number of queued sends.
func (d *Dispatcher) DispatchRegistrationReceived(reg *registration.Registration) int {
	return d.dispatch(reg, "registration-received", "Registration Received - "+reg.Event, nil)
}

// DispatchPaymentConfirmed queues the confirmation email carrying the QR
// pass, sent when a registration reaches the confirmed state. Returns the
// number of queued sends.
func (d *Dispatcher) DispatchPaymentConfirmed(reg *registration.Registration, qrPNG []byte) int {
	var images map[string][]byte
	if len(qrPNG) > 0 {
		images = map[string][]byte{"qrcode.png": qrPNG}
	}
	return d.dispatch(reg, "payment-confirmed", "Payment Confirmed - "+reg.Event, images)
}

func (d *Dispatcher) dispatch(reg *registration.Registration, template, subject string, images map[string][]byte) int {
	if !d.sender.IsConfigured() {
		d.logger.Warn("email sender not configured, skipping notification",
			zap.String("template", template),
			zap.String("registration_id", reg.RegistrationID),
		)
		return 0
	}

	recipients := reg.Recipients()
	emailCtx := map[string]any{
		"Name":           reg.DisplayName(),
		"FullName":       reg.FullName,
		"Event":          reg.Event,
		"RegistrationID": reg.RegistrationID,
		"Amount":         reg.Payment.Amount.StringFixed(2),
		"Currency":       reg.Payment.Currency,
		"IsTeam":         reg.IsTeam,
		"TeamName":       reg.TeamName,
		"Status":         string(reg.Status),
	}
	if d.links.FrontendURL != "" {
		emailCtx["PaymentLink"] = strings.TrimRight(d.links.FrontendURL, "/") + "/payment/" + reg.RegistrationID
	}
	if d.links.PublicBaseURL != "" {
		emailCtx["PassURL"] = strings.TrimRight(d.links.PublicBaseURL, "/") + "/api/v1/registrations/qr/" + reg.RegistrationID
	}

	for _, to := range recipients {
		email := Email{
			To:           to,
			Subject:      subject,
			TemplateName: template,
			Context:      emailCtx,
			InlineImages: images,
		}
		d.wg.Add(1)
		// Sends outlive the originating HTTP request, so they carry
		// context.Background() rather than the request context.
		go func(e Email) {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := d.sender.Send(ctx, e); err != nil {
				d.logger.Error("failed to send notification email",
					zap.String("to", e.To),
					zap.String("template", e.TemplateName),
					zap.Error(err),
				)
			}
		}(email)
	}

	return len(recipients)
}

// Close waits for in-flight sends to finish, bounded by ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
