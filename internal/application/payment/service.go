package payment

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"

	"github.com/chakravyuh/backend/internal/application/notification"
	"github.com/chakravyuh/backend/internal/domain/registration"
	"github.com/chakravyuh/backend/internal/domain/shared"
	"github.com/chakravyuh/backend/internal/infrastructure/qr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var nonDigits = regexp.MustCompile(`\D`)

// Service handles payment reconciliation: the gateway path (order +
// signature verification) and the manual path (UPI proof + admin review).
type Service struct {
	repo          registration.Repository
	gateway       registration.PaymentGateway
	qrGenerator   qr.Generator
	dispatcher    *notification.Dispatcher
	gatewayKeyID  string
	publicBaseURL string
	logger        *zap.Logger
}

// NewService creates a payment service
func NewService(
	repo registration.Repository,
	gateway registration.PaymentGateway,
	qrGenerator qr.Generator,
	dispatcher *notification.Dispatcher,
	gatewayKeyID string,
	publicBaseURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:          repo,
		gateway:       gateway,
		qrGenerator:   qrGenerator,
		dispatcher:    dispatcher,
		gatewayKeyID:  gatewayKeyID,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

func (s *Service) findByKey(ctx context.Context, key string) (*registration.Registration, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, shared.NewDomainError("VALIDATION", "Invalid registration id")
	}
	if id, err := uuid.Parse(key); err == nil {
		if reg, err := s.repo.FindByID(ctx, id); err == nil {
			return reg, nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	reg, err := s.repo.FindByRegistrationID(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Registration not found")
		}
		return nil, err
	}
	return reg, nil
}

// qrPassURL is the payload encoded into every entry pass: the public scan
// page for the registration.
func (s *Service) qrPassURL(registrationID string) string {
	return s.publicBaseURL + "/api/v1/registrations/qr/" + registrationID
}

// CreateOrder creates a gateway order for an unpaid registration and stores
// the order id on the aggregate.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderResult, error) {
	reg, err := s.findByKey(ctx, input.RegistrationKey)
	if err != nil {
		return nil, err
	}
	// Orders are billable at the provider; never create one for a
	// registration that cannot accept it.
	if err := reg.AwaitingPayment(); err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, reg.Payment.Amount, reg.Payment.Currency, reg.RegistrationID)
	if err != nil {
		return nil, err
	}

	if err := reg.AttachGatewayOrder(order.OrderID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, err
	}

	s.logger.Info("gateway order created",
		zap.String("registration_id", reg.RegistrationID),
		zap.String("order_id", order.OrderID),
	)

	return &OrderResult{
		OrderID:        order.OrderID,
		Amount:         reg.Payment.Amount.StringFixed(2),
		Currency:       reg.Payment.Currency,
		RegistrationID: reg.RegistrationID,
		KeyID:          s.gatewayKeyID,
	}, nil
}

// VerifyPayment validates the checkout callback signature and, when genuine,
// confirms the registration and queues the pass email. A bad signature is a
// validation failure and must not transition any state.
func (s *Service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*registration.Registration, error) {
	if input.OrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, shared.NewDomainError("VALIDATION", "Missing payment verification fields")
	}

	if !s.gateway.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
		s.logger.Warn("payment signature verification failed",
			zap.String("order_id", input.OrderID),
			zap.String("payment_id", input.PaymentID),
		)
		return nil, shared.NewDomainError("VALIDATION", "Payment verification failed")
	}

	reg, err := s.repo.FindByOrderID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Registration not found")
		}
		return nil, err
	}

	qrCode, err := s.qrGenerator.Generate(s.qrPassURL(reg.RegistrationID))
	if err != nil {
		return nil, err
	}

	if err := reg.ConfirmGatewayPayment(input.PaymentID, qrCode); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, err
	}

	queued := s.dispatcher.DispatchPaymentConfirmed(reg, decodeDataURI(qrCode))
	s.logger.Info("gateway payment confirmed",
		zap.String("registration_id", reg.RegistrationID),
		zap.String("payment_id", input.PaymentID),
		zap.Int("emails_queued", queued),
	)

	return reg, nil
}

// SubmitProof records a manual UPI payment proof and moves the registration
// under review. Re-submission against a confirmed registration is an
// idempotent success.
func (s *Service) SubmitProof(ctx context.Context, input SubmitProofInput) (alreadyConfirmed bool, err error) {
	utr := nonDigits.ReplaceAllString(input.UTRNumber, "")
	if len(utr) != 12 {
		return false, shared.NewDomainError("VALIDATION", "UTR must be 12 digits")
	}
	if len(input.Screenshot.Data) == 0 || input.Screenshot.ContentType == "" {
		return false, shared.NewDomainError("VALIDATION", "Payment screenshot required")
	}

	reg, err := s.findByKey(ctx, input.RegistrationKey)
	if err != nil {
		return false, err
	}

	err = reg.AttachManualProof(utr, registration.Attachment{
		FileName:    input.Screenshot.FileName,
		ContentType: input.Screenshot.ContentType,
		Data:        input.Screenshot.Data,
	})
	if errors.Is(err, registration.ErrAlreadyConfirmed) {
		// Client retries after confirmation must not look like failures.
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.repo.Update(ctx, reg); err != nil {
		return false, err
	}

	s.logger.Info("manual payment proof submitted",
		zap.String("registration_id", reg.RegistrationID),
	)
	return false, nil
}

// FinalApprove is the admin transition from under_review to confirmed:
// generates the pass, captures the payment and queues the confirmation
// email to every recipient.
func (s *Service) FinalApprove(ctx context.Context, key string) (*ApproveResult, error) {
	reg, err := s.findByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	qrCode, err := s.qrGenerator.Generate(s.qrPassURL(reg.RegistrationID))
	if err != nil {
		return nil, err
	}
	// The transition rule lives in the aggregate; Approve rejects anything
	// not under review.
	if err := reg.Approve(qrCode); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, err
	}

	queued := s.dispatcher.DispatchPaymentConfirmed(reg, decodeDataURI(qrCode))
	s.logger.Info("payment approved",
		zap.String("registration_id", reg.RegistrationID),
		zap.Int("emails_queued", queued),
	)

	return &ApproveResult{
		RegistrationID:  reg.RegistrationID,
		Status:          string(reg.Status),
		QRCode:          qrCode,
		EmailQueued:     queued > 0,
		EmailRecipients: queued,
	}, nil
}

// Reject sends an under-review registration back to pending_payment so the
// registrant can submit a corrected proof.
func (s *Service) Reject(ctx context.Context, key string) (*registration.Registration, error) {
	reg, err := s.findByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := reg.RejectProof(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, err
	}

	s.logger.Info("payment proof rejected",
		zap.String("registration_id", reg.RegistrationID),
	)
	return reg, nil
}

// decodeDataURI extracts the raw PNG bytes from a base64 data URI for inline
// email embedding. Returns nil when the payload cannot be decoded; the email
// then goes out without the inline image rather than not at all.
func decodeDataURI(uri string) []byte {
	_, b64, found := strings.Cut(uri, "base64,")
	if !found {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil
	}
	return raw
}
