package registration

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/chakravyuh/backend/internal/application/notification"
	"github.com/chakravyuh/backend/internal/domain/registration"
	"github.com/chakravyuh/backend/internal/domain/shared"
	"github.com/chakravyuh/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// Service handles registration intake and retrieval.
type Service struct {
	repo       registration.Repository
	dispatcher *notification.Dispatcher
	payment    config.PaymentConfig
	logger     *zap.Logger
}

// NewService creates a registration service
func NewService(repo registration.Repository, dispatcher *notification.Dispatcher, payment config.PaymentConfig, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		payment:    payment,
		logger:     logger,
	}
}

func validationErr(message string) error {
	return shared.NewDomainError("VALIDATION", message)
}

// Create validates the input, applies the fee policy and persists a new
// registration in the pending_payment state. An acknowledgement email is
// queued best effort; its failure never fails the registration.
func (s *Service) Create(ctx context.Context, input CreateRegistrationInput) (*registration.Registration, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.College = strings.TrimSpace(input.College)
	input.Event = strings.TrimSpace(input.Event)
	input.IEEEID = strings.TrimSpace(input.IEEEID)
	input.TeamName = strings.TrimSpace(input.TeamName)

	if input.FullName == "" || input.Email == "" || input.Phone == "" || input.College == "" || input.Event == "" {
		return nil, validationErr("All required fields must be filled")
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, validationErr("Please provide a valid email address")
	}
	if !phonePattern.MatchString(input.Phone) {
		return nil, validationErr("Please provide a valid 10-digit Indian phone number")
	}

	membership := registration.MembershipStatus(strings.ToLower(strings.TrimSpace(input.IEEEMember)))
	if membership == "" {
		membership = registration.MemberNo
	}
	if !membership.IsValid() {
		return nil, validationErr("IEEE Member must be yes or no")
	}

	var certificate registration.Attachment
	if membership == registration.MemberYes {
		if input.IEEEID == "" {
			return nil, validationErr("IEEE ID is required for IEEE members")
		}
		if !input.Certificate.IsPresent() {
			return nil, validationErr("IEEE Membership Certificate is required for IEEE members")
		}
		certificate = registration.Attachment{
			FileName:    input.Certificate.FileName,
			ContentType: input.Certificate.ContentType,
			Data:        input.Certificate.Data,
		}
	}

	var members []registration.TeamMember
	if input.IsTeam {
		if input.TeamName == "" || len(input.TeamMembers) < 1 {
			return nil, validationErr("Team name and at least 1 team member is required")
		}
		members = make([]registration.TeamMember, 0, len(input.TeamMembers))
		for _, m := range input.TeamMembers {
			name := strings.TrimSpace(m.Name)
			email := strings.ToLower(strings.TrimSpace(m.Email))
			phone := strings.TrimSpace(m.Phone)
			if name == "" || email == "" || phone == "" {
				return nil, validationErr("Each team member must have name, email, and phone")
			}
			if !emailPattern.MatchString(email) {
				return nil, validationErr(fmt.Sprintf("Invalid email format for team member: %s", name))
			}
			members = append(members, registration.TeamMember{Name: name, Email: email, Phone: phone})
		}
	}

	// The (email, event) unique index is the backstop; the pre-check gives
	// a clean message without racing concurrent submissions.
	if _, err := s.repo.FindByEmailAndEvent(ctx, input.Email, input.Event); err == nil {
		return nil, shared.NewDomainError("CONFLICT", "You have already registered for this event")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	standard := decimal.NewFromInt(s.payment.StandardAmount)
	amount := standard
	if membership == registration.MemberYes {
		amount = decimal.NewFromInt(s.payment.MemberAmount)
	}

	reg := registration.NewRegistration(registration.NewRegistrationParams{
		FullName:    input.FullName,
		Email:       input.Email,
		Phone:       input.Phone,
		College:     input.College,
		Event:       input.Event,
		IEEEMember:  membership,
		IEEEID:      input.IEEEID,
		Certificate: certificate,
		IsTeam:      input.IsTeam,
		TeamName:    input.TeamName,
		TeamMembers: members,
		Amount:      amount,
		Original:    standard,
		Currency:    s.payment.Currency,
	})

	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("CONFLICT", "You have already registered for this event")
		}
		return nil, err
	}

	queued := s.dispatcher.DispatchRegistrationReceived(reg)
	s.logger.Info("registration created",
		zap.String("registration_id", reg.RegistrationID),
		zap.String("event", reg.Event),
		zap.Bool("is_team", reg.IsTeam),
		zap.Int("emails_queued", queued),
	)

	return reg, nil
}

// GetByKey fetches a registration by either its internal UUID or its public
// CHK- identifier.
func (s *Service) GetByKey(ctx context.Context, key string) (*registration.Registration, error) {
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

// List returns all registrations, newest first
func (s *Service) List(ctx context.Context) ([]registration.Registration, error) {
	return s.repo.FindAll(ctx)
}

// ListIEEEMembers returns registrations claiming IEEE membership with a
// certificate on file, newest first.
func (s *Service) ListIEEEMembers(ctx context.Context) ([]registration.Registration, error) {
	regs, err := s.repo.FindIEEEMembers(ctx)
	if err != nil {
		return nil, err
	}
	out := regs[:0]
	for _, r := range regs {
		if r.HasCertificate() {
			out = append(out, r)
		}
	}
	return out, nil
}

// Certificate returns the IEEE membership certificate attachment for a
// registration, or NOT_FOUND when none is available.
func (s *Service) Certificate(ctx context.Context, id uuid.UUID) (*registration.Attachment, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Registration not found")
		}
		return nil, err
	}
	if reg.IEEEMember != registration.MemberYes || !reg.Certificate.IsPresent() {
		return nil, shared.NewDomainError("NOT_FOUND", "IEEE certificate not available")
	}
	cert := reg.Certificate
	return &cert, nil
}

// Screenshot returns the manual payment proof screenshot for a registration,
// or NOT_FOUND when none was submitted.
func (s *Service) Screenshot(ctx context.Context, id uuid.UUID) (*registration.Attachment, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Screenshot not found")
		}
		return nil, err
	}
	if !reg.Payment.Screenshot.IsPresent() {
		return nil, shared.NewDomainError("NOT_FOUND", "Screenshot not found")
	}
	shot := reg.Payment.Screenshot
	return &shot, nil
}
