package registration

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/chakravyuh/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a registration.
// pending_payment -> under_review -> confirmed, with cancelled reachable
// from any non-confirmed state.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusUnderReview    Status = "under_review"
	StatusConfirmed      Status = "confirmed"
	StatusCancelled      Status = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// MembershipStatus indicates IEEE membership on a registration
type MembershipStatus string

const (
	MemberYes MembershipStatus = "yes"
	MemberNo  MembershipStatus = "no"
)

// IsValid reports whether the membership value is one of yes/no
func (m MembershipStatus) IsValid() bool {
	return m == MemberYes || m == MemberNo
}

// PaymentStatus is the state of the payment sub-record
type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "created"
	PaymentCaptured PaymentStatus = "captured"
	PaymentFailed   PaymentStatus = "failed"
)

// Attachment is a binary blob stored inline with the registration
// (IEEE membership certificate, payment screenshot)
type Attachment struct {
	FileName    string `gorm:"type:varchar(255)" json:"fileName,omitempty"`
	ContentType string `gorm:"type:varchar(100)" json:"contentType,omitempty"`
	Data        []byte `gorm:"type:bytea" json:"-"`
}

// IsPresent reports whether the attachment carries a payload
func (a Attachment) IsPresent() bool {
	return len(a.Data) > 0 && a.ContentType != ""
}

// Payment is the payment sub-record owned by a registration
type Payment struct {
	OrderID         string          `gorm:"type:varchar(100);index" json:"orderId,omitempty"`
	PaymentID       string          `gorm:"type:varchar(100)" json:"paymentId,omitempty"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	OriginalAmount  decimal.Decimal `gorm:"type:decimal(18,2)" json:"originalAmount"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2)" json:"discountPercent"`
	Currency        string          `gorm:"type:varchar(10);default:'INR'" json:"currency"`
	Status          PaymentStatus   `gorm:"type:varchar(20);default:'created'" json:"status"`
	UTRNumber       string          `gorm:"type:varchar(20)" json:"utrNumber,omitempty"`
	Screenshot      Attachment      `gorm:"embedded;embeddedPrefix:screenshot_" json:"screenshot,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
}

// TeamMember is owned by a registration and has no independent identity;
// rows are removed together with their parent.
type TeamMember struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"-"`
	RegistrationID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Name           string    `gorm:"type:varchar(200);not null" json:"name"`
	Email          string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone          string    `gorm:"type:varchar(20);not null" json:"phone"`
}

// TableName returns the table name for GORM
func (TeamMember) TableName() string {
	return "team_members"
}

// Registration is the aggregate root for one person's or team's signup
// for one event. The (email, event) pair is unique, backed by a storage
// level unique index.
type Registration struct {
	shared.BaseAggregateRoot
	RegistrationID string           `gorm:"type:varchar(50);not null;uniqueIndex" json:"registrationId"`
	FullName       string           `gorm:"type:varchar(200);not null" json:"fullName"`
	Email          string           `gorm:"type:varchar(255);not null;uniqueIndex:idx_registrations_email_event,priority:1" json:"email"`
	Phone          string           `gorm:"type:varchar(20);not null" json:"phone"`
	College        string           `gorm:"type:varchar(300);not null" json:"college"`
	Event          string           `gorm:"type:varchar(200);not null;uniqueIndex:idx_registrations_email_event,priority:2" json:"event"`
	IEEEMember     MembershipStatus `gorm:"type:varchar(5);not null;default:'no'" json:"ieeeMember"`
	IEEEID         string           `gorm:"type:varchar(50)" json:"ieeeId,omitempty"`
	Certificate    Attachment       `gorm:"embedded;embeddedPrefix:certificate_" json:"ieeeMembershipCertificate,omitempty"`
	IsTeam         bool             `gorm:"not null;default:false" json:"isTeam"`
	TeamName       string           `gorm:"type:varchar(200)" json:"teamName,omitempty"`
	TeamMembers    []TeamMember     `gorm:"foreignKey:RegistrationID;references:ID;constraint:OnDelete:CASCADE" json:"teamMembers,omitempty"`
	Status         Status           `gorm:"type:varchar(20);not null;default:'pending_payment';index" json:"status"`
	QRCode         string           `gorm:"type:text" json:"qrCode,omitempty"`
	Payment        Payment          `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	RegisteredAt   time.Time        `gorm:"not null" json:"registeredAt"`
}

// TableName returns the table name for GORM
func (Registration) TableName() string {
	return "registrations"
}

// Domain errors specific to the registration lifecycle
var (
	ErrAlreadyConfirmed  = shared.NewDomainError("ALREADY_CONFIRMED", "Registration is already confirmed")
	ErrNotUnderReview    = shared.NewDomainError("PRECONDITION_FAILED", "Not under review")
	ErrNotPendingPayment = shared.NewDomainError("PRECONDITION_FAILED", "Registration is not awaiting payment")
	ErrAlreadyCancelled  = shared.NewDomainError("PRECONDITION_FAILED", "Registration has been cancelled")
	ErrPaymentProcessed  = shared.NewDomainError("CONFLICT", "Payment has already been processed")
)

// NewRegistrationParams holds the already-validated fields for creating
// a registration. Normalization and validation live in the application
// layer; the constructor only assembles the aggregate.
type NewRegistrationParams struct {
	FullName    string
	Email       string
	Phone       string
	College     string
	Event       string
	IEEEMember  MembershipStatus
	IEEEID      string
	Certificate Attachment
	IsTeam      bool
	TeamName    string
	TeamMembers []TeamMember
	Amount      decimal.Decimal
	Original    decimal.Decimal
	Currency    string
}

// NewRegistration creates a registration in the pending_payment state with
// a freshly generated public registration ID.
func NewRegistration(p NewRegistrationParams) *Registration {
	discount := decimal.Zero
	if p.Original.IsPositive() && p.Amount.LessThan(p.Original) {
		discount = p.Original.Sub(p.Amount).
			Div(p.Original).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	r := &Registration{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RegistrationID:    NewRegistrationID(),
		FullName:          p.FullName,
		Email:             p.Email,
		Phone:             p.Phone,
		College:           p.College,
		Event:             p.Event,
		IEEEMember:        p.IEEEMember,
		Status:            StatusPendingPayment,
		RegisteredAt:      time.Now(),
		Payment: Payment{
			Amount:          p.Amount,
			OriginalAmount:  p.Original,
			DiscountPercent: discount,
			Currency:        p.Currency,
			Status:          PaymentCreated,
		},
	}

	// Membership and team fields are only persisted when the respective
	// flags are set, so a toggled-off flag never leaves stale data behind.
	if p.IEEEMember == MemberYes {
		r.IEEEID = p.IEEEID
		r.Certificate = p.Certificate
	}
	if p.IsTeam {
		r.IsTeam = true
		r.TeamName = p.TeamName
		r.TeamMembers = make([]TeamMember, 0, len(p.TeamMembers))
		for _, m := range p.TeamMembers {
			m.ID = uuid.New()
			m.RegistrationID = r.ID
			r.TeamMembers = append(r.TeamMembers, m)
		}
	}

	return r
}

// NewRegistrationID generates a human-shareable registration identifier.
// Time plus a random suffix makes collisions unlikely; the unique index on
// registration_id is the actual correctness backstop.
func NewRegistrationID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("CHK-%d-%04d", time.Now().UnixMilli(), 1000+suffix)
}

// AwaitingPayment returns nil when the registration can start a payment
// attempt, or the lifecycle error explaining why it cannot. Callers that
// trigger external side effects (gateway order creation) must check this
// before the provider call.
func (r *Registration) AwaitingPayment() error {
	switch r.Status {
	case StatusConfirmed:
		return ErrPaymentProcessed
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusPendingPayment:
		return nil
	default:
		return ErrNotPendingPayment
	}
}

// AttachGatewayOrder records a provider-side order on a registration that
// is still awaiting payment.
func (r *Registration) AttachGatewayOrder(orderID string) error {
	if err := r.AwaitingPayment(); err != nil {
		return err
	}
	if orderID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Gateway order id cannot be empty")
	}
	r.Payment.OrderID = orderID
	r.UpdatedAt = time.Now()
	return nil
}

// ConfirmGatewayPayment completes the gateway path: the caller has already
// verified the provider signature. Sets payment captured, attaches the QR
// pass and moves the registration to confirmed in one step, so a confirmed
// registration always carries a captured payment and a QR code. A verify
// arriving while a manual proof sits under review still confirms: the money
// is already captured at the provider, so the pending review is superseded.
func (r *Registration) ConfirmGatewayPayment(paymentID, qrCode string) error {
	switch r.Status {
	case StatusConfirmed:
		return ErrPaymentProcessed
	case StatusCancelled:
		return ErrAlreadyCancelled
	}
	if qrCode == "" {
		return shared.NewDomainError("INVALID_INPUT", "QR code is required to confirm a registration")
	}
	now := time.Now()
	r.Payment.PaymentID = paymentID
	r.Payment.Status = PaymentCaptured
	r.Payment.PaidAt = &now
	r.QRCode = qrCode
	r.Status = StatusConfirmed
	r.UpdatedAt = now
	return nil
}

// AttachManualProof stores a manual payment proof (UTR + screenshot) and
// moves the registration under review. Callers treat ErrAlreadyConfirmed
// as an idempotent no-op so client retries never surface as failures.
func (r *Registration) AttachManualProof(utr string, screenshot Attachment) error {
	if r.Status == StatusConfirmed {
		return ErrAlreadyConfirmed
	}
	if r.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !screenshot.IsPresent() {
		return shared.NewDomainError("INVALID_INPUT", "Payment screenshot required")
	}
	r.Payment.UTRNumber = utr
	r.Payment.Screenshot = screenshot
	r.Status = StatusUnderReview
	r.UpdatedAt = time.Now()
	return nil
}

// Approve is the admin transition from under_review to confirmed. Any
// other source state fails the precondition and leaves the aggregate
// untouched.
func (r *Registration) Approve(qrCode string) error {
	if r.Status != StatusUnderReview {
		return ErrNotUnderReview
	}
	if qrCode == "" {
		return shared.NewDomainError("INVALID_INPUT", "QR code is required to confirm a registration")
	}
	now := time.Now()
	paymentID := r.Payment.UTRNumber
	if paymentID == "" {
		paymentID = "UPI"
	}
	r.Payment.PaymentID = paymentID
	r.Payment.Status = PaymentCaptured
	r.Payment.PaidAt = &now
	r.QRCode = qrCode
	r.Status = StatusConfirmed
	r.UpdatedAt = now
	return nil
}

// RejectProof sends an under-review registration back to pending_payment,
// clearing the stored proof so the registrant can resubmit.
func (r *Registration) RejectProof() error {
	if r.Status != StatusUnderReview {
		return ErrNotUnderReview
	}
	r.Payment.UTRNumber = ""
	r.Payment.Screenshot = Attachment{}
	r.Status = StatusPendingPayment
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel moves any non-confirmed registration to the cancelled state.
// Cancellation is a status value, not a removal.
func (r *Registration) Cancel() error {
	if r.Status == StatusConfirmed {
		return shared.NewDomainError("PRECONDITION_FAILED", "Confirmed registrations cannot be cancelled")
	}
	if r.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// HasCertificate reports whether an IEEE membership certificate is on file
func (r *Registration) HasCertificate() bool {
	return r.IEEEMember == MemberYes && (r.Certificate.ContentType != "" || r.Certificate.FileName != "")
}

var recipientPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Recipients returns the deduplicated set of notification addresses for
// this registration: the registrant plus every team member, lowercased and
// filtered to structurally valid addresses. The registrant, when valid,
// is always first.
func (r *Registration) Recipients() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(r.TeamMembers)+1)

	add := func(addr string) {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" || !recipientPattern.MatchString(addr) {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}

	add(r.Email)
	for _, m := range r.TeamMembers {
		add(m.Email)
	}
	return out
}

// DisplayName is the name shown on passes and confirmation mail: the team
// name for team registrations, otherwise the registrant's full name.
func (r *Registration) DisplayName() string {
	if r.IsTeam && r.TeamName != "" {
		return r.TeamName
	}
	return r.FullName
}
