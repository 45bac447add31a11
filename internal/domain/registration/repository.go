package registration

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the registration aggregate.
// Implementations translate storage duplicate-key violations on the
// (email, event) unique index into shared.ErrAlreadyExists.
type Repository interface {
	Create(ctx context.Context, reg *Registration) error
	Update(ctx context.Context, reg *Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	FindByRegistrationID(ctx context.Context, registrationID string) (*Registration, error)
	FindByEmailAndEvent(ctx context.Context, email, event string) (*Registration, error)
	FindByOrderID(ctx context.Context, orderID string) (*Registration, error)
	FindAll(ctx context.Context) ([]Registration, error)
	FindIEEEMembers(ctx context.Context) ([]Registration, error)
}
