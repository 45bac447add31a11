package identity

import "context"

// Repository persists admin accounts.
type Repository interface {
	Create(ctx context.Context, user *AdminUser) error
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)
	CountAdmins(ctx context.Context) (int64, error)
}
