package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/chakravyuh/backend/internal/domain/identity"
	"github.com/chakravyuh/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.Repository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

var _ identity.Repository = (*GormUserRepository)(nil)

// Create persists a new admin account. A duplicate email surfaces as
// shared.ErrAlreadyExists from the unique index.
func (r *GormUserRepository) Create(ctx context.Context, user *identity.AdminUser) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmail finds an admin account by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.AdminUser, error) {
	var user identity.AdminUser
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CountAdmins returns the number of admin accounts
func (r *GormUserRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&identity.AdminUser{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
