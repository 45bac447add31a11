package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/chakravyuh/backend/internal/domain/registration"
	"github.com/chakravyuh/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRegistrationRepository implements registration.Repository using GORM
type GormRegistrationRepository struct {
	db *gorm.DB
}

// NewGormRegistrationRepository creates a new GormRegistrationRepository
func NewGormRegistrationRepository(db *gorm.DB) *GormRegistrationRepository {
	return &GormRegistrationRepository{db: db}
}

var _ registration.Repository = (*GormRegistrationRepository)(nil)

// Create persists a new registration with its team members. A duplicate
// (email, event) pair or registration ID surfaces as shared.ErrAlreadyExists
// from the unique indexes.
func (r *GormRegistrationRepository) Create(ctx context.Context, reg *registration.Registration) error {
	if err := r.db.WithContext(ctx).Create(reg).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update saves the full aggregate state, replacing team members.
func (r *GormRegistrationRepository) Update(ctx context.Context, reg *registration.Registration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("registration_id = ?", reg.ID).
			Delete(&registration.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).
			Save(reg).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
}

// FindByID finds a registration by its internal UUID
func (r *GormRegistrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*registration.Registration, error) {
	var reg registration.Registration
	if err := r.db.WithContext(ctx).
		Preload("TeamMembers").
		First(&reg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// FindByRegistrationID finds a registration by its public CHK- identifier
func (r *GormRegistrationRepository) FindByRegistrationID(ctx context.Context, registrationID string) (*registration.Registration, error) {
	var reg registration.Registration
	if err := r.db.WithContext(ctx).
		Preload("TeamMembers").
		Where("registration_id = ?", registrationID).
		First(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// FindByEmailAndEvent finds a registration by the unique (email, event) pair
func (r *GormRegistrationRepository) FindByEmailAndEvent(ctx context.Context, email, event string) (*registration.Registration, error) {
	var reg registration.Registration
	if err := r.db.WithContext(ctx).
		Preload("TeamMembers").
		Where("email = ? AND event = ?", strings.ToLower(email), event).
		First(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// FindByOrderID finds a registration by its gateway order identifier
func (r *GormRegistrationRepository) FindByOrderID(ctx context.Context, orderID string) (*registration.Registration, error) {
	var reg registration.Registration
	if err := r.db.WithContext(ctx).
		Preload("TeamMembers").
		Where("payment_order_id = ?", orderID).
		First(&reg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// FindAll lists registrations newest first
func (r *GormRegistrationRepository) FindAll(ctx context.Context) ([]registration.Registration, error) {
	var regs []registration.Registration
	if err := r.db.WithContext(ctx).
		Preload("TeamMembers").
		Order("registered_at DESC").
		Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

// FindIEEEMembers lists registrations that claim IEEE membership, newest first
func (r *GormRegistrationRepository) FindIEEEMembers(ctx context.Context) ([]registration.Registration, error) {
	var regs []registration.Registration
	if err := r.db.WithContext(ctx).
		Preload("TeamMembers").
		Where("ieee_member = ?", registration.MemberYes).
		Order("registered_at DESC").
		Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}
