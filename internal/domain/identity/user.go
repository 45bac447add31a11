package identity

import (
	"strings"

	"github.com/chakravyuh/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role of an authenticated user. Only admins exist today; the column keeps
// room for a future volunteer role without a schema change.
type Role string

const (
	RoleAdmin Role = "admin"
)

// AdminUser is the aggregate for a back-office account.
type AdminUser struct {
	shared.BaseAggregateRoot
	Name         string `gorm:"type:varchar(200);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'admin'" json:"role"`
}

// TableName returns the table name for GORM
func (AdminUser) TableName() string {
	return "admin_users"
}

const bcryptCost = 12

// NewAdminUser creates an admin account with a bcrypt-hashed password.
// The email is normalized to lowercase before storage.
func NewAdminUser(name, email, password string) (*AdminUser, error) {
	if len(password) < 8 {
		return nil, shared.NewDomainError("VALIDATION", "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &AdminUser{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:      string(hash),
		Role:              RoleAdmin,
	}, nil
}

// VerifyPassword reports whether the plaintext matches the stored hash
func (u *AdminUser) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
