package persistence

import (
	"context"
	"testing"

	"github.com/chakravyuh/backend/internal/domain/identity"
	"github.com/chakravyuh/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&identity.AdminUser{}))
	return db
}

func TestUserRepository(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	count, err := repo.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	user, err := identity.NewAdminUser("Root Admin", "admin@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dup, err := identity.NewAdminUser("Other", "admin@example.com", "another password")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("find by email is case-insensitive on lookup input", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "Admin@Example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.True(t, found.VerifyPassword("correct horse battery"))
	})

	t.Run("missing email maps to not found", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	count, err = repo.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
