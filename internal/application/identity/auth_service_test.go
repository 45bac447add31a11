package identity

import (
	"context"
	"testing"
	"time"

	domain "github.com/chakravyuh/backend/internal/domain/identity"
	"github.com/chakravyuh/backend/internal/domain/shared"
	"github.com/chakravyuh/backend/internal/infrastructure/auth"
	"github.com/chakravyuh/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, user *domain.AdminUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdminUser), args.Error(1)
}

func (m *mockRepository) CountAdmins(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newTestAuthService(repo *mockRepository, setupKey string) (*AuthService, *auth.InMemoryTokenBlacklist) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-test-secret-test-secret",
		Expiration: time.Hour,
		Issuer:     "chakravyuh-backend",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	return NewAuthService(repo, jwtService, blacklist, setupKey, zap.NewNop()), blacklist
}

func TestSetup(t *testing.T) {
	ctx := context.Background()

	input := SetupInput{
		Name:     "Root Admin",
		Email:    "admin@example.com",
		Password: "correct horse battery",
	}

	t.Run("creates the first admin and signs them in", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("CountAdmins", ctx).Return(int64(0), nil)
		repo.On("Create", ctx, mock.AnythingOfType("*identity.AdminUser")).Return(nil)

		svc, _ := newTestAuthService(repo, "")
		result, err := svc.Setup(ctx, input)
		require.NoError(t, err)

		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "admin@example.com", result.User.Email)
		assert.Equal(t, "admin", result.User.Role)
		repo.AssertExpectations(t)
	})

	t.Run("conflicts once an admin exists", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("CountAdmins", ctx).Return(int64(1), nil)

		svc, _ := newTestAuthService(repo, "")
		_, err := svc.Setup(ctx, input)

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "CONFLICT", derr.Code)
		assert.Equal(t, "Admin already exists", derr.Message)
	})

	t.Run("setup key gate", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("CountAdmins", ctx).Return(int64(0), nil)
		svc, _ := newTestAuthService(repo, "launch-key")

		_, err := svc.Setup(ctx, input)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "FORBIDDEN", derr.Code)
		assert.Equal(t, "Setup key is required", derr.Message)

		wrong := input
		wrong.SetupKey = "wrong"
		_, err = svc.Setup(ctx, wrong)
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "Invalid setup key", derr.Message)

		repo.On("Create", ctx, mock.Anything).Return(nil)
		right := input
		right.SetupKey = "launch-key"
		_, err = svc.Setup(ctx, right)
		assert.NoError(t, err)
	})

	t.Run("defaults the name when omitted", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("CountAdmins", ctx).Return(int64(0), nil)
		repo.On("Create", ctx, mock.MatchedBy(func(u *domain.AdminUser) bool {
			return u.Name == "Admin"
		})).Return(nil)

		svc, _ := newTestAuthService(repo, "")
		anonymous := input
		anonymous.Name = "  "
		_, err := svc.Setup(ctx, anonymous)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	user, err := domain.NewAdminUser("Root Admin", "admin@example.com", "correct horse battery")
	require.NoError(t, err)

	t.Run("valid credentials return a session token", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("FindByEmail", ctx, "admin@example.com").Return(user, nil)

		svc, _ := newTestAuthService(repo, "")
		result, err := svc.Login(ctx, LoginInput{Email: "admin@example.com", Password: "correct horse battery"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, user.ID.String(), result.User.ID)
	})

	t.Run("wrong password and unknown account answer identically", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("FindByEmail", ctx, "admin@example.com").Return(user, nil)
		repo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, shared.ErrNotFound)

		svc, _ := newTestAuthService(repo, "")

		_, err1 := svc.Login(ctx, LoginInput{Email: "admin@example.com", Password: "wrong"})
		_, err2 := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"})

		var derr1, derr2 *shared.DomainError
		require.ErrorAs(t, err1, &derr1)
		require.ErrorAs(t, err2, &derr2)
		assert.Equal(t, derr1.Code, derr2.Code)
		assert.Equal(t, derr1.Message, derr2.Message)
		assert.Equal(t, "Invalid credentials", derr1.Message)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	svc, blacklist := newTestAuthService(repo, "")

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-test-secret-test-secret",
		Expiration: time.Hour,
		Issuer:     "chakravyuh-backend",
	})
	user, err := domain.NewAdminUser("Root", "admin@example.com", "correct horse battery")
	require.NoError(t, err)
	token, _, err := jwtService.Generate(user.ID, user.Email, "admin")
	require.NoError(t, err)
	claims, err := jwtService.Validate(token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err := blacklist.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}
