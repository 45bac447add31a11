package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/chakravyuh/backend/internal/domain/identity"
	"github.com/chakravyuh/backend/internal/domain/shared"
	"github.com/chakravyuh/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles admin bootstrap, login and logout.
type AuthService struct {
	repo       identity.Repository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	setupKey   string
	logger     *zap.Logger
}

// NewAuthService creates an auth service. setupKey may be empty, in which
// case first-admin setup is open until an admin exists.
func NewAuthService(repo identity.Repository, jwtService *auth.JWTService, blacklist auth.TokenBlacklist, setupKey string, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:       repo,
		jwtService: jwtService,
		blacklist:  blacklist,
		setupKey:   setupKey,
		logger:     logger,
	}
}

// SetupStatus reports whether an admin exists and whether setup needs a key
func (s *AuthService) SetupStatus(ctx context.Context) (*SetupStatus, error) {
	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return nil, err
	}
	return &SetupStatus{
		AdminExists:      count > 0,
		SetupKeyRequired: s.setupKey != "",
	}, nil
}

// Setup creates the first admin account. It is a one-time operation: once
// any admin exists the endpoint conflicts, and a configured setup key gates
// who may perform it.
func (s *AuthService) Setup(ctx context.Context, input SetupInput) (*AuthResult, error) {
	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, shared.NewDomainError("CONFLICT", "Admin already exists")
	}

	if s.setupKey != "" {
		if input.SetupKey == "" {
			return nil, shared.NewDomainError("FORBIDDEN", "Setup key is required")
		}
		if input.SetupKey != s.setupKey {
			return nil, shared.NewDomainError("FORBIDDEN", "Invalid setup key")
		}
	}

	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, shared.NewDomainError("VALIDATION", "Email and password are required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Admin"
	}

	user, err := identity.NewAdminUser(name, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("CONFLICT", "Admin already exists")
		}
		return nil, err
	}

	token, _, err := s.jwtService.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin account created", zap.String("email", user.Email))

	return &AuthResult{
		Token: token,
		User: UserInfo{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
			Role:  string(user.Role),
		},
	}, nil
}

// Login authenticates an admin by email and password. Unknown accounts and
// wrong passwords produce the same answer.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, shared.NewDomainError("VALIDATION", "Email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid credentials")
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid credentials")
	}

	token, _, err := s.jwtService.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin logged in", zap.String("email", user.Email))

	return &AuthResult{
		Token: token,
		User: UserInfo{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
			Role:  string(user.Role),
		},
	}, nil
}

// Me returns the account behind a validated session
func (s *AuthService) Me(ctx context.Context, email string) (*UserInfo, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid credentials")
		}
		return nil, err
	}
	return &UserInfo{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}, nil
}

// Logout revokes the session token for its remaining lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ID == "" {
		return shared.NewDomainError("UNAUTHORIZED", "Invalid session token")
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL())
}
