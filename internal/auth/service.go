package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	userDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/user"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"golang.org/x/crypto/bcrypt"
)

type RepositoryAPI interface {
	// GetByEmail matches case-insensitively and returns nil when absent.
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type Options struct {
	AdminEmail string
	BCryptCost int
}

type Service struct {
	repo       RepositoryAPI
	tokens     TokenGeneratorAPI
	publisher  events.Publisher
	logger     *slog.Logger
	adminEmail string
	bcryptCost int
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, publisher events.Publisher, logger *slog.Logger, opts Options) *Service {
	if opts.AdminEmail == "" {
		opts.AdminEmail = "admin"
	}
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		publisher:  publisher,
		logger:     logger,
		adminEmail: opts.AdminEmail,
		bcryptCost: opts.BCryptCost,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil || !u.IsActive || VerifyPassword(u.PasswordHash, req.Password) != nil {
		s.logger.Warn("login denied", "email", req.Email)
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLogin(ctx, u.ID, time.Now()); err != nil {
		s.logger.Warn("failed to record last login", "email", u.Email, "error", err)
	}

	res, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("login granted", "email", u.Email, "role", res.Role)
	return res, nil
}

// Refresh exchanges a refresh token for a new pair carrying the account's
// current roles.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.tokens.ValidateToken(req.RefreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil || !u.IsActive {
		return nil, apperrors.ErrInvalidToken
	}
	return s.issue(u)
}

func (s *Service) Validate(_ context.Context, token string) (*ValidateResponse, error) {
	claims, err := s.tokens.ValidateToken(strings.TrimSpace(token), TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &ValidateResponse{
		Valid: true,
		Email: claims.Email,
		Role:  claims.Role,
		Roles: claims.Roles,
	}, nil
}

// Provision creates an account unless one exists. The generated password is
// only returned, and mailed, for new accounts.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResponse, error) {
	if s.isAdmin(req.Email) {
		s.logger.Warn("provision attempt blocked for admin account")
		return nil, apperrors.ErrAdminProtected
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if existing != nil {
		s.logger.Debug("account already exists", "email", req.Email)
		return &ProvisionResponse{Email: existing.Email, Created: false}, nil
	}

	password := req.Password
	if password == "" {
		password = GeneratePassword()
	}
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{string(user.RoleEmployee)}
	}
	u := &userDatamodel.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		Roles:        roles,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("account provisioned", "email", u.Email, "roles", roles)

	if !req.SuppressEmail {
		evt := events.NewUserProvisionedEvent(events.UserProvisioned{
			Email:    u.Email,
			FullName: u.FullName,
			Password: password,
		})
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("failed to publish account provisioned event", "email", u.Email, "error", err)
		}
	}

	return &ProvisionResponse{Email: u.Email, Password: &password, Created: true}, nil
}

func (s *Service) UpdateUser(ctx context.Context, req UpdateUserRequest) error {
	if s.isAdmin(req.Email) {
		s.logger.Warn("update attempt blocked for admin account")
		return apperrors.ErrAdminProtected
	}
	if err := req.Validate(); err != nil {
		return err
	}

	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return apperrors.ErrUserNotFound
	}

	if req.NewEmail != "" && !strings.EqualFold(req.NewEmail, u.Email) {
		taken, err := s.repo.GetByEmail(ctx, req.NewEmail)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if taken != nil {
			return apperrors.ErrEmailTaken
		}
		u.Email = req.NewEmail
	}
	if len(req.Roles) > 0 {
		u.Roles = req.Roles
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("account updated", "email", u.Email, "roles", u.Roles)
	return nil
}

// SeedAdmin creates the administrator account when it is missing.
func (s *Service) SeedAdmin(ctx context.Context, password string) (bool, error) {
	existing, err := s.repo.GetByEmail(ctx, s.adminEmail)
	if err != nil {
		return false, fmt.Errorf("get admin: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	err = s.repo.Create(ctx, &userDatamodel.User{
		Email:        s.adminEmail,
		FullName:     "Administrator",
		PasswordHash: hash,
		Roles:        []string{string(user.RoleAdmin)},
		IsActive:     true,
	})
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func (s *Service) issue(u *userDatamodel.User) (*LoginResponse, error) {
	roles := make([]user.Role, 0, len(u.Roles))
	for _, raw := range u.Roles {
		if r, ok := user.ParseRole(raw); ok {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = []user.Role{user.RoleEmployee}
	}
	primary := string(user.PrimaryRole(roles))
	names := user.RoleStrings(roles)

	pair, err := s.tokens.GeneratePair(u.Email, primary, names)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return &LoginResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        u.Email,
		Role:         primary,
		Roles:        names,
	}, nil
}

func (s *Service) isAdmin(email string) bool {
	return strings.EqualFold(strings.TrimSpace(email), s.adminEmail)
}
