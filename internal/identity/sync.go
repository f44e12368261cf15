package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/pkg/metrics"
)

// Provider is the part of the identity provider the synchronizer drives.
type Provider interface {
	Provision(ctx context.Context, in ProvisionRequest) (*ProvisionResult, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) error
}

type Operation string

const (
	OperationNone      Operation = "none"
	OperationUpdate    Operation = "update"
	OperationProvision Operation = "provision"
)

// Change describes what happened to a person from the identity point of view.
type Change struct {
	OldEmail      string
	NewEmail      string
	FullName      string
	RoleAffecting bool
	Roles         []user.Role
	// Placed is true when the person now has both a department and a title.
	Placed bool
}

// Result reports what the synchronizer did. Err is informational; callers
// must not fail their request because of it.
type Result struct {
	Operation Operation
	Password  *string
	Err       error
}

// Synchronizer keeps identity accounts in line with personnel records. All
// calls are best-effort and bounded by timeout.
type Synchronizer struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

func NewSynchronizer(provider Provider, timeout time.Duration, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

func (s *Synchronizer) Reconcile(ctx context.Context, c Change) Result {
	emailChanged := !strings.EqualFold(c.OldEmail, c.NewEmail)
	if !c.RoleAffecting && !emailChanged {
		return Result{Operation: OperationNone}
	}

	req := UpdateUserRequest{Email: c.OldEmail}
	if emailChanged {
		req.NewEmail = c.NewEmail
	}
	if c.RoleAffecting {
		req.Roles = user.RoleStrings(c.Roles)
	}

	err := s.update(ctx, req)
	if err == nil {
		return Result{Operation: OperationUpdate}
	}

	if c.RoleAffecting && c.Placed && errors.Is(err, ErrUserNotFound) {
		s.logger.Info("identity account missing, provisioning instead", "email", c.NewEmail)
		return s.provision(ctx, c.NewEmail, c.FullName, c.Roles)
	}

	s.logger.Warn("role synchronization failed", "email", c.OldEmail, "new_email", c.NewEmail, "error", err)
	return Result{Operation: OperationUpdate, Err: err}
}

// EnsureProvisioned is idempotent: the provider answers created=false for
// existing accounts.
func (s *Synchronizer) EnsureProvisioned(ctx context.Context, email, fullName string, roles []user.Role) Result {
	return s.provision(ctx, email, fullName, roles)
}

func (s *Synchronizer) update(ctx context.Context, req UpdateUserRequest) error {
	ctx, cancel := internal.Detached(ctx, s.timeout)
	defer cancel()

	err := s.provider.UpdateUser(ctx, req)
	metrics.RoleSync(string(OperationUpdate), err)
	return err
}

func (s *Synchronizer) provision(ctx context.Context, email, fullName string, roles []user.Role) Result {
	ctx, cancel := internal.Detached(ctx, s.timeout)
	defer cancel()

	res, err := s.provider.Provision(ctx, ProvisionRequest{
		Email:    email,
		Roles:    user.RoleStrings(roles),
		FullName: fullName,
	})
	metrics.RoleSync(string(OperationProvision), err)
	if err != nil {
		s.logger.Warn("identity provisioning failed", "email", email, "error", err)
		return Result{Operation: OperationProvision, Err: err}
	}

	if res.Created {
		s.logger.Info("identity account provisioned", "email", email, "roles", roles)
	}
	return Result{Operation: OperationProvision, Password: res.Password}
}
