package auth

import (
	"strings"

	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (r *RefreshRequest) Validate() error {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}

// ProvisionRequest creates an account. ADMIN cannot be granted here.
type ProvisionRequest struct {
	Email         string   `json:"email" validate:"required,email,max=254"`
	Roles         []string `json:"roles" validate:"dive,oneof=HR HEAD EMPLOYEE"`
	Password      string   `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
	FullName      string   `json:"fullName,omitempty" validate:"max=200"`
	SuppressEmail bool     `json:"suppressEmail,omitempty"`
}

func (r *ProvisionRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Roles = normalizeRoles(r.Roles)
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}

// UpdateUserRequest changes an account. A blank NewEmail or empty Roles
// leaves that field untouched.
type UpdateUserRequest struct {
	Email    string   `json:"email" validate:"required,max=254"`
	NewEmail string   `json:"newEmail,omitempty" validate:"omitempty,email,max=254"`
	Roles    []string `json:"roles,omitempty" validate:"dive,oneof=HR HEAD EMPLOYEE"`
}

func (r *UpdateUserRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.NewEmail = strings.TrimSpace(r.NewEmail)
	r.Roles = normalizeRoles(r.Roles)
	if verr := validation.Struct(r); verr != nil {
		return verr
	}
	return nil
}

type LoginResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Roles        []string `json:"roles"`
}

type ValidateResponse struct {
	Valid bool     `json:"valid"`
	Email string   `json:"email,omitempty"`
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

type ProvisionResponse struct {
	Email    string  `json:"email"`
	Password *string `json:"password"`
	Created  bool    `json:"created"`
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
			out = append(out, r)
		}
	}
	return out
}
