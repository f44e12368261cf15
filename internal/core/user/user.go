package user

import (
	"slices"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleHR       Role = "HR"
	RoleHead     Role = "HEAD"
	RoleEmployee Role = "EMPLOYEE"
)

// rolePrecedence orders roles from most to least privileged.
var rolePrecedence = []Role{RoleAdmin, RoleHR, RoleHead, RoleEmployee}

const headTitlePrefix = "Head of "

// Principal is the authenticated caller as reported by the identity provider.
type Principal struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Roles []Role `json:"roles"`
}

func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r || slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(rolePrecedence, r) {
		return r, true
	}
	return "", false
}

// PrimaryRole picks the highest ranked role. An empty set yields EMPLOYEE.
func PrimaryRole(roles []Role) Role {
	for _, candidate := range rolePrecedence {
		if slices.Contains(roles, candidate) {
			return candidate
		}
	}
	return RoleEmployee
}

// HeadTitleName is the title that designates the head of department.
func HeadTitleName(department string) string {
	return headTitlePrefix + department
}

// IsHeadTitle reports whether title is the head title of department. The
// comparison is case-insensitive and scoped to the department, so
// "Head of Sales" inside Engineering is not a head title.
func IsHeadTitle(department, title string) bool {
	if department == "" || title == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(title), HeadTitleName(strings.TrimSpace(department)))
}

// DeriveRoles maps a placement to its role set. Empty names mean the
// reference is absent. HR is only granted together with HEAD, to the head
// of the HR department; other HR staff get EMPLOYEE and so cannot reach the
// people routes gated on ADMIN or HR. The result is never empty.
func DeriveRoles(department, title string) []Role {
	roles := make([]Role, 0, 2)
	if IsHeadTitle(department, title) {
		if strings.EqualFold(strings.TrimSpace(department), "HR") {
			roles = append(roles, RoleHR)
		}
		roles = append(roles, RoleHead)
	}
	if len(roles) == 0 {
		roles = append(roles, RoleEmployee)
	}
	return roles
}

func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
