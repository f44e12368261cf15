package middleware

import (
	"net/http"

	"github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/pkg/logger"
)

// RequireRoles lets the request through when the principal holds any of roles.
func RequireRoles(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				writeAppError(w, internal.ErrMissingPrincipal)
				return
			}

			if !principal.HasRole(roles...) {
				logger.From(r.Context()).Warn("role check failed",
					"required", roles,
					"held", principal.Roles)
				writeAppError(w, internal.NewForbiddenError("insufficient role", internal.ErrCodeInsufficientRole))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
