package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/personnel-suite/internal"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/transport"
	"github.com/frahmantamala/personnel-suite/pkg/logger"
)

// TokenValidator resolves a bearer token to the calling principal.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*user.Principal, error)
}

// Authenticate validates the bearer token with the identity provider and
// stores the principal in the request context. Requests without a valid
// token are rejected with 401.
func Authenticate(validator TokenValidator, lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.BearerToken(r)
			if token == "" {
				writeAppError(w, internal.ErrMissingPrincipal)
				return
			}

			principal, err := validator.ValidateToken(r.Context(), token)
			if err != nil || principal == nil {
				lg.WarnContext(r.Context(), "token validation failed", "error", err)
				writeAppError(w, internal.ErrInvalidToken)
				return
			}

			ctx := internal.ContextWithPrincipal(r.Context(), principal)
			ctx = logger.With(ctx, "principal", principal.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
