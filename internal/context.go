package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/user"
)

type principalKey struct{}

const defaultDetachedTimeout = 5 * time.Second

func PrincipalFromContext(ctx context.Context) (*user.Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(principalKey{}).(*user.Principal)
	return p, ok && p != nil
}

func ContextWithPrincipal(ctx context.Context, principal *user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// Detached keeps the values of ctx (logger, principal, trace id) but not its
// cancellation, bounded by timeout. A non-positive timeout means five seconds.
func Detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultDetachedTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
