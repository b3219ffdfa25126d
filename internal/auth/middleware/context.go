package auth

import (
	"context"

	domain "github.com/coursepilot/coursepilot-lms/internal/auth"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

func WithUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// UserFromContext returns the authenticated user attached by JWTMiddleware.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	if v := ctx.Value(ctxKeyUser); v != nil {
		if u, ok := v.(domain.User); ok {
			return u, true
		}
	}
	return domain.User{}, false
}
