package auth

import (
	"context"

	"cartview/internal/domain"
)

// Context exposes the currently authenticated user, or nil.
type Context interface {
	User() *domain.User
}

type fixed struct {
	user *domain.User
}

func (f fixed) User() *domain.User { return f.user }

// Fixed returns a Context that always reports user (which may be nil).
func Fixed(user *domain.User) Context {
	return fixed{user: user}
}

type ctxKeyUser struct{}
type ctxKeyToken struct{}

func WithUser(ctx context.Context, user *domain.User, token string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUser{}, user)
	return context.WithValue(ctx, ctxKeyToken{}, token)
}

func UserFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(ctxKeyUser{}).(*domain.User)
	return u
}

func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(ctxKeyToken{}).(string)
	return t
}
