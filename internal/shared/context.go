package shared

import (
	"context"

	"github.com/manish6022/hrone-sub000/internal/rbac"
)

type identityContextKey struct{}

type tokenContextKey struct{}

// ContextWithIdentity stores the authenticated identity in context.
func ContextWithIdentity(ctx context.Context, id *rbac.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the authenticated identity, or nil when anonymous.
func IdentityFromContext(ctx context.Context) *rbac.Identity {
	id, _ := ctx.Value(identityContextKey{}).(*rbac.Identity)
	return id
}

// ContextWithToken stores the raw bearer token in context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext extracts the raw bearer token, or "" when absent.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}
