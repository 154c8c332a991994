package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is where the bearer middleware stores the identity
const DefaultContextKey = "identity"

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the AuthorizedIdentity in the given context
func WithIdentity(ctx context.Context, identity *AuthorizedIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity in the context
func IdentityFromContext(ctx context.Context) (*AuthorizedIdentity, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(identityCtxKey).(*AuthorizedIdentity)
	return raw, ok && raw != nil
}

// GetRouterIdentity extracts the identity from the router context,
// checking locals first and then the standard context
func GetRouterIdentity(ctx router.Context, key string) (*AuthorizedIdentity, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	if identity, ok := ctx.Locals(key).(*AuthorizedIdentity); ok && identity != nil {
		return identity, true
	}
	return IdentityFromContext(ctx.Context())
}

// Can is a convenience function to check permissions from the standard context
func Can(ctx context.Context, permission string) bool {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return false
	}
	return identity.Can(permission)
}

// HasRole is a convenience function to check roles from the standard context
func HasRole(ctx context.Context, role string) bool {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return false
	}
	return identity.HasRole(role)
}
