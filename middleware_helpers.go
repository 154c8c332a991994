package auth

import (
	"github.com/goliatone/go-router"
)

// RequirePolicy checks the identity stored by the bearer middleware against
// policy. Mount it after the bearer guard to narrow a route group.
func RequirePolicy(policy Policy, contextKey string, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = ErrorHandler(nil)
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, ok := GetRouterIdentity(ctx, contextKey)
			if !ok {
				return errorHandler(ctx, ErrInvalidToken)
			}

			if !policy.Allows(identity.Roles, identity.Permissions) {
				return errorHandler(ctx, NewUnauthorized(policy.Denial(identity.Roles, identity.Permissions)))
			}

			return next(ctx)
		}
	}
}

// RequireAnyRoleMiddleware is RequirePolicy with a roles only policy
func RequireAnyRoleMiddleware(contextKey string, roles ...string) router.MiddlewareFunc {
	return RequirePolicy(RequireAnyRole(roles...), contextKey, nil)
}

// RequireAnyPermissionMiddleware is RequirePolicy with a permissions only policy
func RequireAnyPermissionMiddleware(contextKey string, permissions ...string) router.MiddlewareFunc {
	return RequirePolicy(RequireAnyPermission(permissions...), contextKey, nil)
}
