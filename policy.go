package auth

import "strings"

// Policy is what a route requires. Within each list any one match is
// enough, both lists must be satisfied, an empty list always passes.
type Policy struct {
	AnyRoles       []string
	AnyPermissions []string
}

// RequireAnyRole is a policy on roles only
func RequireAnyRole(roles ...string) Policy {
	return Policy{AnyRoles: roles}
}

// RequireAnyPermission is a policy on permissions only
func RequireAnyPermission(permissions ...string) Policy {
	return Policy{AnyPermissions: permissions}
}

// WithPermissions returns a copy of p that also requires permissions
func (p Policy) WithPermissions(permissions ...string) Policy {
	p.AnyPermissions = append(append([]string{}, p.AnyPermissions...), permissions...)
	return p
}

// IsEmpty policies only require a valid token
func (p Policy) IsEmpty() bool {
	return len(p.AnyRoles) == 0 && len(p.AnyPermissions) == 0
}

// Allows evaluates the policy against a held role and permission set
func (p Policy) Allows(roles, permissions []string) bool {
	return intersects(p.AnyRoles, roles) && intersects(p.AnyPermissions, permissions)
}

// Denial describes the first failing check, empty when allowed
func (p Policy) Denial(roles, permissions []string) string {
	var missing []string
	if !intersects(p.AnyRoles, roles) {
		missing = append(missing, "requires one of roles ["+strings.Join(p.AnyRoles, ", ")+"]")
	}
	if !intersects(p.AnyPermissions, permissions) {
		missing = append(missing, "requires one of permissions ["+strings.Join(p.AnyPermissions, ", ")+"]")
	}
	if len(missing) == 0 {
		return ""
	}
	return "User " + strings.Join(missing, " and ")
}

func intersects(required, held []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(held))
	for _, h := range held {
		set[h] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}
