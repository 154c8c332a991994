package auth

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk" json:"uuid"`
	Username      string    `bun:"username,notnull,unique" json:"username"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Email         string    `bun:"email,notnull" json:"email"`
	FirstName     string    `bun:"first_name,notnull" json:"first_name"`
	LastName      string    `bun:"last_name,notnull" json:"last_name"`
	IsActive      bool      `bun:"is_active,notnull" json:"is_active"`
	Roles         []*Role   `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// RoleNames returns the names of the loaded roles, sorted
func (u *User) RoleNames() []string {
	if u == nil {
		return []string{}
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	return dedupe(names)
}

// Profile is the public projection of a user
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		UUID:      u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// UserProfile is what registration hands back, never includes the hash
type UserProfile struct {
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Role is a named bundle of permissions
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	Name          string        `bun:"name,pk" json:"name"`
	Description   *string       `bun:"description" json:"description,omitempty"`
	Permissions   []*Permission `bun:"m2m:role_permissions,join:Role=Permission" json:"permissions,omitempty"`
	CreatedAt     time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time     `bun:"updated_at,notnull" json:"updated_at"`
}

// Permission is an atomic capability
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:perm"`
	Name          string    `bun:"name,pk" json:"name"`
	Description   *string   `bun:"description" json:"description,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// UserRole joins users and roles
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`
	UserID        uuid.UUID `bun:"user_id,pk"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id"`
	RoleName      string    `bun:"role_name,pk"`
	Role          *Role     `bun:"rel:belongs-to,join:role_name=name"`
}

// RolePermission joins roles and permissions
type RolePermission struct {
	bun.BaseModel  `bun:"table:role_permissions,alias:rp"`
	RoleName       string      `bun:"role_name,pk"`
	Role           *Role       `bun:"rel:belongs-to,join:role_name=name"`
	PermissionName string      `bun:"permission_name,pk"`
	Permission     *Permission `bun:"rel:belongs-to,join:permission_name=name"`
}

// RegisterModels must run before any m2m relation is queried
func RegisterModels(db *bun.DB) {
	db.RegisterModel(
		(*UserRole)(nil),
		(*RolePermission)(nil),
	)
}

func prepareUserDefaults(u *User) {
	if u == nil {
		return
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
