package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is satisfied by glog.Logger and *slog.Logger
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetTokenExpiration() int
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetBcryptCost() int
	GetUseHashid() bool
}

// Authenticator exchanges credentials for a signed token
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthorizationEngine decides whether a token holder satisfies a policy
type AuthorizationEngine interface {
	Authorize(ctx context.Context, token string, policy Policy) (*AuthorizedIdentity, error)
}

// Registrar creates inactive accounts from validated registrations
type Registrar interface {
	Execute(ctx context.Context, msg RegisterUserMessage) (*UserProfile, error)
}

// CredentialStore is the read side the services need
type CredentialStore interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	PermissionNamesOf(ctx context.Context, roleNames []string) ([]string, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Clock returns the current time, override in tests
type Clock func() time.Time

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] AUTH " + line(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] AUTH " + line(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] AUTH " + line(msg, args...))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] AUTH " + line(msg, args...))
}

func line(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
