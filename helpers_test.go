package auth_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-authz"
	"github.com/goliatone/go-authz/repository"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Passw0rd!"

var fastHasher = auth.NewBcryptHasher(bcrypt.MinCost)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (c *captureLogger) record(level, msg string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, logEntry{level: level, msg: msg, args: args})
}

func (c *captureLogger) Debug(msg string, args ...any) { c.record("debug", msg, args) }
func (c *captureLogger) Info(msg string, args ...any)  { c.record("info", msg, args) }
func (c *captureLogger) Warn(msg string, args ...any)  { c.record("warn", msg, args) }
func (c *captureLogger) Error(msg string, args ...any) { c.record("error", msg, args) }

func (c *captureLogger) has(level, msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

// leaked reports whether any logged argument contains secret
func (c *captureLogger) leaked(secret string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if strings.Contains(e.msg, secret) {
			return true
		}
		for _, a := range e.args {
			if strings.Contains(fmt.Sprint(a), secret) {
				return true
			}
		}
	}
	return false
}

type recordingMetrics struct {
	mu        sync.Mutex
	logins    []string
	authorize []string
	registers []string
}

func (m *recordingMetrics) ObserveLogin(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, outcome)
}

func (m *recordingMetrics) ObserveAuthorize(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorize = append(m.authorize, outcome)
}

func (m *recordingMetrics) ObserveRegister(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers = append(m.registers, outcome)
}

type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// newTestDB opens a migrated in memory sqlite database private to t
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.Open(ctx, repository.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = repository.Migrate(ctx, db)
	require.NoError(t, err)

	return db
}

func newTestRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()
	repo := auth.NewRepositoryManager(newTestDB(t))
	require.NoError(t, repo.Validate())
	return repo
}

// seedRBAC creates admin, editor and viewer roles with their permissions
func seedRBAC(t *testing.T, repo auth.RepositoryManager) {
	t.Helper()
	ctx := context.Background()

	grants := map[string][]string{
		"admin":  {"create_user", "delete_user"},
		"editor": {"edit_post", "view_post"},
		"viewer": {"view_post"},
	}

	created := map[string]bool{}
	for role, perms := range grants {
		_, err := repo.Roles().CreateRole(ctx, role, "")
		require.NoError(t, err)
		for _, perm := range perms {
			if !created[perm] {
				_, err := repo.Roles().CreatePermission(ctx, perm, "")
				require.NoError(t, err)
				created[perm] = true
			}
			require.NoError(t, repo.Roles().GrantPermission(ctx, role, perm))
		}
	}
}

func seedUser(t *testing.T, repo auth.RepositoryManager, username string, roles ...string) *auth.User {
	t.Helper()
	ctx := context.Background()

	hash, err := fastHasher.HashPassword(testPassword)
	require.NoError(t, err)

	user, err := repo.Users().Register(ctx, &auth.User{
		Username:     username,
		PasswordHash: hash,
		Email:        username + "@example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
	})
	require.NoError(t, err)

	for _, role := range roles {
		require.NoError(t, repo.Roles().AssignRole(ctx, user.ID.String(), role))
	}

	return user
}

func ptr(s string) *string {
	return &s
}
