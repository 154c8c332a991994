package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// AuthorizedIdentity is the caller as seen by a protected route
type AuthorizedIdentity struct {
	UUID        string   `json:"uuid"`
	Username    string   `json:"username"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	IsActive    bool     `json:"is_active"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// HasRole reports whether the identity holds role
func (a *AuthorizedIdentity) HasRole(role string) bool {
	return a != nil && intersects([]string{role}, a.Roles)
}

// Can reports whether the identity holds permission
func (a *AuthorizedIdentity) Can(permission string) bool {
	return a != nil && intersects([]string{permission}, a.Permissions)
}

// Authorizer resolves a bearer token into an AuthorizedIdentity
type Authorizer struct {
	tokens       TokenService
	store        CredentialStore
	logger       Logger
	activitySink ActivitySink
	metrics      Metrics
}

var _ AuthorizationEngine = (*Authorizer)(nil)

// NewAuthorizer returns a new Authorizer
func NewAuthorizer(tokens TokenService, store CredentialStore) *Authorizer {
	return &Authorizer{
		tokens:       tokens,
		store:        store,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		metrics:      noopMetrics{},
	}
}

func (s *Authorizer) WithLogger(logger Logger) *Authorizer {
	s.logger = normalizeLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting decisions.
func (s *Authorizer) WithActivitySink(sink ActivitySink) *Authorizer {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

func (s *Authorizer) WithMetrics(m Metrics) *Authorizer {
	s.metrics = normalizeMetrics(m)
	return s
}

// Authorize decodes token, loads the user with roles and permissions
// and evaluates policy. A token whose user no longer exists is an
// invalid token, not an authorization failure.
func (s *Authorizer) Authorize(ctx context.Context, token string, policy Policy) (*AuthorizedIdentity, error) {
	started := time.Now()

	claims, err := s.tokens.Decode(token)
	if err != nil {
		s.logger.Debug("authorize rejected token", "expired", IsTokenExpiredError(err))
		s.observe(ctx, started, OutcomeInvalidToken, ActivityEvent{
			EventType: ActivityEventAccessInvalidated,
		})
		return nil, err
	}

	userID := claims.UserID()

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if IsRecordNotFound(err) {
			s.logger.Info("authorize token subject not found", "user_id", userID)
			s.observe(ctx, started, OutcomeInvalidToken, ActivityEvent{
				EventType: ActivityEventAccessInvalidated,
				UserID:    userID,
			})
			return nil, ErrInvalidToken
		}
		s.logger.Error("authorize failed to load user", "user_id", userID, "error", err)
		s.metrics.ObserveAuthorize(OutcomeError, time.Since(started))
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	roles := user.RoleNames()

	permissions, err := s.store.PermissionNamesOf(ctx, roles)
	if err != nil {
		s.logger.Error("authorize failed to resolve permissions", "user_id", userID, "error", err)
		s.metrics.ObserveAuthorize(OutcomeError, time.Since(started))
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve permissions")
	}
	permissions = dedupe(permissions)

	if !policy.Allows(roles, permissions) {
		detail := policy.Denial(roles, permissions)
		s.logger.Info("authorize denied",
			"user_id", userID,
			"required_roles", policy.AnyRoles,
			"required_permissions", policy.AnyPermissions,
		)
		s.observe(ctx, started, OutcomeDenied, ActivityEvent{
			EventType: ActivityEventAccessDenied,
			UserID:    userID,
			Username:  user.Username,
			Metadata: map[string]any{
				"required_roles":       policy.AnyRoles,
				"required_permissions": policy.AnyPermissions,
			},
		})
		return nil, NewUnauthorized(detail)
	}

	s.logger.Debug("authorize granted",
		"user_id", userID,
		"required_roles", policy.AnyRoles,
		"required_permissions", policy.AnyPermissions,
	)
	s.observe(ctx, started, OutcomeGranted, ActivityEvent{
		EventType: ActivityEventAccessGranted,
		UserID:    userID,
		Username:  user.Username,
	})

	return &AuthorizedIdentity{
		UUID:        user.ID.String(),
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		IsActive:    user.IsActive,
		Roles:       roles,
		Permissions: permissions,
	}, nil
}

func (s *Authorizer) observe(ctx context.Context, started time.Time, outcome string, event ActivityEvent) {
	s.metrics.ObserveAuthorize(outcome, time.Since(started))
	recordActivity(ctx, s.activitySink, s.logger, event)
}
