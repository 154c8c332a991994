package auth

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// Auther implements Authenticator on top of a CredentialStore
type Auther struct {
	store        CredentialStore
	tokenService TokenService
	hasher       PasswordAuthenticator
	clock        Clock
	logger       Logger
	activitySink ActivitySink
	metrics      Metrics

	decoyOnce sync.Once
	decoyHash string
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store CredentialStore, tokenService TokenService) *Auther {
	return &Auther{
		store:        store,
		tokenService: tokenService,
		hasher:       BcryptHasher{},
		clock:        time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		metrics:      noopMetrics{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

func (s *Auther) WithMetrics(m Metrics) *Auther {
	s.metrics = normalizeMetrics(m)
	return s
}

func (s *Auther) WithPasswordAuthenticator(h PasswordAuthenticator) *Auther {
	if h != nil {
		s.hasher = h
	}
	return s
}

// WithClock sets the time used as the token iat
func (s *Auther) WithClock(clock Clock) *Auther {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login returns a token for a matching username and password. Unknown
// usernames and wrong passwords fail with the same ErrInvalidCredential.
func (s *Auther) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if IsRecordNotFound(err) {
			s.logger.Info("login unknown username")
			s.compareDecoy(password)
			s.loginFailed(ctx, "", username, "unknown_username")
			return "", ErrInvalidCredential
		}
		s.logger.Error("login failed to load user", "error", err)
		s.metrics.ObserveLogin(OutcomeError)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Info("login password mismatch", "user_id", user.ID.String())
		s.loginFailed(ctx, user.ID.String(), username, "password_mismatch")
		return "", ErrInvalidCredential
	}

	token, err := s.tokenService.Issue(user.ID.String(), s.clock())
	if err != nil {
		s.logger.Error("login failed to issue token", "user_id", user.ID.String(), "error", err)
		s.metrics.ObserveLogin(OutcomeError)
		return "", err
	}

	s.metrics.ObserveLogin(OutcomeSuccess)
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.ID.String(),
		Username:  user.Username,
	})

	return token, nil
}

func (s *Auther) loginFailed(ctx context.Context, userID, username, reason string) {
	s.metrics.ObserveLogin(OutcomeFailure)
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		UserID:    userID,
		Username:  username,
		Metadata: map[string]any{
			"reason": reason,
		},
	})
}

// compareDecoy spends a hash comparison on unknown usernames so both
// failure branches take about the same time
func (s *Auther) compareDecoy(password string) {
	s.decoyOnce.Do(func() {
		s.decoyHash, _ = s.hasher.HashPassword("decoy-Passw0rd!")
	})
	if s.decoyHash != "" {
		_ = s.hasher.ComparePasswordAndHash(password, s.decoyHash)
	}
}
