package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// pgUniqueViolation is the SQLSTATE for unique constraint failures
const pgUniqueViolation = "23505"

// RegisterUserMessage is the registration input. PasswordConfirm and
// TermsAccepted are never persisted.
type RegisterUserMessage struct {
	Username        string `json:"username" form:"username"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
	Email           string `json:"email" form:"email"`
	FirstName       string `json:"first_name" form:"first_name"`
	LastName        string `json:"last_name" form:"last_name"`
	TermsAccepted   bool   `json:"terms_accepted" form:"terms_accepted"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate runs the format and cross field rules in order. Uniqueness
// needs the store and is checked by the handler.
func (e RegisterUserMessage) Validate() error {
	if err := ValidateUsername(e.Username); err != nil {
		return err
	}
	if err := ValidatePassword(e.Password); err != nil {
		return err
	}
	if err := ValidatePasswordConfirm(e.Password, e.PasswordConfirm); err != nil {
		return err
	}
	return ValidateProfile(e.Email, e.FirstName, e.LastName)
}

// RegisterUserHandler creates inactive users
type RegisterUserHandler struct {
	repo         RepositoryManager
	hasher       PasswordAuthenticator
	useHashid    bool
	timeout      time.Duration
	logger       Logger
	activitySink ActivitySink
	metrics      Metrics
}

var _ Registrar = (*RegisterUserHandler)(nil)

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:         repo,
		hasher:       BcryptHasher{},
		timeout:      10 * time.Second,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		metrics:      noopMetrics{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterUserHandler) WithMetrics(m Metrics) *RegisterUserHandler {
	h.metrics = normalizeMetrics(m)
	return h
}

func (h *RegisterUserHandler) WithPasswordAuthenticator(p PasswordAuthenticator) *RegisterUserHandler {
	if p != nil {
		h.hasher = p
	}
	return h
}

// WithHashid derives user ids from the username plus a random nonce
// instead of plain random uuids
func (h *RegisterUserHandler) WithHashid(enabled bool) *RegisterUserHandler {
	h.useHashid = enabled
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, msg RegisterUserMessage) (*UserProfile, error) {
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(
			ctx.Err(),
			errors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		profile, err := h.execute(ctx, msg)
		h.metrics.ObserveRegister(registerOutcome(err))
		return profile, err
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, msg RegisterUserMessage) (*UserProfile, error) {
	if err := msg.Validate(); err != nil {
		h.logger.Debug("registration rejected", "username", msg.Username, "error", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	hash, err := h.hasher.HashPassword(msg.Password)
	if err != nil {
		if IsValidationFailed(err) {
			return nil, err
		}
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, NewValidationError("password", MsgPasswordBytes)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Username:     msg.Username,
		PasswordHash: hash,
		Email:        msg.Email,
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		IsActive:     false,
	}

	if h.useHashid {
		// salted per registration, a recycled username never gets an old id
		if id, err := hashid.NewUUID(msg.Username + ":" + uuid.NewString()); err == nil {
			user.ID = id
		}
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := h.repo.Users().UsernameExistsTx(ctx, tx, msg.Username)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to check username")
		}
		if exists {
			return NewValidationError("username", MsgUsernameInUse)
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			if isUniqueViolation(err) {
				return NewValidationError("username", MsgUsernameInUse)
			}
			return errors.Wrap(err, errors.CategoryInternal, "could not create user")
		}
		return nil
	})

	if err != nil {
		if IsValidationFailed(err) {
			h.logger.Debug("registration rejected", "username", msg.Username, "error", err)
			return nil, err
		}

		var richErr *errors.Error
		if errors.As(err, &richErr) {
			h.logger.Error("registration failed", "username", msg.Username, "error", err)
			return nil, richErr
		}

		h.logger.Error("registration transaction failed", "username", msg.Username, "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "user registration transaction failed")
	}

	recordActivity(ctx, h.activitySink, h.logger, ActivityEvent{
		EventType: ActivityEventUserRegistered,
		UserID:    user.ID.String(),
		Username:  user.Username,
	})

	return user.Profile(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func registerOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsValidationFailed(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
