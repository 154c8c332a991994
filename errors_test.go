package auth_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-authz"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name              string
		err               error
		invalidToken      bool
		expired           bool
		unauthorized      bool
		invalidCredential bool
		validation        bool
		malformed         bool
	}{
		{name: "invalid token", err: auth.ErrInvalidToken, invalidToken: true},
		{name: "expired token", err: auth.ErrTokenExpired, invalidToken: true, expired: true},
		{name: "unauthorized", err: auth.NewUnauthorized("User requires one of roles [admin]"), unauthorized: true},
		{name: "invalid credential", err: auth.ErrInvalidCredential, invalidCredential: true},
		{name: "hash mismatch", err: auth.ErrMismatchedHashAndPassword, invalidCredential: true},
		{name: "validation", err: auth.NewValidationError("username", auth.MsgUsernameInUse), validation: true},
		{name: "empty password", err: auth.ErrNoEmptyString, validation: true},
		{name: "malformed body", err: auth.NewMalformedBodyError("username", "field required"), malformed: true},
		{name: "wrapped invalid token", err: fmt.Errorf("decode: %w", auth.ErrInvalidToken), invalidToken: true},
		{name: "plain error", err: stderrors.New("boom")},
		{name: "expiry text without code", err: stderrors.New("token has invalid claims: token is expired")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.invalidToken, auth.IsInvalidToken(tt.err))
			assert.Equal(t, tt.expired, auth.IsTokenExpiredError(tt.err))
			assert.Equal(t, tt.unauthorized, auth.IsUnauthorized(tt.err))
			assert.Equal(t, tt.invalidCredential, auth.IsInvalidCredential(tt.err))
			assert.Equal(t, tt.validation, auth.IsValidationFailed(tt.err))
			assert.Equal(t, tt.malformed, auth.IsMalformedBody(tt.err))
		})
	}
}

func TestNewUnauthorizedMessage(t *testing.T) {
	tests := []struct {
		detail string
		want   string
	}{
		{detail: "User requires one of roles [admin]", want: "Unauthorized. User requires one of roles [admin]."},
		{detail: "already terminated.", want: "Unauthorized. already terminated."},
		{detail: "", want: "Unauthorized."},
	}

	for _, tt := range tests {
		err := auth.NewUnauthorized(tt.detail)
		assert.Equal(t, tt.want, err.Message)
		assert.Equal(t, errors.CategoryAuthz, err.Category)
	}
}

func TestValidationErrorCarriesField(t *testing.T) {
	err := auth.NewValidationError("password_confirm", auth.MsgPasswordsDiffer)

	assert.Equal(t, auth.MsgPasswordsDiffer, err.Message)
	assert.Equal(t, errors.CategoryValidation, err.Category)
	require.NotNil(t, err.Metadata)
	assert.Equal(t, "password_confirm", err.Metadata["field"])
}

func TestMalformedBodyMessage(t *testing.T) {
	err := auth.NewMalformedBodyError("password", "expected string")
	assert.Equal(t, "password - expected string", err.Message)
	assert.Equal(t, errors.CategoryBadInput, err.Category)
}
