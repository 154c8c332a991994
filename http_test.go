package auth

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "unauthorized",
			err:     NewUnauthorized("User requires one of roles [admin]"),
			status:  http.StatusUnauthorized,
			message: "Unauthorized. User requires one of roles [admin].",
		},
		{
			name:    "invalid token",
			err:     ErrInvalidToken,
			status:  http.StatusBadRequest,
			message: "Invalid token.",
		},
		{
			name:    "expired token reads as invalid",
			err:     ErrTokenExpired,
			status:  http.StatusBadRequest,
			message: "Invalid token.",
		},
		{
			name:    "invalid credential",
			err:     ErrInvalidCredential,
			status:  http.StatusBadRequest,
			message: "Username and/or password are incorrect.",
		},
		{
			name:    "hash mismatch reads as invalid credential",
			err:     ErrMismatchedHashAndPassword,
			status:  http.StatusBadRequest,
			message: "Username and/or password are incorrect.",
		},
		{
			name:    "validation",
			err:     NewValidationError("password_confirm", MsgPasswordsDiffer),
			status:  http.StatusBadRequest,
			message: MsgPasswordsDiffer,
		},
		{
			name:    "malformed body",
			err:     NewMalformedBodyError("username", "field required"),
			status:  http.StatusBadRequest,
			message: "username - field required",
		},
		{
			name:    "internal rich error",
			err:     errors.Wrap(stderrors.New("pq: connection refused"), errors.CategoryInternal, "failed to load user"),
			status:  http.StatusInternalServerError,
			message: MessageInternal,
		},
		{
			name:    "plain error",
			err:     stderrors.New("boom"),
			status:  http.StatusInternalServerError,
			message: MessageInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ErrorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["message"])
			assert.Len(t, body, 1)
		})
	}
}

func TestBindError(t *testing.T) {
	var payload LoginRequest

	typeErr := json.Unmarshal([]byte(`{"username": 42}`), &payload)
	require.Error(t, typeErr)
	err := bindError(typeErr)
	assert.True(t, IsMalformedBody(err))
	_, body := ErrorResponse(err)
	assert.Equal(t, "username - expected string", body["message"])

	syntaxErr := json.Unmarshal([]byte(`{"username":`), &payload)
	require.Error(t, syntaxErr)
	_, body = ErrorResponse(bindError(syntaxErr))
	assert.Equal(t, "body - invalid JSON", body["message"])

	_, body = ErrorResponse(bindError(stderrors.New("unsupported content type")))
	assert.Equal(t, "body - could not be parsed", body["message"])
}

func TestRequiredFields(t *testing.T) {
	username := "janedoe"
	empty := ""

	assert.NoError(t, requiredFields(field{"username", &username}, field{"password", &empty}))

	err := requiredFields(field{"username", &username}, field{"password", nil}, field{"email", nil})
	require.Error(t, err)
	_, body := ErrorResponse(err)
	assert.Equal(t, "password - field required", body["message"])
}

func TestErrorHandlerWritesJSONAndLogsServerErrors(t *testing.T) {
	logger := &testLogger{}
	handler := ErrorHandler(logger)

	ctx := router.NewMockContext()
	var body router.ViewContext
	ctx.On("JSON", http.StatusInternalServerError, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1).(router.ViewContext)
	}).Return(nil)

	require.NoError(t, handler(ctx, stderrors.New("database is locked")))
	assert.Equal(t, MessageInternal, body["message"])
	assert.Equal(t, 1, logger.errors)

	ctx = router.NewMockContext()
	ctx.On("JSON", http.StatusBadRequest, mock.Anything).Return(nil)
	require.NoError(t, handler(ctx, ErrInvalidToken))
	assert.Equal(t, 1, logger.errors)
	ctx.AssertExpectations(t)
}

type testLogger struct {
	errors int
}

func (l *testLogger) Debug(string, ...any) {}
func (l *testLogger) Info(string, ...any)  {}
func (l *testLogger) Warn(string, ...any)  {}
func (l *testLogger) Error(string, ...any) { l.errors++ }
