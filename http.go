package auth

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// MessageInternal is the body for anything without a client facing mapping
const MessageInternal = "Internal server error."

// ErrorResponse maps a service error to a status code and a
// {"message": ...} body
func ErrorResponse(err error) (int, router.ViewContext) {
	status, message := classify(err)
	return status, router.ViewContext{
		"message": message,
	}
}

func classify(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case IsUnauthorized(err):
		return http.StatusUnauthorized, richMessage(err, ErrUnauthorized.Message)
	case IsInvalidToken(err):
		return http.StatusBadRequest, ErrInvalidToken.Message
	case IsInvalidCredential(err):
		return http.StatusBadRequest, MessageInvalidCredential
	case IsValidationFailed(err), IsMalformedBody(err):
		return http.StatusBadRequest, richMessage(err, "Bad request.")
	default:
		return http.StatusInternalServerError, MessageInternal
	}
}

func richMessage(err error, fallback string) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return fallback
}

// ErrorHandler writes err as a JSON response and logs server errors
func ErrorHandler(logger Logger) router.ErrorHandler {
	logger = normalizeLogger(logger)
	return func(ctx router.Context, err error) error {
		status, body := ErrorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "error", err)
		}
		return ctx.JSON(status, body)
	}
}

// bindError turns a request binding failure into a malformed body error
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && typeErr.Field != "" {
		expected := "value"
		if typeErr.Type != nil {
			expected = typeErr.Type.String()
		}
		return NewMalformedBodyError(typeErr.Field, "expected "+strings.TrimPrefix(expected, "*"))
	}

	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return NewMalformedBodyError("body", "invalid JSON")
	}

	return NewMalformedBodyError("body", "could not be parsed")
}

// requiredFields reports the first nil field as a malformed body error
func requiredFields(fields ...field) error {
	for _, f := range fields {
		if f.value == nil {
			return NewMalformedBodyError(f.name, "field required")
		}
	}
	return nil
}

type field struct {
	name  string
	value *string
}
