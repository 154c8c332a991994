package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidToken      = "INVALID_TOKEN"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeUnauthorized      = "UNAUTHORIZED"
	TextCodeInvalidCredential = "INVALID_CREDENTIAL"
	TextCodeValidationFailed  = "VALIDATION_FAILED"
	TextCodeMalformedBody     = "MALFORMED_BODY"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// MessageInvalidCredential is shared by every login failure branch
const MessageInvalidCredential = "Username and/or password are incorrect."

// ErrInvalidToken is returned when a token can't be decoded or its subject is gone
var ErrInvalidToken = errors.New("Invalid token.", errors.CategoryAuth).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeInvalidToken)

// ErrTokenExpired is a specialization of ErrInvalidToken used for logging
var ErrTokenExpired = errors.New("Invalid token.", errors.CategoryAuth).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeTokenExpired)

// ErrUnauthorized the identity does not satisfy the route policy
var ErrUnauthorized = errors.New("Unauthorized.", errors.CategoryAuthz).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrInvalidCredential is the only error login returns for bad credentials
var ErrInvalidCredential = errors.New(MessageInvalidCredential, errors.CategoryAuth).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeInvalidCredential)

// ErrMismatchedHashAndPassword password does not match the stored hash
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeInvalidCredential)

// ErrNoEmptyString we refuse to hash empty passwords
var ErrNoEmptyString = errors.New("A password should be passed.", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeEmptyPassword)

// NewUnauthorized returns an authorization failure carrying detail.
// The message reads "Unauthorized. <detail>."
func NewUnauthorized(detail string) *errors.Error {
	detail = strings.TrimSuffix(strings.TrimSpace(detail), ".")
	msg := ErrUnauthorized.Message
	if detail != "" {
		msg = "Unauthorized. " + detail + "."
	}
	return errors.New(msg, errors.CategoryAuthz).
		WithCode(errors.CodeUnauthorized).
		WithTextCode(TextCodeUnauthorized)
}

// NewValidationError returns a registration rule failure for field
func NewValidationError(field, reason string) *errors.Error {
	return errors.New(reason, errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithTextCode(TextCodeValidationFailed).
		WithMetadata(map[string]any{
			"field": field,
		})
}

// NewMalformedBodyError reports a request body that could not be bound
func NewMalformedBodyError(field, reason string) *errors.Error {
	return errors.New(field+" - "+reason, errors.CategoryBadInput).
		WithCode(errors.CodeBadRequest).
		WithTextCode(TextCodeMalformedBody).
		WithMetadata(map[string]any{
			"field": field,
		})
}

func hasTextCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	for _, code := range codes {
		if richErr.TextCode == code {
			return true
		}
	}
	return false
}

// IsInvalidToken matches decode failures and tokens whose user is gone
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken, TextCodeTokenExpired)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsUnauthorized will check for policy denials
func IsUnauthorized(err error) bool {
	return hasTextCode(err, TextCodeUnauthorized)
}

// IsInvalidCredential will check for login failures
func IsInvalidCredential(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredential)
}

// IsValidationFailed will check for registration rule failures
func IsValidationFailed(err error) bool {
	return hasTextCode(err, TextCodeValidationFailed, TextCodeEmptyPassword)
}

// IsMalformedBody will check for request binding failures
func IsMalformedBody(err error) bool {
	return hasTextCode(err, TextCodeMalformedBody)
}
