// Package apperror defines the application's error taxonomy.
//
// Services return these errors; the HTTP layer maps them to status codes in
// one place (handler/response.go). The sentinels support errors.Is checks
// across wrapping, and AppError carries the user-facing message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrOAuthExchange      = errors.New("oauth exchange failed")
	ErrConfiguration      = errors.New("configuration error")
)

// AppError pairs a sentinel kind with a human-readable message.
type AppError struct {
	Err     error  // sentinel kind, matched with errors.Is
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, identifier string) *AppError {
	if identifier == "" {
		return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
	}
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with %s not found", resource, identifier),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return &AppError{Err: ErrForbidden, Message: message}
}

// InvalidCredentials is returned on login failure. The same error covers
// both "no such user" and "wrong password" so the response never reveals
// which field was wrong.
func InvalidCredentials() *AppError {
	return &AppError{Err: ErrInvalidCredentials, Message: "Invalid email or password"}
}

// InvalidToken covers missing, malformed and expired bearer or reset tokens.
func InvalidToken(message string) *AppError {
	if message == "" {
		message = "Invalid or expired token"
	}
	return &AppError{Err: ErrInvalidToken, Message: message}
}

// OAuthExchange is returned when the identity provider rejects a code or a
// transport error aborts the exchange.
func OAuthExchange(message string) *AppError {
	if message == "" {
		message = "OAuth exchange failed"
	}
	return &AppError{Err: ErrOAuthExchange, Message: message}
}

// Configuration indicates a required external-service credential is unset.
func Configuration(message string) *AppError {
	return &AppError{Err: ErrConfiguration, Message: message}
}
