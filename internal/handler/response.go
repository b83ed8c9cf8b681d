// Package handler exposes the HTTP surface. Every response uses the same
// envelope so clients always know what fields to expect, and every domain
// error is mapped to a status code in exactly one place.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/shaiq/auth-practice/internal/apperror"
)

// ApiResponse is the envelope for every API response, success or failure.
type ApiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// validate is shared by all request DTOs. Struct-level required is enabled
// so a missing body section fails loudly instead of passing zero values.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// password_strength requires at least one lowercase letter, one
	// uppercase letter, and one digit or symbol.
	v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		var lower, upper, other bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
				other = true
			}
		}
		return lower && upper && other
	})

	return v
}

// writeJSON sends a JSON body with the given status. Headers and status
// must be written before the body; encode failures can only be logged.
func writeJSON(w http.ResponseWriter, status int, body ApiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding JSON response", slog.String("error", err.Error()))
	}
}

// writeSuccess sends a success envelope.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, ApiResponse{Success: true, Message: message, Data: data})
}

// writeError maps a domain error to its HTTP status and sends the failure
// envelope. The service layer knows nothing about status codes; this is the
// only place the mapping lives.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "An internal error occurred"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrInvalidCredentials), errors.Is(err, apperror.ErrInvalidToken):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, apperror.ErrOAuthExchange):
			status = http.StatusBadGateway
		case errors.Is(err, apperror.ErrConfiguration):
			status = http.StatusInternalServerError
		default:
			message = "An internal error occurred"
		}
	}

	if status == http.StatusInternalServerError {
		// Raw internals (SQL, file paths) must never reach the client.
		slog.Error("request failed", slog.String("error", err.Error()))
	}

	writeJSON(w, status, ApiResponse{Success: false, Message: message, Error: message})
}

// WriteError renders a domain error with the standard envelope. It is the
// error renderer handed to the route guards, which live outside this
// package.
func WriteError(w http.ResponseWriter, err error) { writeError(w, err) }

// decodeAndValidate parses the JSON body into dst and runs the validator.
// Malformed JSON and failed rules both come back as apperror.ErrValidation.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "Invalid request body")
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperror.ValidationFailed(fe.Field(), validationMessage(fe))
		}
		return apperror.ValidationFailed("body", "Invalid request body")
	}

	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "password_strength":
		return fmt.Sprintf("%s must contain an uppercase letter, a lowercase letter, and a digit or symbol", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
