package auth

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/model"
)

// contextKey is unexported so only this package can read or write the
// identity value in a request context.
type contextKey string

const identityKey contextKey = "identity"

// ErrorWriter renders an auth failure as an HTTP response. The handler
// package supplies its ApiResponse envelope here so the guards stay free of
// response-format knowledge.
type ErrorWriter func(w http.ResponseWriter, err error)

// RequireAuth is the access guard applied to protected routes.
//
// It extracts the bearer token from the Authorization header, verifies it,
// and attaches the resulting Identity to the request context. A missing
// header or token segment fails with "No token provided"; a failed
// verification fails with the generic invalid-token error — verification
// internals are never leaked to the client.
func RequireAuth(tokens *TokenService, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := identityFromRequest(r, tokens)
			if err != nil {
				writeErr(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is the role guard, applied after RequireAuth. An empty role
// list means no restriction. A request with no attached identity (guard
// ordering violated) or a role outside the required set is rejected with
// the insufficient-permissions error.
func RequireRole(writeErr ErrorWriter, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeErr(w, errNotAuthenticated())
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, identity.Role) {
				writeErr(w, errMissingRole(identity.Role, roles))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated identity attached by
// RequireAuth. Returns (nil, false) when the request is anonymous.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok && identity != nil
}

func identityFromRequest(r *http.Request, tokens *TokenService) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errNoToken()
	}

	// Expected shape: "Bearer <token>".
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, errNoToken()
	}

	return tokens.Validate(parts[1])
}

func errNoToken() error {
	return apperror.InvalidToken("No token provided")
}

func errNotAuthenticated() error {
	return apperror.Forbidden("User not authenticated")
}

func errMissingRole(got model.Role, required []model.Role) error {
	names := make([]string, len(required))
	for i, r := range required {
		names[i] = string(r)
	}
	return apperror.Forbidden(fmt.Sprintf(
		"User role '%s' does not have required permissions. Required: %s",
		got, strings.Join(names, ", "),
	))
}
