package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/model"
)

const issuer = "auth-practice"

// Identity is the authenticated caller, as carried in a session token.
// Role is embedded in the claims so the role guard never needs a store
// lookup; re-issuing a token is required for a role change to take effect.
type Identity struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// TokenService signs and verifies session tokens.
//
// Tokens are stateless bearer credentials: the payload is
// {sub, email, role, iat, exp} and there is no server-side session table.
// Expiry is the only termination mechanism; rotating the secret invalidates
// every outstanding token.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; the TTL is applied to every token issued with Generate.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the session token payload.
type claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Generate issues a signed token for the user with the service's TTL.
func (s *TokenService) Generate(user *model.User) (string, error) {
	return s.GenerateWithTTL(user, s.ttl)
}

// GenerateWithTTL issues a signed token with a custom lifetime.
func (s *TokenService) GenerateWithTTL(user *model.User, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Validate parses and verifies a token string and returns the Identity it
// carries. It fails with apperror.ErrInvalidToken when the signature is
// wrong, the payload is malformed, or the token has expired — callers get
// the same error kind in every case.
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.InvalidToken("Token has expired")
		}
		return nil, apperror.InvalidToken("")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, apperror.InvalidToken("")
	}

	return &Identity{ID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
