// Package service holds the business logic layer. It sits between the HTTP
// handlers and the repositories:
//
//	handler (HTTP) → service (business rules) → repository (DB)
//	              ↘ auth primitives (JWT, bcrypt, OAuth)
//
// Services never touch HTTP types; handlers never touch the store directly.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/auth"
	"github.com/shaiq/auth-practice/internal/mail"
	"github.com/shaiq/auth-practice/internal/model"
	"github.com/shaiq/auth-practice/internal/repository"
)

// OAuthProvider is the slice of the Google client the orchestrator needs.
// Declared here so tests can substitute a fake without spinning up HTTP.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// AuthService orchestrates registration, login, password reset and the
// Google OAuth callback.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	google    OAuthProvider // nil when Google OAuth is not configured
	mailer    mail.Sender
	resetTTL  time.Duration
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// google may be nil; the OAuth operations then fail with a configuration
// error instead of a panic.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	google OAuthProvider,
	mailer mail.Sender,
	resetTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		google:    google,
		mailer:    mailer,
		resetTTL:  resetTTL,
		logger:    logger,
	}
}

// RegisterParams carries the fields of a registration request.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult bundles the authenticated user with the issued token so the
// handler can respond in one step.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresIn int64 // seconds until the token expires
}

// Register creates a credential-backed account and signs the user in.
// A duplicate email surfaces as apperror.ErrConflict from the store.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	hash, err := s.passwords.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        params.Email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueToken(user)
}

// Login verifies the credentials and issues a token. A missing account and a
// wrong password produce the same error, so a caller cannot tell which one
// failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, err
	}

	// OAuth-only accounts have no password hash; Verify fails on an empty
	// hash, which is exactly the behavior we want here.
	if !s.passwords.Verify(user.PasswordHash, password) {
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issueToken(user)
}

// ForgotPassword stores a fresh reset token on the account and mails the
// reset link. If the mail cannot be sent, the token is cleared again so a
// stale token never lingers on the account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("service/auth: generating reset token: %w", err)
	}

	expiry := time.Now().Add(s.resetTTL)
	if err := s.users.UpdatePasswordResetToken(ctx, user.ID, token, expiry); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, user.DisplayName(), token); err != nil {
		if clearErr := s.users.ClearPasswordResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("clearing reset token after mail failure",
				slog.String("userID", user.ID),
				slog.String("error", clearErr.Error()),
			)
		}
		return err
	}

	s.logger.Info("password reset requested", slog.String("userID", user.ID))
	return nil
}

// ResetPassword consumes a reset token and sets the new password. The token
// and its expiry are cleared in the same store update that writes the hash,
// so the token cannot be replayed.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.FindByResetToken(ctx, token)
	if err != nil {
		return err
	}

	if user.PasswordResetExpires.Before(time.Now()) {
		return apperror.InvalidToken("Invalid or expired token")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/auth: hashing new password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordChangedEmail(user.Email, user.DisplayName()); err != nil {
		return err
	}

	s.logger.Info("password reset completed", slog.String("userID", user.ID))
	return nil
}

// GoogleAuthURL returns the provider authorization URL for the given state.
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", apperror.Configuration("Google OAuth is not configured")
	}
	return s.google.AuthURL(state), nil
}

// HandleGoogleCallback exchanges the authorization code for a profile, finds
// or creates the matching account, and signs the user in. The store is only
// touched after the provider returned a complete profile.
func (s *AuthService) HandleGoogleCallback(ctx context.Context, code string) (*AuthResult, error) {
	if s.google == nil {
		return nil, apperror.Configuration("Google OAuth is not configured")
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if user.GoogleID == "" {
			user.GoogleID = profile.ID
			if user.AvatarURL == "" {
				user.AvatarURL = profile.Picture
			}
			if err := s.users.Update(ctx, user); err != nil {
				return nil, err
			}
		}
	case errors.Is(err, apperror.ErrNotFound):
		first, last := splitProfileName(profile)
		user = &model.User{
			Email:     profile.Email,
			Role:      model.RoleUser,
			GoogleID:  profile.ID,
			FirstName: first,
			LastName:  last,
			AvatarURL: profile.Picture,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user registered via Google", slog.String("userID", user.ID))
	default:
		return nil, err
	}

	s.logger.Info("user logged in via Google", slog.String("userID", user.ID))

	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}

// generateResetToken returns 32 random bytes hex-encoded.
func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// splitProfileName derives first/last names from a Google profile. The
// structured fields win; otherwise the display name is split on spaces, and
// an entirely nameless profile falls back to "User".
func splitProfileName(profile *auth.GoogleUser) (first, last string) {
	first = profile.GivenName
	last = profile.FamilyName

	if first == "" && profile.Name != "" {
		parts := strings.Fields(profile.Name)
		first = parts[0]
		if last == "" && len(parts) > 1 {
			last = parts[1]
		}
	}
	if first == "" {
		first = "User"
	}

	return first, last
}
