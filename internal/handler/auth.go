package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/auth"
	"github.com/shaiq/auth-practice/internal/model"
	"github.com/shaiq/auth-practice/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler serves registration, login, the password-reset pair, the
// Google OAuth flow, and the guarded identity endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,password_strength"`
}

// authPayload is the data section of a successful authentication response.
type authPayload struct {
	User        *model.User `json:"user"`
	AccessToken string      `json:"accessToken"`
	ExpiresIn   int64       `json:"expiresIn"`
}

func toAuthPayload(result *service.AuthResult) authPayload {
	return authPayload{
		User:        result.User,
		AccessToken: result.Token,
		ExpiresIn:   result.ExpiresIn,
	}
}

// HandleRegister creates an account and signs the user in.
//
// HTTP: POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User registered successfully", toAuthPayload(result))
}

// HandleLogin verifies credentials and issues a token.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", toAuthPayload(result))
}

// HandleCurrentUser returns the identity of the calling token.
//
// HTTP: GET /auth/user (guarded)
func (h *AuthHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth; kept as a guard.
		writeError(w, apperror.Forbidden("User not authenticated"))
		return
	}

	writeSuccess(w, http.StatusOK, "Authenticated user", identity)
}

// HandleAdmin is the moderator-only probe endpoint.
//
// HTTP: GET /auth/admin (guarded, role moderator)
func (h *AuthHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	writeSuccess(w, http.StatusOK,
		fmt.Sprintf("Welcome, moderator %s", identity.Email), identity)
}

// HandleGoogleLogin redirects the browser to Google's authorization page.
// A random state value is stored in a short-lived HttpOnly cookie and
// checked on callback, so the callback must come from a flow this server
// started.
//
// HTTP: GET /auth/google
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	url, err := h.auth.GoogleAuthURL(state)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth flow: state check, code
// exchange, account lookup or creation, token issue.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: authorization denied", slog.String("error", errParam))
		writeError(w, apperror.OAuthExchange("Authorization was denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "Missing authorization code"))
		return
	}

	result, err := h.auth.HandleGoogleCallback(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", toAuthPayload(result))
}

// HandleForgotPassword starts the reset flow for the given email.
//
// HTTP: POST /auth/forgot-password
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password reset email sent", nil)
}

// HandleResetPassword consumes a reset token and sets the new password.
//
// HTTP: POST /auth/reset-password
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password reset successfully", nil)
}
