package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shaiq/auth-practice/internal/apperror"
	"github.com/shaiq/auth-practice/internal/model"
)

// testErrorWriter mirrors the handler package's mapping closely enough for
// guard tests: 401 for token errors, 403 for permission errors.
func testErrorWriter(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_NoHeader(t *testing.T) {
	ts := newTestTokenService(t)
	guard := RequireAuth(ts, testErrorWriter)

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAuth_BearerWithoutToken(t *testing.T) {
	ts := newTestTokenService(t)
	guard := RequireAuth(ts, testErrorWriter)

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.Header.Set("Authorization", "Bearer")
	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	ts := newTestTokenService(t)
	guard := RequireAuth(ts, testErrorWriter)

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAuth_ValidTokenAttachesIdentity(t *testing.T) {
	ts := newTestTokenService(t)
	guard := RequireAuth(ts, testErrorWriter)

	token, err := ts.Generate(&model.User{ID: "u-9", Email: "a@b.com", Role: model.RoleModerator})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var captured *Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	guard(inner).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if captured == nil {
		t.Fatal("identity was not attached to the context")
	}
	if captured.ID != "u-9" || captured.Email != "a@b.com" || captured.Role != model.RoleModerator {
		t.Errorf("identity = %+v", captured)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)
	guard := RequireAuth(ts, testErrorWriter)

	token, err := ts.GenerateWithTTL(testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateWithTTL: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	guard := RequireRole(testErrorWriter, model.RoleModerator)

	req := httptest.NewRequest(http.MethodGet, "/auth/admin", nil)
	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestRequireRole_WithAccessGuard(t *testing.T) {
	ts := newTestTokenService(t)
	authGuard := RequireAuth(ts, testErrorWriter)

	tests := []struct {
		name       string
		role       model.Role
		required   []model.Role
		wantStatus int
	}{
		{"moderator passes moderator route", model.RoleModerator, []model.Role{model.RoleModerator}, http.StatusOK},
		{"user rejected from moderator route", model.RoleUser, []model.Role{model.RoleModerator}, http.StatusForbidden},
		{"empty role list passes everyone", model.RoleUser, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roleGuard := RequireRole(testErrorWriter, tt.required...)
			token, err := ts.Generate(&model.User{ID: "u-1", Email: "a@b.com", Role: tt.role})
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}

			req := httptest.NewRequest(http.MethodGet, "/auth/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()
			authGuard(roleGuard(okHandler())).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}
