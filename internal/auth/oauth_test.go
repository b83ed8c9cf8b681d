package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/shaiq/auth-practice/internal/apperror"
)

// fakeGoogle stands in for Google's token and userinfo endpoints.
type fakeGoogle struct {
	tokenStatus    int
	userInfoStatus int
	userInfo       GoogleUser

	tokenCalls    int
	userInfoCalls int
}

func (f *fakeGoogle) start(t *testing.T) (*httptest.Server, *GoogleProvider) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls++
		if f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fake-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.userInfoCalls++
		if got := r.Header.Get("Authorization"); !strings.Contains(got, "fake-access-token") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.userInfoStatus != http.StatusOK {
			w.WriteHeader(f.userInfoStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.userInfo)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider := NewGoogleProvider("client-id", "client-secret", "http://localhost/callback")
	provider.config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	provider.userInfoURL = srv.URL + "/userinfo"

	return srv, provider
}

func TestAuthURL_CarriesRequiredParams(t *testing.T) {
	provider := NewGoogleProvider("my-client", "my-secret", "http://localhost:8080/auth/google/callback")

	url := provider.AuthURL("state-123")

	for _, want := range []string{
		"client_id=my-client",
		"state=state-123",
		"access_type=offline",
		"prompt=consent",
		"scope=openid+profile+email",
	} {
		if !strings.Contains(url, want) {
			t.Errorf("AuthURL missing %q in %q", want, url)
		}
	}
}

func TestExchange_Success(t *testing.T) {
	fake := &fakeGoogle{
		tokenStatus:    http.StatusOK,
		userInfoStatus: http.StatusOK,
		userInfo: GoogleUser{
			ID:         "google-123",
			Email:      "octo@gmail.com",
			GivenName:  "Octo",
			FamilyName: "Cat",
			Picture:    "https://example.com/p.png",
		},
	}
	_, provider := fake.start(t)

	user, err := provider.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if user.Email != "octo@gmail.com" {
		t.Errorf("user.Email = %q", user.Email)
	}
	if user.GivenName != "Octo" || user.FamilyName != "Cat" {
		t.Errorf("user names = %q %q", user.GivenName, user.FamilyName)
	}
}

func TestExchange_TokenEndpointRejectsCode(t *testing.T) {
	fake := &fakeGoogle{tokenStatus: http.StatusBadRequest}
	_, provider := fake.start(t)

	_, err := provider.Exchange(context.Background(), "bad-code")
	if !errors.Is(err, apperror.ErrOAuthExchange) {
		t.Fatalf("error = %v, want ErrOAuthExchange", err)
	}
	if fake.tokenCalls != 1 {
		t.Errorf("token endpoint called %d times, want 1 (no retry on provider rejection)", fake.tokenCalls)
	}
	if fake.userInfoCalls != 0 {
		t.Errorf("userinfo called %d times after failed exchange, want 0", fake.userInfoCalls)
	}
}

func TestExchange_UserInfoFailure(t *testing.T) {
	fake := &fakeGoogle{tokenStatus: http.StatusOK, userInfoStatus: http.StatusInternalServerError}
	_, provider := fake.start(t)

	_, err := provider.Exchange(context.Background(), "good-code")
	if !errors.Is(err, apperror.ErrOAuthExchange) {
		t.Fatalf("error = %v, want ErrOAuthExchange", err)
	}
}

func TestExchange_ProfileWithoutEmail(t *testing.T) {
	fake := &fakeGoogle{
		tokenStatus:    http.StatusOK,
		userInfoStatus: http.StatusOK,
		userInfo:       GoogleUser{ID: "google-123"},
	}
	_, provider := fake.start(t)

	_, err := provider.Exchange(context.Background(), "good-code")
	if !errors.Is(err, apperror.ErrOAuthExchange) {
		t.Fatalf("error = %v, want ErrOAuthExchange", err)
	}
}

func TestExchange_TransportErrorSurfacesAsOAuthExchange(t *testing.T) {
	fake := &fakeGoogle{tokenStatus: http.StatusOK, userInfoStatus: http.StatusOK}
	srv, provider := fake.start(t)
	srv.Close() // nothing listening any more

	_, err := provider.Exchange(context.Background(), "good-code")
	if !errors.Is(err, apperror.ErrOAuthExchange) {
		t.Fatalf("error = %v, want ErrOAuthExchange", err)
	}
}
