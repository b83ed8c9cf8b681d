package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/shaiq/auth-practice/internal/apperror"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// defaultExchangeTimeout bounds each of the two provider round-trips. A
// provider that never responds must not hang the request.
const defaultExchangeTimeout = 10 * time.Second

// GoogleUser is the subset of Google's userinfo response the app consumes.
type GoogleUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// GoogleProvider executes the OAuth2 authorization-code flow against Google:
// the server-side code-for-token exchange followed by a userinfo fetch with
// the returned access token as a bearer credential.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	timeout     time.Duration
}

// NewGoogleProvider creates a provider for the given OAuth application
// credentials. redirectURI must match the URI registered with Google.
func NewGoogleProvider(clientID, clientSecret, redirectURI string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		timeout:     defaultExchangeTimeout,
	}
}

// AuthURL returns the provider authorization endpoint URL the browser is
// redirected to. access_type=offline and prompt=consent ensure Google
// returns a refresh token on every grant.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for a Google user profile.
//
// Both round-trips are bounded by the provider timeout. Transient transport
// failures are retried once; a provider rejection (non-2xx) is not — a bad
// code stays bad. Any failure surfaces as apperror.ErrOAuthExchange and the
// caller must not have touched the store yet.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.exchangeCode(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, apperror.OAuthExchange(fmt.Sprintf(
				"Failed to exchange code for tokens: provider returned status %d",
				retrieveErr.Response.StatusCode,
			))
		}
		return nil, apperror.OAuthExchange("Failed to exchange code for tokens")
	}

	user, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// exchangeCode POSTs the code, client credentials, redirect URI and grant
// type to the token endpoint. One retry on transport errors only.
func (p *GoogleProvider) exchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil && isTransient(err) && ctx.Err() == nil {
		token, err = p.config.Exchange(ctx, code)
	}
	return token, err
}

func (p *GoogleProvider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUser, error) {
	// The oauth2 client attaches the access token as a bearer credential.
	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.userInfoURL)
	if err != nil && isTransient(err) && ctx.Err() == nil {
		resp, err = client.Get(p.userInfoURL)
	}
	if err != nil {
		return nil, apperror.OAuthExchange("Failed to fetch user info from Google")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.OAuthExchange(fmt.Sprintf(
			"Failed to fetch user info from Google: status %d", resp.StatusCode,
		))
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, apperror.OAuthExchange("Failed to decode Google user info")
	}

	if user.Email == "" {
		return nil, apperror.OAuthExchange("Google returned a profile without an email")
	}

	return &user, nil
}

// isTransient reports whether err is a transport-level failure worth one
// retry. Provider rejections (oauth2.RetrieveError) and context expiry are
// never transient.
func isTransient(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
