// Token exchange against the platform OAuth endpoint.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dandibbert/pixvel/internal/shared"
	"golang.org/x/oauth2"
)

const defaultTokenURL = "https://oauth.secure.pixiv.net/auth/token"

// AccountUser is the minimal profile returned alongside a token grant.
type AccountUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Account string `json:"account"`
}

// TokenBundle is the result of a successful refresh grant: the rotated
// credential pair plus the account profile it belongs to.
type TokenBundle struct {
	Token *oauth2.Token
	User  AccountUser
}

// ExpiresAtMilli returns the access token expiry as epoch milliseconds, the
// representation the session store persists.
func (b *TokenBundle) ExpiresAtMilli() int64 {
	return b.Token.Expiry.UnixMilli()
}

// OAuthService exchanges a long-lived refresh credential for a short-lived
// access credential. Pure request/response; persistence is the caller's job.
//
// The token endpoint validates the mobile client fingerprint headers and the
// signed timestamp pair, not just the grant itself, so the exchange is a
// hand-built form POST rather than an [oauth2.Config] flow.
type OAuthService struct {
	tokenURL   string
	httpClient *http.Client
	retry      retryPolicy
	now        func() time.Time
}

// NewOAuthService creates a token service pointed at tokenURL.
// An empty tokenURL selects the production endpoint.
func NewOAuthService(tokenURL string, client *http.Client) *OAuthService {
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &OAuthService{
		tokenURL:   tokenURL,
		httpClient: client,
		retry:      defaultRetryPolicy(),
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Account string `json:"account"`
	} `json:"user"`
}

// RefreshAccessToken performs the refresh_token grant.
//
// On any non-2xx response it fails with an error wrapping
// [shared.ErrAuthFailed] carrying the upstream status and body text. A failed
// refresh is terminal for that credential: the refresh token may already be
// invalidated, so callers must not re-attempt with the same value. Only
// transient transport failures go through the generic retry wrapper.
func (s *OAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenBundle, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token", shared.ErrMissingArgument)
	}

	form := url.Values{
		"grant_type":     {"refresh_token"},
		"refresh_token":  {refreshToken},
		"client_id":      {oauthClientID},
		"client_secret":  {oauthClientSecret},
		"include_policy": {"true"},
	}
	payload := form.Encode()

	var parsed tokenResponse

	err := withRetry(ctx, s.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create token request: %w", err)
		}

		mobileHeaders(req.Header, "", s.now())
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrTransientNetwork, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: reading token response: %v", shared.ErrTransientNetwork, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: token endpoint returned %d: %s", shared.ErrAuthFailed, resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("failed to decode token response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TokenBundle{
		Token: &oauth2.Token{
			AccessToken:  parsed.AccessToken,
			RefreshToken: parsed.RefreshToken,
			Expiry:       s.now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
		},
		User: AccountUser{
			ID:      parsed.User.ID,
			Name:    parsed.User.Name,
			Account: parsed.User.Account,
		},
	}, nil
}
