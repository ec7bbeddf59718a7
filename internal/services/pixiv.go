// Resilient client for the upstream mobile API.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dandibbert/pixvel/internal/shared"
	"golang.org/x/time/rate"
)

const defaultAPIBaseURL = "https://app-api.pixiv.net"

// TokenRefreshFunc propagates a rotated credential pair back to whoever owns
// persistence. The client holds tokens only for the duration of one logical
// operation; it never writes the store itself.
type TokenRefreshFunc func(accessToken, refreshToken string, expiry time.Time) error

// PixivClientOpts configures a [PixivClient].
type PixivClientOpts struct {
	BaseURL        string // empty selects the production API
	HTTPClient     *http.Client
	OAuth          *OAuthService
	AccessToken    string
	RefreshToken   string
	OnTokenRefresh TokenRefreshFunc
	Limiter        *rate.Limiter // optional client-side pacing of upstream calls
	Logger         *log.Logger
}

// PixivClient wraps upstream calls with the mobile headers, the transient
// failure retry wrapper, and a one-shot refresh-and-retry on authentication
// failure. It is constructed per logical operation from a stored session.
type PixivClient struct {
	baseURL        string
	httpClient     *http.Client
	oauth          *OAuthService
	accessToken    string
	refreshToken   string
	onTokenRefresh TokenRefreshFunc
	limiter        *rate.Limiter
	retry          retryPolicy
	logger         *log.Logger
	now            func() time.Time
}

// NewPixivClient creates a client bound to a live credential pair.
func NewPixivClient(opts PixivClientOpts) *PixivClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultAPIBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OAuth == nil {
		opts.OAuth = NewOAuthService("", opts.HTTPClient)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &PixivClient{
		baseURL:        opts.BaseURL,
		httpClient:     opts.HTTPClient,
		oauth:          opts.OAuth,
		accessToken:    opts.AccessToken,
		refreshToken:   opts.RefreshToken,
		onTokenRefresh: opts.OnTokenRefresh,
		limiter:        opts.Limiter,
		retry:          defaultRetryPolicy(),
		logger:         opts.Logger,
		now:            time.Now,
	}
}

// AccessToken returns the currently held access credential.
func (c *PixivClient) AccessToken() string { return c.accessToken }

// RefreshToken returns the currently held refresh credential.
func (c *PixivClient) RefreshToken() string { return c.refreshToken }

// FetchOptions controls a single structured API call.
type FetchOptions struct {
	Method string // defaults to GET
	Body   any    // JSON-encoded when non-nil
}

// Fetch issues a structured API request and returns the raw JSON response.
//
// The endpoint is a path plus optional query (e.g. "/v2/novel/detail?novel_id=1");
// a filter=for_android parameter is added to every call. On an authentication
// failure the held pair is refreshed exactly once, persisted through the
// refresh callback, and the request reissued with the new token.
func (c *PixivClient) Fetch(ctx context.Context, endpoint string, opts *FetchOptions) (json.RawMessage, error) {
	body, err := c.authRetry(ctx, func(token string) ([]byte, error) {
		return c.doJSON(ctx, endpoint, opts, token)
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// FetchInto issues a request via [PixivClient.Fetch] and decodes the response
// into result.
func (c *PixivClient) FetchInto(ctx context.Context, endpoint string, opts *FetchOptions, result any) error {
	raw, err := c.Fetch(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return nil
}

// WebviewNovel fetches the embedded-webview page for a novel and returns the
// raw HTML. The structured API does not expose novel body text; callers
// extract it from this page.
func (c *PixivClient) WebviewNovel(ctx context.Context, novelID string) (string, error) {
	endpoint := "/webview/v2/novel?id=" + url.QueryEscape(novelID)
	body, err := c.authRetry(ctx, func(token string) ([]byte, error) {
		return c.doWebview(ctx, endpoint, token)
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// authRetry runs call with the current access token; on an authentication
// failure it refreshes the pair once, persists it, and reissues. The sequence
// is strictly ordered: the new pair reaches the store before the retried
// request goes out. A failed refresh, or a failure of the retried call, is
// terminal; there is never a second refresh attempt.
func (c *PixivClient) authRetry(ctx context.Context, call func(token string) ([]byte, error)) ([]byte, error) {
	body, err := call(c.accessToken)
	if err == nil || !errors.Is(err, shared.ErrAuthFailed) {
		return body, err
	}

	c.logger.Debug("access token rejected, refreshing", "error", err)

	bundle, refreshErr := c.oauth.RefreshAccessToken(ctx, c.refreshToken)
	if refreshErr != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, refreshErr)
	}

	c.accessToken = bundle.Token.AccessToken
	c.refreshToken = bundle.Token.RefreshToken

	if c.onTokenRefresh != nil {
		if err := c.onTokenRefresh(bundle.Token.AccessToken, bundle.Token.RefreshToken, bundle.Token.Expiry); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed tokens: %w", err)
		}
	}

	return call(c.accessToken)
}

// doJSON performs one structured API request through the retry wrapper.
func (c *PixivClient) doJSON(ctx context.Context, endpoint string, opts *FetchOptions, token string) ([]byte, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint %q", shared.ErrInvalidInput, endpoint)
	}
	q := u.Query()
	q.Set("filter", "for_android")
	u.RawQuery = q.Encode()

	method := http.MethodGet
	var payload []byte
	if opts != nil {
		if opts.Method != "" {
			method = opts.Method
		}
		if opts.Body != nil {
			if payload, err = json.Marshal(opts.Body); err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
		}
	}

	var body []byte
	err = withRetry(ctx, c.retry, func() error {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		mobileHeaders(req.Header, token, c.now())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		status, respBody, err := c.roundTrip(req)
		if err != nil {
			return err
		}

		class, message := classifyResponse(status, respBody)
		switch class {
		case classOK:
			body = respBody
			return nil
		case classAuth:
			return fmt.Errorf("%w: upstream returned %d: %s", shared.ErrAuthFailed, status, message)
		case classRateLimited:
			return fmt.Errorf("%w (%d): %s", shared.ErrRateLimited, status, message)
		default:
			return &UpstreamError{Status: status, Message: message}
		}
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// doWebview performs one webview page request through the retry wrapper.
// The webview endpoint reports auth failures with a bare 400 or 401.
func (c *PixivClient) doWebview(ctx context.Context, endpoint string, token string) ([]byte, error) {
	var body []byte
	err := withRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		webviewHeaders(req.Header, token)

		status, respBody, err := c.roundTrip(req)
		if err != nil {
			return err
		}

		switch {
		case status >= 200 && status < 300:
			body = respBody
			return nil
		case status == 400 || status == 401:
			return fmt.Errorf("%w: webview returned %d", shared.ErrAuthFailed, status)
		default:
			return &UpstreamError{Status: status, Message: http.StatusText(status)}
		}
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// roundTrip issues one HTTP attempt, classifying transport failures
// (connection refused, timeout, DNS) as transient so the wrapper retries them.
func (c *PixivClient) roundTrip(req *http.Request) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return 0, nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", shared.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading response: %v", shared.ErrTransientNetwork, err)
	}

	return resp.StatusCode, body, nil
}
