package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dandibbert/pixvel/internal/models"
	"github.com/dandibbert/pixvel/internal/repositories"
	"github.com/dandibbert/pixvel/internal/services"
	"github.com/dandibbert/pixvel/internal/shared"
	"golang.org/x/time/rate"
)

// sessionCookie is the HTTP-only cookie binding a browser to a stored session.
const sessionCookie = "session_id"

// sessionMaxAge is the cookie lifetime; the session record itself lives until
// logout.
const sessionMaxAge = 30 * 24 * time.Hour

// resolveSession extracts the session cookie and loads the matching record.
// A missing cookie, absent record, or expired access token yields an error
// the caller maps to 401.
func resolveSession(r *http.Request, sessions *repositories.SessionRepository) (string, *models.Session, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", nil, fmt.Errorf("%w: no session cookie", shared.ErrSessionNotFound)
	}

	session, err := sessions.Get(cookie.Value)
	if err != nil {
		return "", nil, err
	}

	if session.Expired(time.Now()) {
		return "", nil, fmt.Errorf("%w: access token expired", shared.ErrSessionExpired)
	}

	return cookie.Value, session, nil
}

// setSessionCookie writes the HTTP-only session cookie. Secure is set in
// production so the cookie only travels over TLS.
func setSessionCookie(w http.ResponseWriter, sessionID string, production bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter, production bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClientFactory builds a [services.PixivClient] bound to a stored session,
// wiring the token refresh callback back into the session store. Handlers
// never persist tokens themselves.
type ClientFactory struct {
	Sessions   *repositories.SessionRepository
	OAuth      *services.OAuthService
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *log.Logger
}

// For returns a client holding the session's current credential pair. Any
// refresh the client performs is written through to the store before the
// retried request is issued.
func (f *ClientFactory) For(sessionID string, session *models.Session) *services.PixivClient {
	return services.NewPixivClient(services.PixivClientOpts{
		BaseURL:      f.BaseURL,
		HTTPClient:   f.HTTPClient,
		OAuth:        f.OAuth,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		Limiter:      f.Limiter,
		Logger:       f.Logger,
		OnTokenRefresh: func(accessToken, refreshToken string, expiry time.Time) error {
			return f.Sessions.UpdateTokens(sessionID, accessToken, refreshToken, expiry.UnixMilli())
		},
	})
}
