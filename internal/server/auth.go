package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dandibbert/pixvel/internal/models"
	"github.com/dandibbert/pixvel/internal/repositories"
	"github.com/dandibbert/pixvel/internal/services"
	"github.com/dandibbert/pixvel/internal/shared"
)

// AuthHandler implements session lifecycle: exchanging a user-supplied
// refresh credential for a session, reporting status, forcing a refresh, and
// logout.
type AuthHandler struct {
	sessions   *repositories.SessionRepository
	oauth      *services.OAuthService
	production bool
	logger     *log.Logger
}

// NewAuthHandler creates the auth endpoint handler.
func NewAuthHandler(sessions *repositories.SessionRepository, oauth *services.OAuthService, production bool, logger *log.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, oauth: oauth, production: production, logger: logger}
}

// Routes returns the path prefix this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/api/auth/"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/api/auth/")

	switch {
	case action == "setup" && r.Method == http.MethodPost:
		h.Setup(w, r)
	case action == "status" && r.Method == http.MethodGet:
		h.Status(w, r)
	case action == "refresh" && r.Method == http.MethodPost:
		h.Refresh(w, r)
	case action == "logout" && r.Method == http.MethodPost:
		h.Logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

// Setup validates a user-supplied refresh credential by exchanging it, then
// creates a session and sets the HTTP-only cookie. The session identifier is
// freshly generated and opaque; the credential itself never reaches the
// browser.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		writeError(w, h.logger, "refresh_token is required", fmt.Errorf("%w: refreshToken", shared.ErrMissingArgument))
		return
	}

	bundle, err := h.oauth.RefreshAccessToken(r.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, h.logger, "Invalid refresh_token or authentication failed", err)
		return
	}

	sessionID := shared.GenerateSessionID()
	session := &models.Session{
		UserID:       bundle.User.ID,
		UserName:     bundle.User.Name,
		UserAccount:  bundle.User.Account,
		AccessToken:  bundle.Token.AccessToken,
		RefreshToken: bundle.Token.RefreshToken,
		ExpiresAt:    bundle.ExpiresAtMilli(),
	}

	if err := h.sessions.Put(sessionID, session); err != nil {
		writeError(w, h.logger, "Failed to store session", err)
		return
	}

	setSessionCookie(w, sessionID, h.production)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": models.User{
			ID:      bundle.User.ID,
			Name:    bundle.User.Name,
			Account: bundle.User.Account,
		},
	})
}

// Status reports session validity without failing: an unauthenticated
// browser gets {authenticated:false}, never a 401.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.sessions.Get(cookie.Value)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": models.User{
			ID:      session.UserID,
			Name:    session.UserName,
			Account: session.UserAccount,
		},
		"expiresAt": session.ExpiresAt,
	})
}

// Refresh forces a token refresh for the current session and replaces the
// stored record with the rotated pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, h.logger, "No session found", fmt.Errorf("%w: no session cookie", shared.ErrSessionNotFound))
		return
	}

	session, err := h.sessions.Get(cookie.Value)
	if err != nil {
		writeError(w, h.logger, "Invalid session", err)
		return
	}

	bundle, err := h.oauth.RefreshAccessToken(r.Context(), session.RefreshToken)
	if err != nil {
		writeError(w, h.logger, "Token refresh failed", err)
		return
	}

	session.UserID = bundle.User.ID
	session.UserName = bundle.User.Name
	session.UserAccount = bundle.User.Account
	session.AccessToken = bundle.Token.AccessToken
	session.RefreshToken = bundle.Token.RefreshToken
	session.ExpiresAt = bundle.ExpiresAtMilli()

	if err := h.sessions.Put(cookie.Value, session); err != nil {
		writeError(w, h.logger, "Failed to store session", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"expiresAt": session.ExpiresAt,
	})
}

// Logout deletes the session record and clears the cookie. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			writeError(w, h.logger, "Logout failed", err)
			return
		}
	}

	clearSessionCookie(w, h.production)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
