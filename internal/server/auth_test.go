package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dandibbert/pixvel/internal/models"
	"github.com/dandibbert/pixvel/internal/shared"
)

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestAuthSetup(t *testing.T) {
	t.Run("creates a session from a valid credential", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodPost, "/api/auth/setup", `{"refreshToken": "user-supplied"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		cookie := sessionCookieFrom(t, rec)
		if !cookie.HttpOnly {
			t.Error("session cookie must be HTTP-only")
		}
		if cookie.Value == "" || cookie.Value == "user-supplied" {
			t.Errorf("cookie value %q must be opaque and non-empty", cookie.Value)
		}

		session, err := env.sessions.Get(cookie.Value)
		if err != nil {
			t.Fatalf("session not stored: %v", err)
		}
		if session.AccessToken != "fresh-access" || session.RefreshToken != "fresh-refresh" {
			t.Errorf("stored pair = %q / %q", session.AccessToken, session.RefreshToken)
		}

		var body struct {
			Success bool        `json:"success"`
			User    models.User `json:"user"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if !body.Success || body.User.ID != "1001" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("missing token is a 400", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodPost, "/api/auth/setup", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("rejected credential is a 401", func(t *testing.T) {
		env := newTestEnv(t)
		env.tokens = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"has_error": true}`))
		}

		rec := env.do(http.MethodPost, "/api/auth/setup", `{"refreshToken": "revoked"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestAuthStatus(t *testing.T) {
	t.Run("no cookie reports unauthenticated", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodGet, "/api/auth/status", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var body struct {
			Authenticated bool `json:"authenticated"`
		}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Authenticated {
			t.Error("expected authenticated=false")
		}
	})

	t.Run("valid session reports the user and expiry", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := env.login(t)

		rec := env.do(http.MethodGet, "/api/auth/status", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var body struct {
			Authenticated bool        `json:"authenticated"`
			User          models.User `json:"user"`
			ExpiresAt     int64       `json:"expiresAt"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if !body.Authenticated || body.User.Name != "Reader" || body.ExpiresAt == 0 {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("stale cookie reports unauthenticated, never 401", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodGet, "/api/auth/status", "", &http.Cookie{Name: sessionCookie, Value: "gone"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var body struct {
			Authenticated bool `json:"authenticated"`
		}
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Authenticated {
			t.Error("expected authenticated=false")
		}
	})
}

func TestAuthRefresh(t *testing.T) {
	t.Run("replaces the stored pair", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := env.login(t)

		rec := env.do(http.MethodPost, "/api/auth/refresh", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		session, err := env.sessions.Get(cookie.Value)
		if err != nil {
			t.Fatalf("session lost: %v", err)
		}
		if session.AccessToken != "fresh-access" || session.RefreshToken != "fresh-refresh" {
			t.Errorf("stored pair = %q / %q", session.AccessToken, session.RefreshToken)
		}
	})

	t.Run("no session is a 401", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodPost, "/api/auth/refresh", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestAuthLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	rec := env.do(http.MethodPost, "/api/auth/logout", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cleared := sessionCookieFrom(t, rec)
	if cleared.MaxAge >= 0 {
		t.Errorf("cookie MaxAge = %d, want negative", cleared.MaxAge)
	}

	if _, err := env.sessions.Get(cookie.Value); err == nil {
		t.Error("session record still present after logout")
	}

	// A second logout with the dead cookie still succeeds.
	rec = env.do(http.MethodPost, "/api/auth/logout", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat logout status = %d", rec.Code)
	}
}

func TestResolveSession(t *testing.T) {
	env := newTestEnv(t)

	t.Run("expired access token is rejected", func(t *testing.T) {
		sessionID := shared.GenerateSessionID()
		env.sessions.Put(sessionID, &models.Session{
			UserID:       "1001",
			AccessToken:  "stale",
			RefreshToken: "stale",
			ExpiresAt:    time.Now().Add(-time.Minute).UnixMilli(),
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionID})

		_, _, err := resolveSession(req, env.sessions)
		if err == nil {
			t.Fatal("expected an error for an expired session")
		}
	})
}
