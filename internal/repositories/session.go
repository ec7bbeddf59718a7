package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dandibbert/pixvel/internal/models"
	"github.com/dandibbert/pixvel/internal/shared"
)

// SessionRepository persists [models.Session] records keyed by the opaque
// session identifier from the browser cookie.
//
// Every write replaces the whole record in a single statement, so updates are
// last-writer-wins at record granularity and no partial-field state is ever
// observable.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get retrieves a session by its identifier.
// Returns [shared.ErrSessionNotFound] when no record exists.
func (r *SessionRepository) Get(sessionID string) (*models.Session, error) {
	query := `
		SELECT user_id, user_name, user_account, access_token, refresh_token, expires_at
		FROM sessions
		WHERE session_id = ?
	`

	var session models.Session
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.UserID,
		&session.UserName,
		&session.UserAccount,
		&session.AccessToken,
		&session.RefreshToken,
		&session.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

// Put stores a session record, replacing any existing record for the same
// identifier.
func (r *SessionRepository) Put(sessionID string, session *models.Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, user_name, user_account, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_id = excluded.user_id,
			user_name = excluded.user_name,
			user_account = excluded.user_account,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		sessionID,
		session.UserID,
		session.UserName,
		session.UserAccount,
		session.AccessToken,
		session.RefreshToken,
		session.ExpiresAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// UpdateTokens replaces the credential pair and expiry of an existing
// session. The pair is written atomically in one statement; a refresh never
// leaves a session holding a new access token with a stale refresh token.
//
// Returns [shared.ErrSessionNotFound] if no session exists for the identifier
// rather than silently creating one.
func (r *SessionRepository) UpdateTokens(sessionID, accessToken, refreshToken string, expiresAt int64) error {
	query := `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE session_id = ?
	`

	result, err := r.db.Exec(query, accessToken, refreshToken, expiresAt, time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
	}

	return nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *SessionRepository) Delete(sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
