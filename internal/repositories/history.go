package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dandibbert/pixvel/internal/models"
	"github.com/dandibbert/pixvel/internal/shared"
)

// HistoryRepository persists reading history and resume positions, both keyed
// by (user, novel) so re-reading a novel overwrites rather than duplicates.
//
// Positions are stored separately from history entries: a content fetch that
// produced no title/cover metadata can still record progress.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append upserts a history entry for (userID, entry.NovelID). A prior entry
// for the same novel is overwritten with the latest metadata and position.
func (r *HistoryRepository) Append(userID string, entry models.HistoryEntry) error {
	query := `
		INSERT INTO history (user_id, novel_id, title, cover_url, last_read_at, position)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, novel_id) DO UPDATE SET
			title = excluded.title,
			cover_url = excluded.cover_url,
			last_read_at = excluded.last_read_at,
			position = excluded.position
	`

	_, err := r.db.Exec(query, userID, entry.NovelID, entry.Title, entry.CoverURL, entry.LastReadAt, entry.Position)
	if err != nil {
		return fmt.Errorf("failed to store history entry: %w", err)
	}

	return nil
}

// GetHistory returns the user's history entries ordered by last_read_at
// descending, truncated to limit.
func (r *HistoryRepository) GetHistory(userID string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT novel_id, title, cover_url, last_read_at, position
		FROM history
		WHERE user_id = ?
		ORDER BY last_read_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var entry models.HistoryEntry
		if err := rows.Scan(&entry.NovelID, &entry.Title, &entry.CoverURL, &entry.LastReadAt, &entry.Position); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// SetPosition upserts the resume point for (userID, novelID), stamping it
// with the current time.
func (r *HistoryRepository) SetPosition(userID string, novelID int64, position int) error {
	query := `
		INSERT INTO positions (user_id, novel_id, position, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, novel_id) DO UPDATE SET
			position = excluded.position,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, userID, novelID, position, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store position: %w", err)
	}

	return nil
}

// GetPosition returns the resume point for (userID, novelID).
// Returns [shared.ErrPositionNotFound] when none has been recorded.
func (r *HistoryRepository) GetPosition(userID string, novelID int64) (*models.PositionRecord, error) {
	query := `
		SELECT position, updated_at
		FROM positions
		WHERE user_id = ? AND novel_id = ?
	`

	var record models.PositionRecord
	err := r.db.QueryRow(query, userID, novelID).Scan(&record.Position, &record.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: novel %d", shared.ErrPositionNotFound, novelID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", err)
	}

	return &record, nil
}
