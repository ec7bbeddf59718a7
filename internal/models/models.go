// package models defines the data model for the novel reader backend
package models

import "time"

// Session binds a browser session to one authenticated user's credential set.
//
// The access/refresh pair is always the most recently issued pair; refreshes
// replace both values in one write. The refresh token rotates on every use.
type Session struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	UserAccount  string `json:"userAccount"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"` // epoch milliseconds
}

// Expired reports whether the session's access token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt
}

// User is the minimal account profile surfaced to the browser.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Account string `json:"account"`
}

// Author is the flattened author sub-object of the client-facing novel schema.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// SeriesRef identifies the series a novel belongs to.
type SeriesRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Novel is the client-facing novel schema: string-typed IDs, flattened
// author/series sub-objects, camelCase field names.
type Novel struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Author         Author     `json:"author"`
	CoverImage     string     `json:"coverImage,omitempty"`
	Tags           []string   `json:"tags"`
	PageCount      int        `json:"pageCount"`
	TextLength     int        `json:"textLength"`
	TotalBookmarks int        `json:"totalBookmarks"`
	TotalViews     int        `json:"totalViews"`
	CreatedAt      string     `json:"createdAt"`
	UpdatedAt      string     `json:"updatedAt"`
	Content        string     `json:"content,omitempty"`
	Series         *SeriesRef `json:"series,omitempty"`
}

// NovelNeighbor is one adjacent entry in a series (previous or next work).
type NovelNeighbor struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SeriesInfo is the series adjacency payload for the reader navigation.
type SeriesInfo struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	PrevNovel *NovelNeighbor `json:"prev_novel,omitempty"`
	NextNovel *NovelNeighbor `json:"next_novel,omitempty"`
}

// HistoryEntry is one per-(user, novel) reading history record.
//
// Re-reading a novel overwrites the prior entry rather than duplicating it.
type HistoryEntry struct {
	NovelID    int64  `json:"novelId"`
	Title      string `json:"title"`
	CoverURL   string `json:"coverUrl"`
	LastReadAt int64  `json:"lastReadAt"` // epoch milliseconds
	Position   int    `json:"position"`
}

// PositionRecord is the lightweight resume-point for a novel, stored
// independently of the history entry so a content fetch without title/cover
// metadata can still record progress.
type PositionRecord struct {
	Position  int   `json:"position"`
	UpdatedAt int64 `json:"updatedAt"` // epoch milliseconds
}
