// Package models defines domain entities for the pixvel reader backend.
//
// The package contains two categories of types:
//
// 1. Persistent records stored through internal/repositories:
//   - [Session] : server-side credential set keyed by the cookie value
//   - [HistoryEntry] : per-(user, novel) reading history
//   - [PositionRecord] : per-(user, novel) resume point
//
// 2. Client-facing DTOs returned by the HTTP handlers:
//   - [Novel] : reshaped upstream novel (string IDs, flattened author/series)
//   - [SeriesInfo] : series adjacency for reader navigation
//   - [User] : minimal account profile
//
// Upstream (platform-shaped) response types live in internal/services; the
// translation into these DTOs happens there so every listing endpoint shares
// one reshaping path.
package models
