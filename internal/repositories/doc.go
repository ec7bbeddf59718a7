// Package repositories implements SQLite persistence for the reader backend.
//
// Two repositories back the server:
//   - [SessionRepository] : sessions keyed by the opaque cookie identifier,
//     with atomic whole-record writes and a single-statement token update
//   - [HistoryRepository] : reading history and resume positions keyed by
//     (user, novel), upserted so re-reads overwrite rather than duplicate
//
// The session store is the only shared mutable resource in the process; all
// access goes through these atomic operations, never a caller-side
// read-modify-write across two calls.
package repositories
