package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dandibbert/pixvel/internal/shared"
)

// errorEnvelope is the JSON error body for every non-2xx response. It never
// carries internal detail (stack traces, upstream secrets), only a stable
// error label and a human-readable message.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the HTTP error taxonomy and writes the envelope.
//
//	session invalid / auth failed  -> 401
//	content unavailable            -> 404
//	rate limited                   -> 429
//	invalid input                  -> 400
//	other upstream error           -> 502
//	anything else (infrastructure) -> 500
func writeError(w http.ResponseWriter, logger *log.Logger, label string, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, shared.ErrSessionNotFound), errors.Is(err, shared.ErrSessionExpired),
		errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrRefreshFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, shared.ErrContentUnavailable), errors.Is(err, shared.ErrPositionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrUpstreamRequest), errors.Is(err, shared.ErrTransientNetwork):
		status = http.StatusBadGateway
	}

	if status >= 500 {
		logger.Error(label, "error", err)
	} else {
		logger.Debug(label, "status", status, "error", err)
	}

	writeJSON(w, status, errorEnvelope{Error: label, Message: err.Error()})
}
