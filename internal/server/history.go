package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dandibbert/pixvel/internal/models"
	"github.com/dandibbert/pixvel/internal/repositories"
	"github.com/dandibbert/pixvel/internal/shared"
)

// HistoryHandler stores and serves per-user reading positions and the
// reading history list. This state is local; it never touches the upstream.
type HistoryHandler struct {
	sessions *repositories.SessionRepository
	history  *repositories.HistoryRepository
	logger   *log.Logger
}

// NewHistoryHandler creates the history endpoint handler.
func NewHistoryHandler(sessions *repositories.SessionRepository, history *repositories.HistoryRepository, logger *log.Logger) *HistoryHandler {
	return &HistoryHandler{sessions: sessions, history: history, logger: logger}
}

// Routes returns the path prefix this handler serves.
func (h *HistoryHandler) Routes() []string {
	return []string{"/api/history/"}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/history/")
	segments := strings.Split(rest, "/")

	switch {
	case rest == "position" && r.Method == http.MethodPost:
		h.SavePosition(w, r)
	case len(segments) == 2 && segments[0] == "position" && r.Method == http.MethodGet:
		h.GetPosition(w, r, segments[1])
	case rest == "novels" && r.Method == http.MethodGet:
		h.List(w, r)
	default:
		http.NotFound(w, r)
	}
}

// SavePosition records the reading position for a novel. When the request
// also carries title and cover metadata, the history entry is upserted so the
// novel surfaces in the recently-read list.
func (h *HistoryHandler) SavePosition(w http.ResponseWriter, r *http.Request) {
	_, session, err := resolveSession(r, h.sessions)
	if err != nil {
		writeError(w, h.logger, "Unauthorized", err)
		return
	}

	var body struct {
		NovelID  json.RawMessage `json:"novelId"`
		Position *float64        `json:"position"`
		Title    string          `json:"title"`
		CoverURL string          `json:"coverUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Position == nil {
		writeError(w, h.logger, "Missing novelId or position", fmt.Errorf("%w: novelId and position", shared.ErrMissingArgument))
		return
	}

	novelID, err := parseNovelID(body.NovelID)
	if err != nil {
		writeError(w, h.logger, "Missing novelId or position", err)
		return
	}

	position := int(*body.Position)

	if err := h.history.SetPosition(session.UserID, novelID, position); err != nil {
		writeError(w, h.logger, "Failed to save position", err)
		return
	}

	if body.Title != "" && body.CoverURL != "" {
		entry := models.HistoryEntry{
			NovelID:    novelID,
			Title:      body.Title,
			CoverURL:   body.CoverURL,
			LastReadAt: time.Now().UnixMilli(),
			Position:   position,
		}
		if err := h.history.Append(session.UserID, entry); err != nil {
			writeError(w, h.logger, "Failed to save position", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetPosition returns the stored reading position for a novel. A novel never
// read reports position zero rather than an error.
func (h *HistoryHandler) GetPosition(w http.ResponseWriter, r *http.Request, novelID string) {
	_, session, err := resolveSession(r, h.sessions)
	if err != nil {
		writeError(w, h.logger, "Unauthorized", err)
		return
	}

	id, err := strconv.ParseInt(novelID, 10, 64)
	if err != nil {
		writeError(w, h.logger, "Invalid novel ID", fmt.Errorf("%w: novel id %q", shared.ErrInvalidInput, novelID))
		return
	}

	record, err := h.history.GetPosition(session.UserID, id)
	if errors.Is(err, shared.ErrPositionNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"position": 0, "updatedAt": nil})
		return
	}
	if err != nil {
		writeError(w, h.logger, "Failed to get position", err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// List returns the user's reading history, most recent first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	_, session, err := resolveSession(r, h.sessions)
	if err != nil {
		writeError(w, h.logger, "Unauthorized", err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.history.GetHistory(session.UserID, limit)
	if err != nil {
		writeError(w, h.logger, "Failed to get history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
