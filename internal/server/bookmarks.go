package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dandibbert/pixvel/internal/repositories"
	"github.com/dandibbert/pixvel/internal/services"
	"github.com/dandibbert/pixvel/internal/shared"
)

// BookmarksHandler proxies bookmark add, remove, and listing to the upstream
// per-account bookmark store.
type BookmarksHandler struct {
	sessions *repositories.SessionRepository
	clients  *ClientFactory
	logger   *log.Logger
}

// NewBookmarksHandler creates the bookmarks endpoint handler.
func NewBookmarksHandler(sessions *repositories.SessionRepository, clients *ClientFactory, logger *log.Logger) *BookmarksHandler {
	return &BookmarksHandler{sessions: sessions, clients: clients, logger: logger}
}

// Routes returns the path prefix this handler serves.
func (h *BookmarksHandler) Routes() []string {
	return []string{"/api/bookmarks/"}
}

func (h *BookmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/bookmarks/")
	segments := strings.Split(rest, "/")

	switch {
	case rest == "novel" && r.Method == http.MethodPost:
		h.Add(w, r)
	case len(segments) == 2 && segments[0] == "novel" && r.Method == http.MethodDelete:
		h.Remove(w, r, segments[1])
	case rest == "novels" && r.Method == http.MethodGet:
		h.List(w, r)
	default:
		http.NotFound(w, r)
	}
}

// Add bookmarks a novel with public or private visibility.
func (h *BookmarksHandler) Add(w http.ResponseWriter, r *http.Request) {
	sessionID, session, err := resolveSession(r, h.sessions)
	if err != nil {
		writeError(w, h.logger, "Unauthorized", err)
		return
	}

	var body struct {
		NovelID  json.RawMessage `json:"novelId"`
		Restrict string          `json:"restrict"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, "Missing novelId", fmt.Errorf("%w: novelId", shared.ErrMissingArgument))
		return
	}

	novelID, err := parseNovelID(body.NovelID)
	if err != nil {
		writeError(w, h.logger, "Missing novelId", err)
		return
	}

	restrict := body.Restrict
	if restrict == "" {
		restrict = "public"
	}

	client := h.clients.For(sessionID, session)
	_, err = client.Fetch(r.Context(), "/v2/novel/bookmark/add", &services.FetchOptions{
		Method: http.MethodPost,
		Body: map[string]any{
			"novel_id": novelID,
			"restrict": restrict,
		},
	})
	if err != nil {
		writeError(w, h.logger, "Failed to bookmark novel", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Remove deletes a bookmark. The upstream delete endpoint is POST-only.
func (h *BookmarksHandler) Remove(w http.ResponseWriter, r *http.Request, novelID string) {
	sessionID, session, err := resolveSession(r, h.sessions)
	if err != nil {
		writeError(w, h.logger, "Unauthorized", err)
		return
	}

	id, err := strconv.ParseInt(novelID, 10, 64)
	if err != nil {
		writeError(w, h.logger, "Invalid novel ID", fmt.Errorf("%w: novel id %q", shared.ErrInvalidInput, novelID))
		return
	}

	client := h.clients.For(sessionID, session)
	_, err = client.Fetch(r.Context(), "/v1/novel/bookmark/delete", &services.FetchOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"novel_id": id},
	})
	if err != nil {
		writeError(w, h.logger, "Failed to delete bookmark", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// List returns the session user's bookmarked novels, paginated.
func (h *BookmarksHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID, session, err := resolveSession(r, h.sessions)
	if err != nil {
		writeError(w, h.logger, "Unauthorized", err)
		return
	}

	restrict := r.URL.Query().Get("restrict")
	if restrict == "" {
		restrict = "public"
	}

	params := url.Values{
		"user_id":  {session.UserID},
		"restrict": {restrict},
	}
	page := pageParam(r)
	if offset := (page - 1) * services.PageSize; offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	client := h.clients.For(sessionID, session)

	var response services.NovelListResponse
	if err := client.FetchInto(r.Context(), "/v1/user/bookmarks/novel?"+params.Encode(), nil, &response); err != nil {
		writeError(w, h.logger, "Failed to get bookmarks", err)
		return
	}

	novels := services.ToModels(response.Novels)

	writeJSON(w, http.StatusOK, map[string]any{
		"novels":   novels,
		"total":    len(novels),
		"nextPage": nextPageValue(services.ParseNextPage(response.NextURL)),
	})
}
