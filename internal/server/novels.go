package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dandibbert/pixvel/internal/models"
	"github.com/dandibbert/pixvel/internal/repositories"
	"github.com/dandibbert/pixvel/internal/services"
	"github.com/dandibbert/pixvel/internal/shared"
)

// maxSeriesScanPages bounds the fallback pagination when locating a novel's
// neighbors in a series, so a pathological series cannot trigger unbounded
// upstream calls.
const maxSeriesScanPages = 30

// NovelsHandler serves catalog search, novel detail, body text retrieval, and
// series navigation.
type NovelsHandler struct {
	sessions *repositories.SessionRepository
	clients  *ClientFactory
	logger   *log.Logger
}

// NewNovelsHandler creates the novels endpoint handler.
func NewNovelsHandler(sessions *repositories.SessionRepository, clients *ClientFactory, logger *log.Logger) *NovelsHandler {
	return &NovelsHandler{sessions: sessions, clients: clients, logger: logger}
}

// Routes returns the path prefix this handler serves.
func (h *NovelsHandler) Routes() []string {
	return []string{"/api/novels/"}
}

func (h *NovelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/novels/")
	segments := strings.Split(rest, "/")

	switch {
	case rest == "search":
		h.Search(w, r)
	case len(segments) == 2 && segments[0] == "user":
		h.ByUser(w, r, segments[1])
	case len(segments) == 2 && segments[0] == "series":
		h.BySeries(w, r, segments[1])
	case len(segments) == 1 && segments[0] != "":
		h.Detail(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "content":
		h.Content(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "series":
		h.SeriesInfo(w, r, segments[0])
	default:
		http.NotFound(w, r)
	}
}

// client resolves the request's session and binds an upstream client to it.
// On failure the 401 envelope has already been written.
func (h *NovelsHandler) client(w http.ResponseWriter, r *http.Request) (*models.Session, *services.PixivClient, bool) {
	sessionID, session, err := resolveSession(r, h.sessions)
	if err != nil {
		writeError(w, h.logger, "Unauthorized", err)
		return nil, nil, false
	}
	return session, h.clients.For(sessionID, session), true
}

// pageParam parses the 1-based page query parameter, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// nextPageValue renders a next-page number as JSON null when there is none.
func nextPageValue(page int) any {
	if page == 0 {
		return nil
	}
	return page
}

// relativeNextURL converts an absolute upstream next_url into a path+query
// endpoint for the client.
func relativeNextURL(nextURL *string) string {
	if nextURL == nil || *nextURL == "" {
		return ""
	}
	u, err := url.Parse(*nextURL)
	if err != nil {
		return ""
	}
	if u.RawQuery == "" {
		return u.Path
	}
	return u.Path + "?" + u.RawQuery
}

// Search queries the upstream catalog search with filters and pagination.
func (h *NovelsHandler) Search(w http.ResponseWriter, r *http.Request) {
	_, client, ok := h.client(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	word := q.Get("word")
	if word == "" {
		writeError(w, h.logger, "Missing search keyword", fmt.Errorf("%w: word", shared.ErrMissingArgument))
		return
	}

	sort := q.Get("sort")
	if sort == "" {
		sort = "date_desc"
	}
	target := q.Get("search_target")
	if target == "" {
		target = "partial_match_for_tags"
	}

	params := url.Values{
		"word":          {word},
		"sort":          {sort},
		"search_target": {target},
	}
	if v := q.Get("start_date"); v != "" {
		params.Set("start_date", v)
	}
	if v := q.Get("end_date"); v != "" {
		params.Set("end_date", v)
	}
	if v := q.Get("bookmark_num"); v != "" {
		params.Set("bookmark_num_min", v)
	}

	page := pageParam(r)
	if offset := (page - 1) * services.PageSize; offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	var response services.NovelListResponse
	if err := client.FetchInto(r.Context(), "/v1/search/novel?"+params.Encode(), nil, &response); err != nil {
		writeError(w, h.logger, "Search failed", err)
		return
	}

	hasMore := response.NextURL != nil && *response.NextURL != ""

	// The upstream never reports an exact hit count; estimate the page total
	// from the search span limit, capped at 50 pages past the current one.
	maxResults := response.SearchSpanLimit
	if maxResults == 0 {
		maxResults = 5000
	}
	totalPages := page
	if hasMore {
		totalPages = (maxResults + services.PageSize - 1) / services.PageSize
		if limit := page + 50; totalPages > limit {
			totalPages = limit
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"novels":     services.ToModels(response.Novels),
		"total":      totalPages * services.PageSize,
		"page":       page,
		"totalPages": totalPages,
	})
}

// ByUser lists an author's works, paginated.
func (h *NovelsHandler) ByUser(w http.ResponseWriter, r *http.Request, userID string) {
	_, client, ok := h.client(w, r)
	if !ok {
		return
	}

	params := url.Values{"user_id": {userID}}
	page := pageParam(r)
	if offset := (page - 1) * services.PageSize; offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	var response services.NovelListResponse
	if err := client.FetchInto(r.Context(), "/v1/user/novels?"+params.Encode(), nil, &response); err != nil {
		writeError(w, h.logger, "Failed to fetch user novels", err)
		return
	}

	novels := services.ToModels(response.Novels)

	author := models.Author{ID: userID, Name: "Unknown"}
	if len(novels) > 0 {
		author = novels[0].Author
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"author":   author,
		"novels":   novels,
		"page":     page,
		"nextPage": nextPageValue(services.ParseNextPage(response.NextURL)),
		"hasMore":  response.NextURL != nil && *response.NextURL != "",
	})
}

// BySeries lists a series' works, paginated.
func (h *NovelsHandler) BySeries(w http.ResponseWriter, r *http.Request, seriesID string) {
	_, client, ok := h.client(w, r)
	if !ok {
		return
	}

	params := url.Values{"series_id": {seriesID}}
	page := pageParam(r)
	if offset := (page - 1) * services.PageSize; offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	var response services.NovelListResponse
	if err := client.FetchInto(r.Context(), "/v2/novel/series?"+params.Encode(), nil, &response); err != nil {
		writeError(w, h.logger, "Failed to fetch series list", err)
		return
	}

	seriesTitle := ""
	if response.NovelSeriesDetail != nil {
		seriesTitle = response.NovelSeriesDetail.Title
	}

	novels := services.ToModels(response.Novels)
	if seriesTitle != "" {
		for i := range novels {
			if novels[i].Series == nil {
				novels[i].Series = &models.SeriesRef{ID: seriesID, Title: seriesTitle}
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"series":   models.SeriesRef{ID: seriesID, Title: seriesTitle},
		"novels":   novels,
		"page":     page,
		"nextPage": nextPageValue(services.ParseNextPage(response.NextURL)),
		"hasMore":  response.NextURL != nil && *response.NextURL != "",
	})
}

// Detail fetches a novel's metadata.
func (h *NovelsHandler) Detail(w http.ResponseWriter, r *http.Request, novelID string) {
	_, client, ok := h.client(w, r)
	if !ok {
		return
	}

	var response services.NovelDetailResponse
	if err := client.FetchInto(r.Context(), "/v2/novel/detail?novel_id="+url.QueryEscape(novelID), nil, &response); err != nil {
		writeError(w, h.logger, "Failed to fetch novel details", err)
		return
	}

	novel := response.Novel.ToModel()
	novel.Content = response.Novel.Text

	writeJSON(w, http.StatusOK, novel)
}

// Content fetches the novel body text through the webview extraction path.
// An extraction miss is an expected degradation and surfaces as 404.
func (h *NovelsHandler) Content(w http.ResponseWriter, r *http.Request, novelID string) {
	_, client, ok := h.client(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(novelID, 10, 64)
	if err != nil {
		writeError(w, h.logger, "Invalid novel ID", fmt.Errorf("%w: novel id %q", shared.ErrInvalidInput, novelID))
		return
	}

	html, err := client.WebviewNovel(r.Context(), novelID)
	if err != nil {
		writeError(w, h.logger, "Failed to fetch novel content", err)
		return
	}

	text, err := services.ExtractNovelText(html)
	if err != nil {
		writeError(w, h.logger, "Novel content not available", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"content": text,
		"novelId": id,
	})
}

// SeriesInfo resolves the novel's neighbors within its series.
//
// The preferred path asks the novel text endpoint, which reports adjacency
// directly even across long series. If that call fails, the handler falls
// back to paginating the series listing and locating the novel by scan,
// bounded to [maxSeriesScanPages] pages.
func (h *NovelsHandler) SeriesInfo(w http.ResponseWriter, r *http.Request, novelID string) {
	_, client, ok := h.client(w, r)
	if !ok {
		return
	}

	novelIDNum, err := strconv.ParseInt(novelID, 10, 64)
	if err != nil {
		writeError(w, h.logger, "Invalid novel ID", fmt.Errorf("%w: novel id %q", shared.ErrInvalidInput, novelID))
		return
	}

	q := r.URL.Query()
	seriesID := q.Get("series_id")
	seriesTitle := q.Get("series_title")

	// Hinted series_id skips the detail call.
	if seriesID == "" {
		var detail services.NovelDetailResponse
		if err := client.FetchInto(r.Context(), "/v2/novel/detail?novel_id="+url.QueryEscape(novelID), nil, &detail); err != nil {
			writeError(w, h.logger, "Failed to fetch series information", err)
			return
		}

		if detail.Novel.Series == nil || detail.Novel.Series.ID == 0 {
			writeJSON(w, http.StatusOK, nil)
			return
		}

		seriesID = strconv.FormatInt(detail.Novel.Series.ID, 10)
		if seriesTitle == "" {
			seriesTitle = detail.Novel.Series.Title
		}
	} else if _, err := strconv.ParseInt(seriesID, 10, 64); err != nil {
		writeError(w, h.logger, "Invalid series_id", fmt.Errorf("%w: series id %q", shared.ErrInvalidInput, seriesID))
		return
	}

	info := models.SeriesInfo{ID: seriesID, Title: seriesTitle}

	var text services.NovelTextResponse
	if err := client.FetchInto(r.Context(), "/v1/novel/text?novel_id="+url.QueryEscape(novelID), nil, &text); err == nil {
		if text.SeriesPrev != nil && text.SeriesPrev.ID != 0 {
			info.PrevNovel = &models.NovelNeighbor{
				ID:    strconv.FormatInt(text.SeriesPrev.ID, 10),
				Title: text.SeriesPrev.Title,
			}
		}
		if text.SeriesNext != nil && text.SeriesNext.ID != 0 {
			info.NextNovel = &models.NovelNeighbor{
				ID:    strconv.FormatInt(text.SeriesNext.ID, 10),
				Title: text.SeriesNext.Title,
			}
		}
	} else {
		h.logger.Debug("novel text adjacency failed, falling back to series scan", "error", err)
		h.scanSeries(r, client, novelIDNum, seriesID, &info)
	}

	w.Header().Set("Cache-Control", "private, max-age=30")
	writeJSON(w, http.StatusOK, info)
}

// scanSeries paginates the series listing looking for the novel's neighbors.
// Best effort: on upstream failure the adjacency stays empty.
func (h *NovelsHandler) scanSeries(r *http.Request, client *services.PixivClient, novelID int64, seriesID string, info *models.SeriesInfo) {
	endpoint := "/v2/novel/series?series_id=" + url.QueryEscape(seriesID)

	for page := 0; page < maxSeriesScanPages && endpoint != ""; page++ {
		var response services.NovelListResponse
		if err := client.FetchInto(r.Context(), endpoint, nil, &response); err != nil {
			h.logger.Debug("series scan page failed", "error", err)
			return
		}

		if info.Title == "" && response.NovelSeriesDetail != nil {
			info.Title = response.NovelSeriesDetail.Title
		}

		for i := range response.Novels {
			if response.Novels[i].ID != novelID {
				continue
			}
			if i > 0 {
				info.PrevNovel = &models.NovelNeighbor{
					ID:    strconv.FormatInt(response.Novels[i-1].ID, 10),
					Title: response.Novels[i-1].Title,
				}
			}
			if i < len(response.Novels)-1 {
				info.NextNovel = &models.NovelNeighbor{
					ID:    strconv.FormatInt(response.Novels[i+1].ID, 10),
					Title: response.Novels[i+1].Title,
				}
			}
			return
		}

		endpoint = relativeNextURL(response.NextURL)
	}
}
