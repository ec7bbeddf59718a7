// Upstream (platform-shaped) response types and their translation into the
// client-facing schema.
package services

import (
	"net/url"
	"strconv"

	"github.com/dandibbert/pixvel/internal/models"
)

// PixivImageURLs carries the cover image variants of a novel.
type PixivImageURLs struct {
	SquareMedium string `json:"square_medium"`
	Medium       string `json:"medium"`
	Large        string `json:"large"`
}

// PixivTag is one tag attached to a novel.
type PixivTag struct {
	Name           string  `json:"name"`
	TranslatedName *string `json:"translated_name"`
}

// PixivNovelUser is the author sub-object of an upstream novel.
type PixivNovelUser struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Account         string `json:"account"`
	ProfileImageURLs struct {
		Medium string `json:"medium"`
	} `json:"profile_image_urls"`
}

// PixivSeries identifies the series a novel belongs to. The upstream sends
// an empty object when the novel has none, so a zero ID means "no series".
type PixivSeries struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// PixivNovel is a novel as the upstream structured API returns it.
type PixivNovel struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Caption        string         `json:"caption"`
	ImageURLs      PixivImageURLs `json:"image_urls"`
	CreateDate     string         `json:"create_date"`
	Tags           []PixivTag     `json:"tags"`
	PageCount      int            `json:"page_count"`
	TextLength     int            `json:"text_length"`
	User           PixivNovelUser `json:"user"`
	Series         *PixivSeries   `json:"series"`
	IsBookmarked   bool           `json:"is_bookmarked"`
	TotalBookmarks int            `json:"total_bookmarks"`
	TotalView      int            `json:"total_view"`
	Text           string         `json:"text"`
}

// ToModel reshapes an upstream novel into the client-facing schema:
// string-typed IDs, flattened author, cover from the large image variant.
func (n *PixivNovel) ToModel() models.Novel {
	novel := models.Novel{
		ID:          strconv.FormatInt(n.ID, 10),
		Title:       n.Title,
		Description: n.Caption,
		Author: models.Author{
			ID:     strconv.FormatInt(n.User.ID, 10),
			Name:   n.User.Name,
			Avatar: n.User.ProfileImageURLs.Medium,
		},
		CoverImage:     n.ImageURLs.Large,
		Tags:           make([]string, 0, len(n.Tags)),
		PageCount:      n.PageCount,
		TextLength:     n.TextLength,
		TotalBookmarks: n.TotalBookmarks,
		TotalViews:     n.TotalView,
		CreatedAt:      n.CreateDate,
		UpdatedAt:      n.CreateDate,
	}

	for _, tag := range n.Tags {
		novel.Tags = append(novel.Tags, tag.Name)
	}

	if n.Series != nil && n.Series.ID != 0 {
		novel.Series = &models.SeriesRef{
			ID:    strconv.FormatInt(n.Series.ID, 10),
			Title: n.Series.Title,
		}
	}

	return novel
}

// ToModels reshapes a list of upstream novels.
func ToModels(novels []PixivNovel) []models.Novel {
	out := make([]models.Novel, 0, len(novels))
	for i := range novels {
		out = append(out, novels[i].ToModel())
	}
	return out
}

// NovelListResponse is the common shape of the upstream listing endpoints.
type NovelListResponse struct {
	Novels            []PixivNovel `json:"novels"`
	NextURL           *string      `json:"next_url"`
	SearchSpanLimit   int          `json:"search_span_limit"`
	NovelSeriesDetail *PixivSeries `json:"novel_series_detail"`
}

// SeriesNeighbor is the adjacent-work reference of the novel text endpoint.
type SeriesNeighbor struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// NovelTextResponse is the part of the novel text endpoint used for series
// adjacency.
type NovelTextResponse struct {
	SeriesPrev *SeriesNeighbor `json:"series_prev"`
	SeriesNext *SeriesNeighbor `json:"series_next"`
}

// NovelDetailResponse wraps the detail endpoint payload.
type NovelDetailResponse struct {
	Novel PixivNovel `json:"novel"`
}

// PageSize is the upstream listing page size; page numbers translate to
// offsets in multiples of it.
const PageSize = 30

// ParseNextPage extracts the next page number from an upstream next_url,
// or 0 when there is none.
func ParseNextPage(nextURL *string) int {
	if nextURL == nil || *nextURL == "" {
		return 0
	}
	u, err := url.Parse(*nextURL)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(u.Query().Get("offset"))
	if err != nil {
		return 0
	}
	return offset/PageSize + 1
}
