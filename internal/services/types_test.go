package services

import (
	"testing"
)

func TestToModel(t *testing.T) {
	upstream := PixivNovel{
		ID:         123456,
		Title:      "A Story",
		Caption:    "Once upon a time",
		CreateDate: "2024-05-01T12:00:00+09:00",
		Tags: []PixivTag{
			{Name: "fantasy"},
			{Name: "original"},
		},
		PageCount:      3,
		TextLength:     9000,
		TotalBookmarks: 42,
		TotalView:      1000,
	}
	upstream.User.ID = 789
	upstream.User.Name = "Author"
	upstream.User.Account = "author_acct"
	upstream.User.ProfileImageURLs.Medium = "https://example.com/avatar.jpg"
	upstream.ImageURLs.Large = "https://example.com/cover.jpg"

	t.Run("reshapes into the client schema", func(t *testing.T) {
		novel := upstream.ToModel()

		if novel.ID != "123456" {
			t.Errorf("ID = %q", novel.ID)
		}
		if novel.Author.ID != "789" || novel.Author.Name != "Author" {
			t.Errorf("Author = %+v", novel.Author)
		}
		if novel.CoverImage != "https://example.com/cover.jpg" {
			t.Errorf("CoverImage = %q", novel.CoverImage)
		}
		if len(novel.Tags) != 2 || novel.Tags[0] != "fantasy" {
			t.Errorf("Tags = %v", novel.Tags)
		}
		if novel.CreatedAt != upstream.CreateDate || novel.UpdatedAt != upstream.CreateDate {
			t.Errorf("timestamps = %q / %q", novel.CreatedAt, novel.UpdatedAt)
		}
		if novel.Series != nil {
			t.Errorf("Series = %+v, want nil", novel.Series)
		}
	})

	t.Run("keeps a real series reference", func(t *testing.T) {
		withSeries := upstream
		withSeries.Series = &PixivSeries{ID: 555, Title: "The Series"}

		novel := withSeries.ToModel()
		if novel.Series == nil || novel.Series.ID != "555" || novel.Series.Title != "The Series" {
			t.Errorf("Series = %+v", novel.Series)
		}
	})

	t.Run("drops the empty series object", func(t *testing.T) {
		withEmpty := upstream
		withEmpty.Series = &PixivSeries{}

		if novel := withEmpty.ToModel(); novel.Series != nil {
			t.Errorf("Series = %+v, want nil", novel.Series)
		}
	})
}

func TestParseNextPage(t *testing.T) {
	str := func(s string) *string { return &s }

	cases := []struct {
		name    string
		nextURL *string
		want    int
	}{
		{"nil means no next page", nil, 0},
		{"empty means no next page", str(""), 0},
		{"offset 30 is page 2", str("https://app-api.pixiv.net/v1/search/novel?word=x&offset=30"), 2},
		{"offset 90 is page 4", str("https://app-api.pixiv.net/v1/search/novel?word=x&offset=90"), 4},
		{"missing offset means no next page", str("https://app-api.pixiv.net/v1/search/novel?word=x"), 0},
		{"unparseable offset means no next page", str("https://app-api.pixiv.net/v1/search/novel?offset=abc"), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseNextPage(tc.nextURL); got != tc.want {
				t.Errorf("ParseNextPage = %d, want %d", got, tc.want)
			}
		})
	}
}
