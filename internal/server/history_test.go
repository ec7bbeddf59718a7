package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dandibbert/pixvel/internal/models"
)

func TestHistorySavePosition(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodPost, "/api/history/position", `{"novelId": 1, "position": 10}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("stores the position", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := env.login(t)

		rec := env.do(http.MethodPost, "/api/history/position", `{"novelId": 42, "position": 120}`, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}

		record, err := env.history.GetPosition("1001", 42)
		if err != nil {
			t.Fatalf("position not stored: %v", err)
		}
		if record.Position != 120 {
			t.Errorf("position = %d", record.Position)
		}

		// Without title/cover metadata, no history entry appears.
		entries, err := env.history.GetHistory("1001", 10)
		if err != nil {
			t.Fatalf("history read failed: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("history entries = %d, want 0", len(entries))
		}
	})

	t.Run("records history alongside when metadata is present", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := env.login(t)

		body := `{"novelId": 42, "position": 120, "title": "A Story", "coverUrl": "https://img.example/c.jpg"}`
		rec := env.do(http.MethodPost, "/api/history/position", body, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		entries, err := env.history.GetHistory("1001", 10)
		if err != nil {
			t.Fatalf("history read failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Title != "A Story" || entries[0].Position != 120 {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("position zero is valid", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := env.login(t)

		rec := env.do(http.MethodPost, "/api/history/position", `{"novelId": 42, "position": 0}`, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing fields are a 400", func(t *testing.T) {
		env := newTestEnv(t)
		cookie := env.login(t)

		rec := env.do(http.MethodPost, "/api/history/position", `{"novelId": 42}`, cookie)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestHistoryGetPosition(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	t.Run("unread novel reports position zero", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/history/position/999", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var body struct {
			Position  int  `json:"position"`
			UpdatedAt *int `json:"updatedAt"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body.Position != 0 || body.UpdatedAt != nil {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("returns the stored record", func(t *testing.T) {
		env.history.SetPosition("1001", 77, 450)

		rec := env.do(http.MethodGet, "/api/history/position/77", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var record models.PositionRecord
		if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if record.Position != 450 || record.UpdatedAt == 0 {
			t.Errorf("record = %+v", record)
		}
	})
}

func TestHistoryList(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	for i, readAt := range []int64{3000, 1000, 2000} {
		env.history.Append("1001", models.HistoryEntry{
			NovelID:    int64(i + 1),
			Title:      "Novel",
			CoverURL:   "https://img.example/c.jpg",
			LastReadAt: readAt,
			Position:   10,
		})
	}

	t.Run("most recent first", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/history/novels", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var body struct {
			History []models.HistoryEntry `json:"history"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if len(body.History) != 3 || body.History[0].NovelID != 1 || body.History[1].NovelID != 3 {
			t.Errorf("history = %+v", body.History)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/history/novels?limit=1", "", cookie)

		var body struct {
			History []models.HistoryEntry `json:"history"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if len(body.History) != 1 {
			t.Errorf("history = %d entries, want 1", len(body.History))
		}
	})
}
