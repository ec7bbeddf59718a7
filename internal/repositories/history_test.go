package repositories

import (
	"fmt"
	"testing"

	"github.com/dandibbert/pixvel/internal/models"
	"github.com/dandibbert/pixvel/internal/shared"
	pixveltest "github.com/dandibbert/pixvel/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepository(t *testing.T) {
	db := pixveltest.MustOpenDB(t)
	repo := NewHistoryRepository(db)

	entry := func(novelID int64, readAt int64) models.HistoryEntry {
		return models.HistoryEntry{
			NovelID:    novelID,
			Title:      fmt.Sprintf("Novel %d", novelID),
			CoverURL:   fmt.Sprintf("https://example.com/%d.jpg", novelID),
			LastReadAt: readAt,
			Position:   100,
		}
	}

	t.Run("Append and GetHistory round-trip", func(t *testing.T) {
		require.NoError(t, repo.Append("user-a", entry(1, 1000)))

		got, err := repo.GetHistory("user-a", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, entry(1, 1000), got[0])
	})

	t.Run("re-reading overwrites instead of duplicating", func(t *testing.T) {
		require.NoError(t, repo.Append("user-b", entry(1, 1000)))

		updated := entry(1, 2000)
		updated.Position = 500
		require.NoError(t, repo.Append("user-b", updated))

		got, err := repo.GetHistory("user-b", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(2000), got[0].LastReadAt)
		assert.Equal(t, 500, got[0].Position)
	})

	t.Run("history is most recent first", func(t *testing.T) {
		require.NoError(t, repo.Append("user-c", entry(1, 1000)))
		require.NoError(t, repo.Append("user-c", entry(2, 3000)))
		require.NoError(t, repo.Append("user-c", entry(3, 2000)))

		got, err := repo.GetHistory("user-c", 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, int64(2), got[0].NovelID)
		assert.Equal(t, int64(3), got[1].NovelID)
		assert.Equal(t, int64(1), got[2].NovelID)
	})

	t.Run("limit truncates the list", func(t *testing.T) {
		for i := int64(1); i <= 5; i++ {
			require.NoError(t, repo.Append("user-d", entry(i, i*1000)))
		}

		got, err := repo.GetHistory("user-d", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(5), got[0].NovelID)
	})

	t.Run("users are isolated", func(t *testing.T) {
		require.NoError(t, repo.Append("user-e", entry(1, 1000)))

		got, err := repo.GetHistory("user-f", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestPositions(t *testing.T) {
	db := pixveltest.MustOpenDB(t)
	repo := NewHistoryRepository(db)

	t.Run("SetPosition and GetPosition round-trip", func(t *testing.T) {
		require.NoError(t, repo.SetPosition("user-a", 42, 1234))

		got, err := repo.GetPosition("user-a", 42)
		require.NoError(t, err)
		assert.Equal(t, 1234, got.Position)
		assert.Greater(t, got.UpdatedAt, int64(0))
	})

	t.Run("SetPosition overwrites", func(t *testing.T) {
		require.NoError(t, repo.SetPosition("user-b", 42, 100))
		require.NoError(t, repo.SetPosition("user-b", 42, 900))

		got, err := repo.GetPosition("user-b", 42)
		require.NoError(t, err)
		assert.Equal(t, 900, got.Position)
	})

	t.Run("GetPosition for an unread novel", func(t *testing.T) {
		_, err := repo.GetPosition("user-c", 999)
		assert.ErrorIs(t, err, shared.ErrPositionNotFound)
	})
}
