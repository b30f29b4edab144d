package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/signage/internal/models"
)

func TestNextScreenID(t *testing.T) {
	assert.Equal(t, "001", NextScreenID(nil))
	assert.Equal(t, "003", NextScreenID([]models.Screen{{ID: "001"}, {ID: "002"}}))
	assert.Equal(t, "011", NextScreenID([]models.Screen{{ID: "010"}, {ID: "lobby"}, {ID: "004"}}))
}

func TestFileStoreScreens(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	lobby, err := store.CreateScreen(ctx, models.Screen{Name: "Lobby"})
	require.NoError(t, err)
	assert.Equal(t, "001", lobby.ID)

	hall, err := store.CreateScreen(ctx, models.Screen{Name: "Hall"})
	require.NoError(t, err)
	assert.Equal(t, "002", hall.ID)

	hall.Config.FeedURL = "https://example.org/rss"
	require.NoError(t, store.PutScreen(ctx, *hall))

	got, err := store.GetScreen(ctx, "002")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/rss", got.Config.FeedURL)

	require.NoError(t, store.DeleteScreen(ctx, "001"))
	_, err = store.GetScreen(ctx, "001")
	assert.ErrorIs(t, err, ErrNotFound)

	screens, err := store.ListScreens(ctx)
	require.NoError(t, err)
	require.Len(t, screens, 1)
	assert.Equal(t, "Hall", screens[0].Name)

	assert.ErrorIs(t, store.PutScreen(ctx, models.Screen{ID: "404"}), ErrNotFound)
	assert.ErrorIs(t, store.DeleteScreen(ctx, "404"), ErrNotFound)
}

func TestFileStoreNoticesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.PutNotice(ctx, models.Notice{ID: id, Title: id}))
	}
	require.NoError(t, store.PutNotice(ctx, models.Notice{ID: "a", Title: "updated"}))

	notices, err := store.ListNotices(ctx)
	require.NoError(t, err)
	require.Len(t, notices, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{notices[0].ID, notices[1].ID, notices[2].ID})
	assert.Equal(t, "updated", notices[1].Title)

	removed, err := store.DeleteNotice(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "updated", removed.Title)

	_, err = store.GetNotice(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreReportsUnreadableNotices(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, noticesFile), []byte("{not json"), 0644))
	_, err = store.ListNotices(context.Background())
	assert.Error(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, noticesFile)))
	_, err = store.ListNotices(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.ListNotices(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
