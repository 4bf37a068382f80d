package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

func writeWatchlistFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchlists.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWatchlistFile(t *testing.T) {
	path := writeWatchlistFile(t, `{
		"watchlists": [
			{
				"id": "wl-1",
				"user_id": "user-42",
				"name": "Camera gear",
				"monitor_interval_seconds": 300,
				"items": [
					{"id": "item-1", "name": "Used DSLR", "url": "https://example.com/item/1", "target_price": 250.0},
					{"name": "Lens", "url": "https://example.com/item/2", "status": "paused"}
				]
			}
		]
	}`)

	watchlists, err := loadWatchlistFile(path)
	require.NoError(t, err)
	require.Len(t, watchlists, 1)

	wl := watchlists[0]
	assert.Equal(t, "wl-1", wl.ID)
	assert.Equal(t, "user-42", wl.UserID)
	assert.True(t, wl.Active, "active should default to true")
	assert.Equal(t, 5*time.Minute, wl.MonitorInterval)
	require.Len(t, wl.Items, 2)

	assert.Equal(t, "item-1", wl.Items[0].ID)
	assert.Equal(t, "wl-1", wl.Items[0].WatchlistID)
	assert.Equal(t, types.ItemStatusActive, wl.Items[0].Status)
	require.NotNil(t, wl.Items[0].TargetPrice)
	assert.Equal(t, 250.0, *wl.Items[0].TargetPrice)

	assert.NotEmpty(t, wl.Items[1].ID, "omitted item id should be generated")
	assert.Equal(t, types.ItemStatusPaused, wl.Items[1].Status)
	assert.Nil(t, wl.Items[1].TargetPrice)
}

func TestLoadWatchlistFile_ExplicitInactive(t *testing.T) {
	path := writeWatchlistFile(t, `{
		"watchlists": [{"user_id": "u1", "name": "off", "active": false}]
	}`)

	watchlists, err := loadWatchlistFile(path)
	require.NoError(t, err)
	require.Len(t, watchlists, 1)
	assert.False(t, watchlists[0].Active)
	assert.NotEmpty(t, watchlists[0].ID, "omitted watchlist id should be generated")
}

func TestLoadWatchlistFile_SchemaViolation(t *testing.T) {
	path := writeWatchlistFile(t, `{
		"watchlists": [{"name": "no user id"}]
	}`)

	_, err := loadWatchlistFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid watchlist file")
}

func TestLoadWatchlistFile_NotFound(t *testing.T) {
	_, err := loadWatchlistFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}
