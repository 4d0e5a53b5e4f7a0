package scheduler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWatchlist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWatchlist(t *testing.T) {
	path := writeWatchlist(t, `entries:
  - index_name: New Orders
    enabled: true
    indicator: business_confidence_index
    top_n: 3
  - index_name: Production
    enabled: false
  - index_name: Employment
    enabled: true
    schedule: "0 30 7 * * *"
`)

	watchlist, err := LoadWatchlist(path)
	require.NoError(t, err)
	require.Len(t, watchlist.Entries, 3)

	assert.Equal(t, "New Orders", watchlist.Entries[0].IndexName)
	assert.Equal(t, "business_confidence_index", watchlist.Entries[0].Indicator)
	assert.Equal(t, 3, watchlist.Entries[0].TopN)
	assert.Equal(t, "0 30 7 * * *", watchlist.Entries[2].Schedule)

	enabled := watchlist.EnabledEntries()
	require.Len(t, enabled, 2)
	assert.Equal(t, "New Orders", enabled[0].IndexName)
	assert.Equal(t, "Employment", enabled[1].IndexName)
}

func TestLoadWatchlist_MissingFile(t *testing.T) {
	_, err := LoadWatchlist(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read watchlist")
}

func TestLoadWatchlist_EntryWithoutIndexName(t *testing.T) {
	path := writeWatchlist(t, `entries:
  - index_name: ""
    enabled: true
`)

	_, err := LoadWatchlist(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index name is required")
}

func TestLoadWatchlist_MalformedYAML(t *testing.T) {
	path := writeWatchlist(t, "entries: [not closed")

	_, err := LoadWatchlist(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse watchlist")
}
