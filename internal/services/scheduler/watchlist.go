package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/indago/internal/models"
)

// LoadWatchlist reads and validates the watchlist YAML file.
func LoadWatchlist(path string) (*models.Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist %s: %w", path, err)
	}

	var watchlist models.Watchlist
	if err := yaml.Unmarshal(data, &watchlist); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist %s: %w", path, err)
	}

	if err := watchlist.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watchlist %s: %w", path, err)
	}

	return &watchlist, nil
}
