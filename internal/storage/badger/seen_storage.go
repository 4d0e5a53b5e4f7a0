package badger

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/interfaces"
)

// SeenStorage implements the seen-URL registry on raw badger keys so entries
// can carry a TTL. A key exists while its URL is considered already
// surfaced; expiry lets the URL come back in a later scheduled scan.
type SeenStorage struct {
	db     *BadgerDB
	ttl    time.Duration
	logger arbor.ILogger
}

// NewSeenStorage creates a new SeenStorage with the given retention window
func NewSeenStorage(db *BadgerDB, ttl time.Duration, logger arbor.ILogger) interfaces.SeenStorage {
	return &SeenStorage{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}
}

// seenKey builds the registry key. URLs are hashed so arbitrary length and
// characters never leak into the keyspace; index names are normalized the
// same way the query composer normalizes them.
func seenKey(indexName, url string) []byte {
	index := strings.ToLower(strings.TrimSpace(indexName))
	sum := sha256.Sum256([]byte(url))
	return []byte(fmt.Sprintf("seen:%s:%x", index, sum))
}

// MarkSeen records a URL as surfaced for an index
func (s *SeenStorage) MarkSeen(ctx context.Context, indexName, url string) error {
	if url == "" {
		return fmt.Errorf("url is required")
	}

	err := s.db.Badger().Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry(seenKey(indexName, url), nil)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to mark url seen: %w", err)
	}
	return nil
}

// IsSeen reports whether a URL was surfaced for an index inside the
// retention window
func (s *SeenStorage) IsSeen(ctx context.Context, indexName, url string) (bool, error) {
	var seen bool
	err := s.db.Badger().View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(seenKey(indexName, url))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		seen = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check seen url: %w", err)
	}
	return seen, nil
}

// FilterUnseen returns the subset of urls not yet surfaced for an index,
// preserving input order
func (s *SeenStorage) FilterUnseen(ctx context.Context, indexName string, urls []string) ([]string, error) {
	unseen := make([]string, 0, len(urls))

	err := s.db.Badger().View(func(txn *badgerdb.Txn) error {
		for _, url := range urls {
			_, err := txn.Get(seenKey(indexName, url))
			if err == badgerdb.ErrKeyNotFound {
				unseen = append(unseen, url)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter seen urls: %w", err)
	}

	if dropped := len(urls) - len(unseen); dropped > 0 {
		s.logger.Debug().
			Str("index_name", indexName).
			Int("dropped", dropped).
			Int("unseen", len(unseen)).
			Msg("Filtered previously seen URLs")
	}

	return unseen, nil
}
