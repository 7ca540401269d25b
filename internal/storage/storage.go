// Package storage remembers which stations the watcher has already published.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is a TTL-bound set of (feed, station) pairs.
type Store interface {
	Close() error
	SeenStation(feedID string, id uuid.UUID) (bool, error)
	MarkStation(feedID string, id uuid.UUID) error
	// PruneFeeds forgets every feed not listed in active and returns how
	// many were dropped.
	PruneFeeds(active []string) (int, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	StationTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultStationTTL      = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour

	// unnamedFeed holds stations marked without a feed id.
	unnamedFeed = "_"
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.StationTTL <= 0 {
		opts.StationTTL = defaultStationTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// feedName is the namespace a feed's stations live under.
func feedName(feedID string) string {
	if feedID = strings.TrimSpace(feedID); feedID != "" {
		return feedID
	}
	return unnamedFeed
}

type noopStore struct{}

func (noopStore) Close() error                               { return nil }
func (noopStore) SeenStation(string, uuid.UUID) (bool, error) { return false, nil }
func (noopStore) MarkStation(string, uuid.UUID) error         { return nil }
func (noopStore) PruneFeeds([]string) (int, error)            { return 0, nil }
