package watcher

import (
	"context"

	"github.com/google/uuid"

	"github.com/samvad-hq/radiodir/pkg/feeds"
	"github.com/samvad-hq/radiodir/pkg/publishers"
	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

// Item is a station on its way to the publishers.
type Item struct {
	Station  radiobrowser.Station
	Homepage *publishers.HomepageMeta
}

// HomepageScraper attaches homepage metadata to items.
type HomepageScraper interface {
	Enrich(ctx context.Context, feed feeds.Feed, items []Item) []Item
}

// EventPublisher publishes station events downstream. It returns the number
// of sinks that accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers stations already published for a feed.
type Deduper interface {
	SeenStation(feedID string, id uuid.UUID) (bool, error)
	MarkStation(feedID string, id uuid.UUID) error
}
