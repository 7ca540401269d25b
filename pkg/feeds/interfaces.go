package feeds

import (
	"context"

	"github.com/google/uuid"

	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

// Fetcher polls the directory for one feed kind.
type Fetcher interface {
	Kind() string
	Fetch(ctx context.Context, feed Feed) ([]radiobrowser.Station, error)
}

// FetcherRegistry resolves the fetcher for a feed.
type FetcherRegistry interface {
	FetcherFor(feed Feed) (Fetcher, error)
}

// StationSource is the part of *radiobrowser.Client the fetchers use.
type StationSource interface {
	TopVoteStations(ctx context.Context, page radiobrowser.Page) ([]radiobrowser.Station, error)
	SearchStations(ctx context.Context, name string, page radiobrowser.Page) ([]radiobrowser.Station, error)
	AllStations(ctx context.Context, page radiobrowser.Page) ([]radiobrowser.Station, error)
	StationsByIDs(ctx context.Context, ids []uuid.UUID) ([]radiobrowser.Station, error)
}
