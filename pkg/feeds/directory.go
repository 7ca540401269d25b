package feeds

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

var errNoSource = errors.New("station source is nil")

type fetchFunc func(ctx context.Context, src StationSource, feed Feed) ([]radiobrowser.Station, error)

// directoryFetcher polls one kind of radio-browser listing.
type directoryFetcher struct {
	kind  string
	src   StationSource
	fetch fetchFunc
}

func (d *directoryFetcher) Kind() string { return d.kind }

func (d *directoryFetcher) Fetch(ctx context.Context, feed Feed) ([]radiobrowser.Station, error) {
	if d.src == nil {
		return nil, errNoSource
	}
	stations, err := d.fetch(ctx, d.src, feed)
	if err != nil {
		return nil, fmt.Errorf("fetch %s feed %q: %w", d.kind, feed.ID, err)
	}
	return stations, nil
}

// NewTopVoteFetcher lists the highest voted stations.
func NewTopVoteFetcher(src StationSource) Fetcher {
	return &directoryFetcher{kind: KindTopVote, src: src, fetch: func(ctx context.Context, src StationSource, feed Feed) ([]radiobrowser.Station, error) {
		return src.TopVoteStations(ctx, feed.Page())
	}}
}

// NewSearchFetcher lists stations whose name matches the feed query.
func NewSearchFetcher(src StationSource) Fetcher {
	return &directoryFetcher{kind: KindSearch, src: src, fetch: func(ctx context.Context, src StationSource, feed Feed) ([]radiobrowser.Station, error) {
		return src.SearchStations(ctx, feed.Query, feed.Page())
	}}
}

// NewAllFetcher lists every working station.
func NewAllFetcher(src StationSource) Fetcher {
	return &directoryFetcher{kind: KindAll, src: src, fetch: func(ctx context.Context, src StationSource, feed Feed) ([]radiobrowser.Station, error) {
		return src.AllStations(ctx, feed.Page())
	}}
}

// NewByUUIDFetcher looks up the stations listed in the feed.
func NewByUUIDFetcher(src StationSource) Fetcher {
	return &directoryFetcher{kind: KindByUUID, src: src, fetch: func(ctx context.Context, src StationSource, feed Feed) ([]radiobrowser.Station, error) {
		ids, err := feed.StationIDs()
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		return src.StationsByIDs(ctx, ids)
	}}
}
