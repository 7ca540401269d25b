package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/samvad-hq/radiodir/internal/logger"
	"github.com/samvad-hq/radiodir/pkg/feeds"
	"github.com/samvad-hq/radiodir/pkg/publishers"
	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

// Result summarizes one feed pass.
type Result struct {
	FeedID    string
	Fetched   int
	Matched   int
	Fresh     int
	Published int
}

// FeedProcessor runs fetch, filter, dedupe, enrich and publish for one feed.
type FeedProcessor struct {
	registry  feeds.FetcherRegistry
	scraper   HomepageScraper
	publisher EventPublisher
	log       logger.Logger
	deduper   Deduper
}

// NewFeedProcessor wires a processor. scraper, publisher and deduper may be nil.
func NewFeedProcessor(reg feeds.FetcherRegistry, scraper HomepageScraper, pub EventPublisher, log logger.Logger, deduper Deduper) *FeedProcessor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &FeedProcessor{
		registry:  reg,
		scraper:   scraper,
		publisher: pub,
		log:       log,
		deduper:   deduper,
	}
}

// Process polls feed once. Publish failures are joined into the returned
// error; stations that reached no sink stay unmarked and are retried on the
// next pass.
func (p *FeedProcessor) Process(ctx context.Context, feed feeds.Feed) (Result, error) {
	res := Result{FeedID: feed.ID}
	if p == nil || p.registry == nil {
		return res, fmt.Errorf("feed processor is not initialized")
	}

	fetcher, err := p.registry.FetcherFor(feed)
	if err != nil {
		return res, fmt.Errorf("resolve fetcher for feed %s: %w", feed.ID, err)
	}

	stations, err := fetcher.Fetch(ctx, feed)
	if err != nil {
		return res, err
	}
	res.Fetched = len(stations)

	filter, err := feed.StationFilter()
	if err != nil {
		return res, err
	}
	stations = filter.Apply(stations)
	res.Matched = len(stations)

	items := p.filterNewStations(feed, stations)
	res.Fresh = len(items)
	if len(items) == 0 {
		return res, nil
	}

	if feed.Enrich && p.scraper != nil {
		items = p.scraper.Enrich(ctx, feed, items)
	}

	published, err := p.publishItems(ctx, feed, items)
	res.Published = published
	return res, err
}

// filterNewStations drops stations already marked for the feed and repeats
// within the batch. Lookup failures keep the station.
func (p *FeedProcessor) filterNewStations(feed feeds.Feed, stations []radiobrowser.Station) []Item {
	out := make([]Item, 0, len(stations))
	batch := make(map[uuid.UUID]struct{}, len(stations))

	for _, st := range stations {
		if _, dup := batch[st.StationUUID]; dup {
			continue
		}
		batch[st.StationUUID] = struct{}{}

		if p.deduper != nil {
			seen, err := p.deduper.SeenStation(feed.ID, st.StationUUID)
			if err != nil {
				p.log.WarnObj("station dedupe lookup failed", "dedupe_error", map[string]any{
					"feed_id":      feed.ID,
					"station_uuid": st.StationUUID.String(),
					"error":        err.Error(),
				})
			} else if seen {
				continue
			}
		}
		out = append(out, Item{Station: st})
	}
	return out
}

func (p *FeedProcessor) publishItems(ctx context.Context, feed feeds.Feed, items []Item) (int, error) {
	if p.publisher == nil {
		p.log.WarnObj("no publisher configured; skipping stations", "feed_meta", map[string]any{
			"feed_id":  feed.ID,
			"stations": len(items),
		})
		return 0, nil
	}

	var errs []error
	published := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		evt := publishers.NewEvent(feed.ID, feed.Name, item.Station)
		evt.Homepage = item.Homepage

		delivered, err := p.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish station %s: %w", item.Station.StationUUID, err))
		}
		if delivered == 0 {
			continue
		}
		published++

		if p.deduper != nil {
			if err := p.deduper.MarkStation(feed.ID, item.Station.StationUUID); err != nil {
				errs = append(errs, fmt.Errorf("mark station %s: %w", item.Station.StationUUID, err))
			}
		}
	}
	return published, errors.Join(errs...)
}
