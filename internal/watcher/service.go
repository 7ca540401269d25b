package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/radiodir/internal/logger"
	"github.com/samvad-hq/radiodir/pkg/feeds"
)

const defaultConcurrency = 4

// Service polls many feeds concurrently.
type Service struct {
	processor   *FeedProcessor
	concurrency int
	log         logger.Logger
}

// NewService wires a watcher service. concurrency bounds simultaneous feeds.
func NewService(reg feeds.FetcherRegistry, scraper HomepageScraper, pub EventPublisher, log logger.Logger, deduper Deduper, concurrency int) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		processor:   NewFeedProcessor(reg, scraper, pub, log, deduper),
		concurrency: concurrency,
		log:         log,
	}
}

// Run executes one pass over feeds. One failing feed does not stop the others.
func (s *Service) Run(ctx context.Context, list []feeds.Feed) error {
	if s == nil || s.processor == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(list) == 0 {
		return fmt.Errorf("no feeds configured for watching")
	}

	errs := s.runAll(ctx, list)
	return errors.Join(errs...)
}

func (s *Service) runAll(ctx context.Context, list []feeds.Feed) []error {
	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, feed := range list {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := s.processor.Process(gctx, feed)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.log.ErrorObj("feed pass failed", "feed_error", map[string]any{
					"feed_id": feed.ID,
					"error":   err.Error(),
				})
				mu.Lock()
				errs = append(errs, fmt.Errorf("feed %s: %w", feed.ID, err))
				mu.Unlock()
				return nil
			}
			s.log.InfoObj("feed pass completed", "feed_result", map[string]any{
				"feed_id":   res.FeedID,
				"fetched":   res.Fetched,
				"matched":   res.Matched,
				"fresh":     res.Fresh,
				"published": res.Published,
			})
			return nil
		})
	}

	_ = g.Wait()
	return errs
}
