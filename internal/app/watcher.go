package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/radiodir/internal/config"
	"github.com/samvad-hq/radiodir/internal/logger"
	"github.com/samvad-hq/radiodir/internal/storage"
	"github.com/samvad-hq/radiodir/internal/watcher"
	"github.com/samvad-hq/radiodir/pkg/feeds"
	"github.com/samvad-hq/radiodir/pkg/httpclient"
	"github.com/samvad-hq/radiodir/pkg/publishers"
	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

// Watcher is the station watcher runtime. It owns the poll loop and the
// resources shared by every pass: the directory client, the publishers and
// the seen-station store.
type Watcher struct {
	cfg           *config.Config
	feedList      []feeds.Feed
	fanout        *publishers.Fanout
	service       *watcher.Service
	watchInterval time.Duration
	log           logger.Logger
	store         storage.Store
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := feeds.LoadFeeds(cfg.FeedsFile); err != nil {
		return nil, fmt.Errorf("load feeds registry: %w", err)
	}
	feedList := feeds.Feeds()
	feedIDs := make([]string, 0, len(feedList))
	for _, f := range feedList {
		feedIDs = append(feedIDs, f.ID)
	}
	log.InfoObj("feeds registry loaded", "feeds_meta", map[string]any{
		"count": len(feedIDs),
		"ids":   feedIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		StationTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	pruned, err := store.PruneFeeds(feedIDs)
	if err != nil {
		log.WarnObj("storage prune failed", "error", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"station_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
		"pruned_feeds":             pruned,
	})

	httpClient := httpclient.NewRestyClient(cfg.HTTPTimeout)
	client := NewRadioClient(cfg, httpClient, log)
	scraper := watcher.NewScraper(httpClient, log).WithUserAgent(cfg.UserAgent)

	service := watcher.NewService(
		feeds.DefaultFetcherRegistry(client),
		scraper,
		fanout,
		log,
		store,
		cfg.WatchConcurrency,
	)

	return &Watcher{
		cfg:           cfg,
		feedList:      feedList,
		fanout:        fanout,
		service:       service,
		watchInterval: cfg.WatchInterval,
		log:           log,
		store:         store,
	}, nil
}

// NewRadioClient builds the directory client from config.
func NewRadioClient(cfg *config.Config, hc httpclient.Client, log logger.Logger) *radiobrowser.Client {
	opts := []radiobrowser.Option{
		radiobrowser.WithUserAgent(cfg.UserAgent),
		radiobrowser.WithHost(cfg.RadioHost),
	}
	if hc != nil {
		opts = append(opts, radiobrowser.WithHTTPClient(hc))
	} else {
		opts = append(opts, radiobrowser.WithHTTPClient(httpclient.NewRestyClient(cfg.HTTPTimeout)))
	}
	if log != nil {
		opts = append(opts, radiobrowser.WithLogger(log))
	}
	return radiobrowser.New(opts...)
}

// Run starts the watch loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"feeds_count":      len(w.feedList),
		"publishers_count": w.fanout.Size(),
		"watch_interval":   w.watchInterval.String(),
	})

	if err := w.runOnce(ctx); err != nil {
		w.log.ErrorObj("initial watch pass failed", "error", err)
	}

	ticker := time.NewTicker(w.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				w.log.ErrorObj("scheduled watch pass failed", "error", err)
			}
		}
	}
}

// runOnce performs a single pass across all feeds.
func (w *Watcher) runOnce(ctx context.Context) error {
	start := time.Now()
	w.log.InfoObj("watch pass started", "watch_meta", map[string]any{
		"feeds_count": len(w.feedList),
		"started_at":  start.UTC(),
	})
	if err := w.service.Run(ctx, w.feedList); err != nil {
		return err
	}
	w.log.InfoObj("watch pass completed", "watch_meta", map[string]any{
		"feeds_count": len(w.feedList),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the publishers and the store, logging any errors encountered.
func (w *Watcher) close() {
	if w == nil {
		return
	}
	if err := w.fanout.Close(); err != nil {
		w.log.ErrorObj("publishers close failed", "error", err)
	}
	if w.store == nil {
		return
	}
	if err := w.store.Close(); err != nil {
		w.log.ErrorObj("storage close failed", "error", err)
	}
}
