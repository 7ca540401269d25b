package feeds

import (
	"fmt"
	"strings"
	"sync"
)

// fetcherRegistry implements FetcherRegistry.
type fetcherRegistry struct {
	fetchersByID   map[string]Fetcher
	fetchersByKind map[string]Fetcher
	mu             sync.RWMutex
}

// NewFetcherRegistry builds a registry keyed by kind, with optional
// per-feed overrides keyed by feed id.
func NewFetcherRegistry(kindFetchers []Fetcher, feedFetchers map[string]Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchersByID:   make(map[string]Fetcher),
		fetchersByKind: make(map[string]Fetcher),
	}
	for _, f := range kindFetchers {
		if f == nil {
			continue
		}
		reg.register(reg.fetchersByKind, f.Kind(), f)
	}
	for id, f := range feedFetchers {
		reg.register(reg.fetchersByID, id, f)
	}
	return reg
}

func (r *fetcherRegistry) register(into map[string]Fetcher, key string, f Fetcher) {
	if f == nil {
		return
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}

	r.mu.Lock()
	into[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for feed by id, then by kind.
func (r *fetcherRegistry) FetcherFor(feed Feed) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(feed.ID) == "" {
		return nil, fmt.Errorf("feed id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchersByID[strings.ToLower(strings.TrimSpace(feed.ID))]; ok {
		return f, nil
	}
	if f, ok := r.fetchersByKind[strings.ToLower(strings.TrimSpace(feed.Kind))]; ok {
		return f, nil
	}

	return nil, fmt.Errorf("no fetcher registered for feed %q (kind %q)", feed.ID, feed.Kind)
}

// DefaultFetcherRegistry wires a fetcher for every feed kind to src.
func DefaultFetcherRegistry(src StationSource) FetcherRegistry {
	return NewFetcherRegistry([]Fetcher{
		NewTopVoteFetcher(src),
		NewSearchFetcher(src),
		NewAllFetcher(src),
		NewByUUIDFetcher(src),
	}, nil)
}
