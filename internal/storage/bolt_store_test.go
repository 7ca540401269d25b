package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestStore(t *testing.T, opts Options) (*boltStore, *fakeClock) {
	t.Helper()
	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "stations.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store.now = clock.now
	store.lastCleanup.Store(clock.t.Unix())
	return store, clock
}

func TestBoltStoreMarksAndExpiresStations(t *testing.T) {
	store, clock := openTestStore(t, Options{StationTTL: time.Hour, CleanupInterval: 24 * time.Hour})
	id := uuid.New()

	seen, err := store.SeenStation("top", id)
	if err != nil || seen {
		t.Fatalf("expected unseen station, seen=%v err=%v", seen, err)
	}

	if err := store.MarkStation("top", id); err != nil {
		t.Fatalf("MarkStation: %v", err)
	}

	seen, err = store.SeenStation("top", id)
	if err != nil || !seen {
		t.Fatalf("expected station marked as seen, got seen=%v err=%v", seen, err)
	}

	clock.advance(2 * time.Hour)
	seen, err = store.SeenStation("top", id)
	if err != nil {
		t.Fatalf("SeenStation after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire")
	}
	if n, _ := store.count(); n != 0 {
		t.Fatalf("expected expired entry to be deleted on read, %d left", n)
	}
}

func TestBoltStoreScopesByFeed(t *testing.T) {
	store, _ := openTestStore(t, Options{})
	id := uuid.New()

	if err := store.MarkStation("jazz", id); err != nil {
		t.Fatalf("MarkStation: %v", err)
	}
	seen, err := store.SeenStation("news", id)
	if err != nil || seen {
		t.Fatalf("expected station unseen for another feed, seen=%v err=%v", seen, err)
	}
}

func TestBoltStoreCleanupSweepsExpired(t *testing.T) {
	store, clock := openTestStore(t, Options{StationTTL: time.Minute, CleanupInterval: time.Hour})

	for i := 0; i < 5; i++ {
		if err := store.MarkStation("all", uuid.New()); err != nil {
			t.Fatalf("MarkStation: %v", err)
		}
	}
	if n, _ := store.count(); n != 5 {
		t.Fatalf("expected 5 entries, got %d", n)
	}

	clock.advance(2 * time.Hour)
	fresh := uuid.New()
	if err := store.MarkStation("all", fresh); err != nil {
		t.Fatalf("MarkStation: %v", err)
	}
	if n, _ := store.count(); n != 1 {
		t.Fatalf("expected sweep to leave only the fresh entry, got %d", n)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	id := uuid.New()
	if err := store.MarkStation("x", id); err != nil {
		t.Fatalf("noop store MarkStation: %v", err)
	}
	if seen, _ := store.SeenStation("x", id); seen {
		t.Fatalf("noop store should never report seen")
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for empty bbolt path")
	}
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}

	store, err := NewStore("BBolt", filepath.Join(t.TempDir(), "s.db"), Options{})
	if err != nil {
		t.Fatalf("NewStore bbolt: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*boltStore); !ok {
		t.Fatalf("expected bolt store, got %T", store)
	}
}

func TestBoltStoreSweepDropsEmptyFeeds(t *testing.T) {
	store, clock := openTestStore(t, Options{StationTTL: time.Minute, CleanupInterval: time.Hour})

	if err := store.MarkStation("old", uuid.New()); err != nil {
		t.Fatalf("MarkStation: %v", err)
	}
	clock.advance(2 * time.Hour)
	if err := store.MarkStation("new", uuid.New()); err != nil {
		t.Fatalf("MarkStation: %v", err)
	}

	// "old" was emptied by the sweep, so pruning it again is a no-op.
	pruned, err := store.PruneFeeds([]string{"new", "old"})
	if err != nil || pruned != 0 {
		t.Fatalf("PruneFeeds = %d, %v", pruned, err)
	}
	if n, _ := store.count(); n != 1 {
		t.Fatalf("expected only the fresh entry, got %d", n)
	}
}

func TestBoltStorePruneFeeds(t *testing.T) {
	store, _ := openTestStore(t, Options{})
	kept := uuid.New()

	for _, feed := range []string{"jazz", "news", ""} {
		if err := store.MarkStation(feed, kept); err != nil {
			t.Fatalf("MarkStation %q: %v", feed, err)
		}
	}

	pruned, err := store.PruneFeeds([]string{" jazz "})
	if err != nil {
		t.Fatalf("PruneFeeds: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("expected news and the unnamed feed pruned, got %d", pruned)
	}
	if seen, _ := store.SeenStation("jazz", kept); !seen {
		t.Fatalf("expected active feed to keep its history")
	}
	if seen, _ := store.SeenStation("news", kept); seen {
		t.Fatalf("expected pruned feed to forget its stations")
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.db")
	id := uuid.New()

	first, err := NewStore("bbolt", path, Options{StationTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := first.MarkStation("top", id); err != nil {
		t.Fatalf("MarkStation: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewStore("bbolt", path, Options{StationTTL: time.Hour})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if seen, err := second.SeenStation("top", id); err != nil || !seen {
		t.Fatalf("expected station to survive reopen, seen=%v err=%v", seen, err)
	}
}
