package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	// feedsBucket holds one nested bucket per feed, keyed by the raw
	// 16-byte station UUID.
	feedsBucket      = "feeds"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("feeds bucket missing")

// boltStore implements a Store backed by BoltDB. Values hold the big-endian
// unix expiry of the entry.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	stationTTL      time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(feedsBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		stationTTL:      opts.StationTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func rootBucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	root := tx.Bucket([]byte(feedsBucket))
	if root == nil {
		return nil, errBucketMissing
	}
	return root, nil
}

// SeenStation reports whether the pair was marked and has not expired.
// Expired entries are removed on read.
func (b *boltStore) SeenStation(feedID string, id uuid.UUID) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var (
		seen  bool
		stale bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		root, err := rootBucket(tx)
		if err != nil {
			return err
		}
		feed := root.Bucket([]byte(feedName(feedID)))
		if feed == nil {
			return nil
		}
		value := feed.Get(id[:])
		if value == nil {
			return nil
		}
		expiry, ok := decodeExpiry(value)
		seen = ok && expiry.After(now)
		stale = !seen
		return nil
	})
	if err != nil || !stale {
		return seen, err
	}

	return false, b.db.Update(func(tx *bolt.Tx) error {
		root, err := rootBucket(tx)
		if err != nil {
			return err
		}
		if feed := root.Bucket([]byte(feedName(feedID))); feed != nil {
			return feed.Delete(id[:])
		}
		return nil
	})
}

// MarkStation records the pair, refreshing its expiry if already present.
func (b *boltStore) MarkStation(feedID string, id uuid.UUID) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		root, err := rootBucket(tx)
		if err != nil {
			return err
		}
		feed, err := root.CreateBucketIfNotExists([]byte(feedName(feedID)))
		if err != nil {
			return fmt.Errorf("create feed bucket: %w", err)
		}
		return feed.Put(id[:], encodeExpiry(now.Add(b.stationTTL)))
	})
}

// PruneFeeds drops the history of feeds that are no longer configured.
func (b *boltStore) PruneFeeds(active []string) (int, error) {
	if b == nil || b.db == nil {
		return 0, nil
	}

	keep := make(map[string]struct{}, len(active))
	for _, id := range active {
		keep[feedName(id)] = struct{}{}
	}

	var pruned int
	err := b.db.Update(func(tx *bolt.Tx) error {
		root, err := rootBucket(tx)
		if err != nil {
			return err
		}
		var drop [][]byte
		if err := root.ForEachBucket(func(name []byte) error {
			if _, ok := keep[string(name)]; !ok {
				drop = append(drop, append([]byte(nil), name...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, name := range drop {
			if err := root.DeleteBucket(name); err != nil {
				return fmt.Errorf("drop feed %q: %w", name, err)
			}
		}
		pruned = len(drop)
		return nil
	})
	return pruned, err
}

// count returns the number of stored entries across feeds, expired or not.
func (b *boltStore) count() (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		root, err := rootBucket(tx)
		if err != nil {
			return err
		}
		return root.ForEachBucket(func(name []byte) error {
			return root.Bucket(name).ForEach(func(_, _ []byte) error {
				n++
				return nil
			})
		})
	})
	return n, err
}

// maybeCleanupExpired sweeps expired entries at most once per cleanup
// interval and drops feed buckets the sweep leaves empty.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		root, err := rootBucket(tx)
		if err != nil {
			return err
		}

		var empty [][]byte
		if err := root.ForEachBucket(func(name []byte) error {
			feed := root.Bucket(name)
			var expired [][]byte
			remaining := 0
			if err := feed.ForEach(func(k, v []byte) error {
				if expiry, ok := decodeExpiry(v); ok && expiry.After(now) {
					remaining++
				} else {
					expired = append(expired, append([]byte(nil), k...))
				}
				return nil
			}); err != nil {
				return err
			}
			for _, k := range expired {
				if err := feed.Delete(k); err != nil {
					return err
				}
			}
			if remaining == 0 {
				empty = append(empty, append([]byte(nil), name...))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, name := range empty {
			if err := root.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
