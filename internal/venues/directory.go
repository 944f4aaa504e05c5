package venues

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Directory is a concurrent-safe TTL cache of venue display metadata in front
// of the master store, so the check-in path does not hit the source-of-truth
// database on every location update.
type Directory struct {
	master MasterStore
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]directoryEntry

	hits   atomic.Int64
	misses atomic.Int64
}

type directoryEntry struct {
	info     Info
	cachedAt time.Time
}

// NewDirectory creates a Directory with the given TTL.
func NewDirectory(master MasterStore, ttl time.Duration) *Directory {
	return &Directory{
		master:  master,
		ttl:     ttl,
		entries: make(map[string]directoryEntry),
	}
}

// Resolve returns display metadata for the given ids, reading through to the
// master store for ids not cached or expired. Ids unknown to the master store
// are missing from the result.
func (d *Directory) Resolve(ctx context.Context, ids []string) (map[string]Info, error) {
	out := make(map[string]Info, len(ids))
	var stale []string

	d.mu.RLock()
	now := time.Now()
	for _, id := range ids {
		entry, ok := d.entries[id]
		if ok && now.Sub(entry.cachedAt) <= d.ttl {
			out[id] = entry.info
			d.hits.Add(1)
			continue
		}
		stale = append(stale, id)
		d.misses.Add(1)
	}
	d.mu.RUnlock()

	if len(stale) == 0 {
		return out, nil
	}

	resolved, err := d.master.ResolveVenues(ctx, stale)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	for id, info := range resolved {
		d.entries[id] = directoryEntry{info: info, cachedAt: now}
		out[id] = info
	}
	d.mu.Unlock()

	return out, nil
}

// Stats returns cache hit/miss counters.
func (d *Directory) Stats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}
