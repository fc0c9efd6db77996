package ephemeris

import (
	"fmt"
	"sync"
	"time"

	"astroref/internal/body"
	"astroref/internal/errs"
	"astroref/internal/metrics"
)

// Snapshot is one fetched sky: tropical longitudes per body at TakenAt.
type Snapshot struct {
	ID         string              `json:"id"`
	Provider   string              `json:"provider"`
	TakenAt    time.Time           `json:"taken_at"`
	Longitudes map[body.ID]float64 `json:"longitudes"`
}

// Placements returns the snapshot's bodies in traditional order.
func (s Snapshot) Placements() []body.Placement { return body.FromMap(s.Longitudes) }

func (s Snapshot) clone() Snapshot {
	out := s
	out.Longitudes = make(map[body.ID]float64, len(s.Longitudes))
	for id, lon := range s.Longitudes {
		out.Longitudes[id] = lon
	}
	return out
}

// Cache holds the last stored snapshot. Stores replace the slot outright;
// nothing is merged.
type Cache struct {
	mu     sync.RWMutex
	snap   *Snapshot
	maxAge time.Duration
}

// NewCache returns an empty cache whose entries expire after maxAge.
// A non-positive maxAge disables expiry.
func NewCache(maxAge time.Duration) *Cache {
	return &Cache{maxAge: maxAge}
}

// Store replaces the cached snapshot.
func (c *Cache) Store(s Snapshot) {
	cp := s.clone()
	c.mu.Lock()
	c.snap = &cp
	c.mu.Unlock()
}

// Clear empties the slot.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// Current returns the cached snapshot if it is present and no older than
// maxAge at now. Absent or stale snapshots yield an unavailable error.
func (c *Cache) Current(now time.Time) (Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()

	if snap == nil {
		return Snapshot{}, errs.Unavailable("ephemeris.cache", fmt.Errorf("no snapshot cached"))
	}
	age := now.Sub(snap.TakenAt)
	metrics.SnapshotAgeSeconds.Set(age.Seconds())
	if c.maxAge > 0 && age > c.maxAge {
		return Snapshot{}, errs.Unavailable("ephemeris.cache", fmt.Errorf("snapshot %s is %s old", snap.ID, age.Round(time.Second)))
	}
	return snap.clone(), nil
}
