package calendar

import (
	"context"
	"sync"
	"time"
)

// Cache holds the events of one calendar source for a TTL, so repeated
// conflict checks in a session fetch the source once.
type Cache struct {
	source string
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	events    []Event
	fetched   bool
	fetchedAt time.Time
}

func NewCache(source string, ttl time.Duration) *Cache {
	return &Cache{source: source, ttl: ttl, now: time.Now}
}

func (c *Cache) get() ([]Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fetched || c.now().Sub(c.fetchedAt) > c.ttl {
		return nil, false
	}

	result := make([]Event, len(c.events))
	copy(result, c.events)
	return result, true
}

func (c *Cache) set(events []Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = make([]Event, len(events))
	copy(c.events, events)
	c.fetched = true
	c.fetchedAt = c.now()
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = nil
	c.fetched = false
}

// Conflicts is like the package-level Conflicts but serves the source from
// the cache while it is fresh.
func (c *Cache) Conflicts(ctx context.Context, a Appointment) ([]Event, error) {
	events, ok := c.get()
	if !ok {
		all, err := FetchAll(ctx, c.source)
		if err != nil {
			return nil, err
		}
		c.set(all)
		events, _ = c.get()
	}
	return inZone(overlapping(events, a.Start, a.End()), a.Start.Location()), nil
}
