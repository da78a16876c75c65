// internal/garden/cache/cache.go

// Package cache is the process-local first tier of plant resolution.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"garden-planner/internal/models"
)

const (
	DefaultTTL      = time.Hour
	DefaultCapacity = 1000
)

type Config struct {
	TTL      time.Duration
	Capacity int
	// Now is the clock used for insertion times and expiry checks.
	Now func() time.Time
}

type entry struct {
	key        string
	value      models.PlantRecord
	insertedAt time.Time
}

// PlantCache maps normalized plant names to records with a TTL and a
// least-recently-used bound. Records are copied on the way in and out.
type PlantCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	now      func() time.Time
	order    *list.List
	items    map[string]*list.Element
}

func New(cfg Config) *PlantCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &PlantCache{
		ttl:      cfg.TTL,
		capacity: cfg.Capacity,
		now:      cfg.Now,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the record cached under name. Expired entries are removed
// and reported as absent.
func (c *PlantCache) Get(name string) (models.PlantRecord, bool) {
	key := models.NormalizeKey(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return models.PlantRecord{}, false
	}
	e := el.Value.(*entry)
	if c.expired(e) {
		c.remove(el)
		return models.PlantRecord{}, false
	}
	c.order.MoveToFront(el)
	return e.value.Clone(), true
}

// Put stores rec under name and under the record's own display name.
func (c *PlantCache) Put(name string, rec models.PlantRecord) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(models.NormalizeKey(name), rec, now)
	if alias := models.NormalizeKey(rec.Name); alias != "" {
		c.set(alias, rec, now)
	}
}

func (c *PlantCache) set(key string, rec models.PlantRecord, now time.Time) {
	if key == "" {
		return
	}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = rec.Clone()
		e.insertedAt = now
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry{key: key, value: rec.Clone(), insertedAt: now})
	for c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
}

func (c *PlantCache) expired(e *entry) bool {
	return c.now().Sub(e.insertedAt) > c.ttl
}

func (c *PlantCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

// Len counts stored keys, expired or not.
func (c *PlantCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every expired entry and returns how many were removed.
func (c *PlantCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*entry)) {
			c.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *PlantCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Run purges expired entries every interval until ctx is done.
func (c *PlantCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
