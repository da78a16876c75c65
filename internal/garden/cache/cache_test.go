// internal/garden/cache/cache_test.go
package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func tomato() models.PlantRecord {
	return models.PlantRecord{
		Name:            "Tomato",
		Key:             "tomato",
		Category:        models.CategoryVegetable,
		DaysToHarvest:   80,
		SpacingInches:   24,
		CompanionPlants: []string{"Basil"},
		Source:          models.SourceSeeded,
	}
}

func TestPlantCache_GetNormalizesKey(t *testing.T) {
	c := New(Config{})
	c.Put("Tomato", tomato())

	for _, name := range []string{"Tomato", "TOMATO", "  tomato "} {
		rec, ok := c.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, "Tomato", rec.Name)
	}

	_, ok := c.Get("Potato")
	assert.False(t, ok)
}

func TestPlantCache_PutStoresAlias(t *testing.T) {
	c := New(Config{})
	rec := tomato()
	c.Put("tomatoes", rec)

	_, ok := c.Get("Tomatoes")
	assert.True(t, ok)
	_, ok = c.Get("tomato")
	assert.True(t, ok, "record's own display name should resolve")
	assert.Equal(t, 2, c.Len())
}

func TestPlantCache_ExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(Config{TTL: time.Hour, Now: clock.Now})
	c.Put("Tomato", tomato())

	clock.Advance(59 * time.Minute)
	_, ok := c.Get("tomato")
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("tomato")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired slot should be cleared on read")
}

func TestPlantCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(Config{Capacity: 3})
	for _, name := range []string{"a", "b", "c"} {
		c.Put(name, models.PlantRecord{Name: name})
	}

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", models.PlantRecord{Name: "d"})

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	for _, name := range []string{"a", "c", "d"} {
		_, ok := c.Get(name)
		assert.True(t, ok, name)
	}
	assert.Equal(t, 3, c.Len())
}

func TestPlantCache_ReturnsCopies(t *testing.T) {
	c := New(Config{})
	rec := tomato()
	c.Put("Tomato", rec)

	rec.CompanionPlants[0] = "Fennel"
	got, _ := c.Get("Tomato")
	assert.Equal(t, []string{"Basil"}, got.CompanionPlants)

	got.CompanionPlants[0] = "Walnut"
	again, _ := c.Get("Tomato")
	assert.Equal(t, []string{"Basil"}, again.CompanionPlants)
}

func TestPlantCache_LastWriteWins(t *testing.T) {
	c := New(Config{})
	c.Put("Tomato", tomato())

	updated := tomato()
	updated.DaysToHarvest = 65
	c.Put("Tomato", updated)

	got, ok := c.Get("Tomato")
	require.True(t, ok)
	assert.Equal(t, 65, got.DaysToHarvest)
	assert.Equal(t, 1, c.Len())
}

func TestPlantCache_Purge(t *testing.T) {
	clock := newFakeClock()
	c := New(Config{TTL: time.Minute, Now: clock.Now})
	c.Put("old", models.PlantRecord{Name: "old"})
	clock.Advance(2 * time.Minute)
	c.Put("new", models.PlantRecord{Name: "new"})

	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestPlantCache_RunStopsWithContext(t *testing.T) {
	c := New(Config{TTL: time.Nanosecond})
	c.Put("x", models.PlantRecord{Name: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestPlantCache_ConcurrentAccess(t *testing.T) {
	c := New(Config{Capacity: 50})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				name := fmt.Sprintf("plant-%d", (i+j)%80)
				c.Put(name, models.PlantRecord{Name: name})
				c.Get(name)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
