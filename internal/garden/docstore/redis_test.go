// internal/garden/docstore/redis_test.go
package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-planner/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var baseTime = time.Date(2026, time.April, 10, 12, 0, 0, 0, time.UTC)

func setupMiniredis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedis(client, 0)
	store.now = func() time.Time { return baseTime }
	return store, mr
}

func createPlan(id string, createdAt time.Time, plants ...string) *models.GardenPlan {
	p := &models.GardenPlan{
		ID:        id,
		CreatedAt: createdAt,
		Request:   models.PlanRequest{LocationCode: "K1A 0A6", PlantNames: plants},
		Climate:   models.ClimateProfile{LocationCode: "K1A 0A6", HardinessZone: "4a-6a"},
		Sections:  models.PlanSections{Schedules: models.SectionDefault},
	}
	for _, name := range plants {
		p.Plants = append(p.Plants, models.PlantRecord{Name: name, Key: models.NormalizeKey(name)})
	}
	return p
}

// ==========================
// Miniredis Tests
// ==========================

func TestRedis_PersistAndGet(t *testing.T) {
	store, mr := setupMiniredis(t)
	ctx := context.Background()

	plan := createPlan("plan-1", baseTime, "Tomato", "Lettuce")
	require.NoError(t, store.Persist(ctx, plan))

	assert.True(t, mr.Exists("garden:plan:plan-1"))
	assert.Equal(t, DefaultPlanTTL, mr.TTL("garden:plan:plan-1"))
	members, err := mr.ZMembers("garden:plans")
	require.NoError(t, err)
	assert.Equal(t, []string{"plan-1"}, members)

	got, err := store.Get(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", got.ID)
	assert.True(t, baseTime.Equal(got.CreatedAt))
	assert.Equal(t, []string{"Tomato", "Lettuce"}, got.Request.PlantNames)
	assert.Equal(t, models.SectionDefault, got.Sections.Schedules)
}

func TestRedis_GetMissing(t *testing.T) {
	store, _ := setupMiniredis(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestRedis_PersistRejectsPlanWithoutID(t *testing.T) {
	store, _ := setupMiniredis(t)

	assert.ErrorIs(t, store.Persist(context.Background(), nil), ErrInvalidPlan)
	assert.ErrorIs(t, store.Persist(context.Background(), &models.GardenPlan{}), ErrInvalidPlan)
}

func TestRedis_ListNewestFirst(t *testing.T) {
	store, _ := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, store.Persist(ctx, createPlan("old", baseTime.Add(-2*time.Hour), "Kale")))
	require.NoError(t, store.Persist(ctx, createPlan("new", baseTime, "Tomato")))
	require.NoError(t, store.Persist(ctx, createPlan("mid", baseTime.Add(-time.Hour), "Basil", "Pepper")))

	summaries, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "new", summaries[0].ID)
	assert.Equal(t, "mid", summaries[1].ID)
	assert.Equal(t, []string{"Basil", "Pepper"}, summaries[1].PlantNames)
	assert.Equal(t, "4a-6a", summaries[1].Zone)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRedis_ListEmpty(t *testing.T) {
	store, _ := setupMiniredis(t)

	summaries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestRedis_ListDropsExpiredPlans(t *testing.T) {
	store, mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, store.Persist(ctx, createPlan("a", baseTime.Add(-time.Minute), "Kale")))
	require.NoError(t, store.Persist(ctx, createPlan("b", baseTime, "Tomato")))
	mr.Del("garden:plan:a")

	summaries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "b", summaries[0].ID)

	members, err := mr.ZMembers("garden:plans")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)
}

func TestRedis_TTLExpiry(t *testing.T) {
	store, mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, store.Persist(ctx, createPlan("plan-1", baseTime, "Tomato")))
	mr.FastForward(DefaultPlanTTL + time.Second)

	_, err := store.Get(ctx, "plan-1")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestRedis_PersistTrimsIndex(t *testing.T) {
	store, mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, store.Persist(ctx, createPlan("ancient", baseTime.Add(-DefaultPlanTTL-time.Hour), "Kale")))
	require.NoError(t, store.Persist(ctx, createPlan("fresh", baseTime, "Tomato")))

	members, err := mr.ZMembers("garden:plans")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, members)
}

func TestRedis_PersistServerDown(t *testing.T) {
	store, mr := setupMiniredis(t)
	mr.Close()

	err := store.Persist(context.Background(), createPlan("plan-1", baseTime, "Tomato"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist plan plan-1")
}

// ==========================
// Redismock Error Paths
// ==========================

func TestRedis_GetErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedis(client, time.Hour)
	ctx := context.Background()

	mock.ExpectGet("garden:plan:missing").RedisNil()
	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	mock.ExpectGet("garden:plan:broken").SetErr(errors.New("connection reset"))
	_, err = store.Get(ctx, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPlanNotFound)
	assert.Contains(t, err.Error(), "connection reset")

	mock.ExpectGet("garden:plan:garbled").SetVal("{not json")
	_, err = store.Get(ctx, "garbled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode plan garbled")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_ListErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedis(client, time.Hour)
	ctx := context.Background()

	mock.ExpectZRevRange("garden:plans", 0, 4).SetErr(errors.New("timeout"))
	_, err := store.List(ctx, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list plans")

	mock.ExpectZRevRange("garden:plans", 0, 99).SetVal([]string{"p1"})
	mock.ExpectMGet("garden:plan:p1").SetErr(errors.New("timeout"))
	_, err = store.List(ctx, 500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load plans")

	assert.NoError(t, mock.ExpectationsWereMet())
}
