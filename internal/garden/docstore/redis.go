// internal/garden/docstore/redis.go

// Package docstore keeps assembled garden plans in Redis.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"garden-planner/internal/models"
)

const (
	planKeyPrefix = "garden:plan:"
	planIndexKey  = "garden:plans"

	DefaultPlanTTL   = 30 * 24 * time.Hour
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var (
	ErrPlanNotFound = errors.New("PLAN_NOT_FOUND")
	ErrInvalidPlan  = errors.New("INVALID_PLAN")
)

// PlanStore persists plans and reads them back by id or recency.
type PlanStore interface {
	Persist(ctx context.Context, plan *models.GardenPlan) error
	Get(ctx context.Context, id string) (*models.GardenPlan, error)
	List(ctx context.Context, limit int) ([]models.PlanSummary, error)
}

// Redis stores each plan as JSON under garden:plan:<id> with a TTL and
// indexes ids in the garden:plans sorted set scored by creation time.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultPlanTTL
	}
	return &Redis{client: client, ttl: ttl, now: time.Now}
}

func planKey(id string) string {
	return planKeyPrefix + id
}

func (r *Redis) Persist(ctx context.Context, plan *models.GardenPlan) error {
	if plan == nil || plan.ID == "" {
		return ErrInvalidPlan
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", plan.ID, err)
	}

	// Index entries older than the TTL point at expired documents.
	cutoff := r.now().Add(-r.ttl).UnixMilli()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, planKey(plan.ID), data, r.ttl)
		pipe.ZAdd(ctx, planIndexKey, redis.Z{Score: float64(plan.CreatedAt.UnixMilli()), Member: plan.ID})
		pipe.ZRemRangeByScore(ctx, planIndexKey, "-inf", "("+strconv.FormatInt(cutoff, 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist plan %s: %w", plan.ID, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (*models.GardenPlan, error) {
	data, err := r.client.Get(ctx, planKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}

	var plan models.GardenPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return &plan, nil
}

// List returns summaries of the newest plans first. Index entries whose
// document has expired are skipped and removed.
func (r *Redis) List(ctx context.Context, limit int) ([]models.PlanSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	ids, err := r.client.ZRevRange(ctx, planIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]models.PlanSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = planKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}

	var stale []interface{}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var plan models.GardenPlan
		if err := json.Unmarshal([]byte(s), &plan); err != nil {
			continue
		}
		out = append(out, plan.Summary())
	}
	if len(stale) > 0 {
		_ = r.client.ZRem(ctx, planIndexKey, stale...).Err()
	}
	return out, nil
}
