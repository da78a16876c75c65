// internal/garden/store/store.go

// Package store persists plant records. Postgres is the production
// backend; the embedded SQLite backend serves single-node deployments and
// local development.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"garden-planner/internal/models"
)

// SearchLimit caps SearchBySubstring results.
const SearchLimit = 20

// PopularLimit caps the popular list in Stats.
const PopularLimit = 5

var ErrInvalidRecord = errors.New("invalid plant record")

var nowUTC = func() time.Time { return time.Now().UTC() }

// PlantStore is the durable tier consulted by the resolver. Keys passed
// in are already normalized.
type PlantStore interface {
	// Upsert inserts rec or refreshes an existing row. A seeded row is
	// never overwritten by generated data.
	Upsert(ctx context.Context, rec models.PlantRecord) error
	// FindByName returns nil, nil when no row matches.
	FindByName(ctx context.Context, key string) (*models.PlantRecord, error)
	// FindByNames also bumps the usage count of every returned row.
	FindByNames(ctx context.Context, keys []string) ([]models.PlantRecord, error)
	FindByCategory(ctx context.Context, category string) ([]models.PlantRecord, error)
	// SearchBySubstring orders by usage count, then name, capped at SearchLimit.
	SearchBySubstring(ctx context.Context, query string) ([]models.PlantRecord, error)
	IncrementUsage(ctx context.Context, key string) error
}

// Backend adds the maintenance operations used by the seeder and workers.
type Backend interface {
	PlantStore
	EnsureSchema(ctx context.Context) error
	ListAll(ctx context.Context) ([]models.PlantRecord, error)
	Stats(ctx context.Context) (models.PlantStats, error)
	Close() error
}

// prepare normalizes a record before it is written.
func prepare(rec models.PlantRecord) (models.PlantRecord, error) {
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return rec, ErrInvalidRecord
	}
	rec.Key = models.NormalizeKey(rec.Name)
	rec.Category = models.NormalizeKey(rec.Category)
	if rec.Source == "" {
		rec.Source = models.SourceGenerated
	}
	if rec.UsageCount < 1 {
		rec.UsageCount = 1
	}
	if rec.CompanionPlants == nil {
		rec.CompanionPlants = []string{}
	}
	if rec.AvoidPlantingWith == nil {
		rec.AvoidPlantingWith = []string{}
	}
	return rec, nil
}

// likePattern builds a case-insensitive contains pattern, escaping the
// LIKE wildcards in q.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(models.NormalizeKey(q)) + "%"
}

func dedupeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = models.NormalizeKey(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
