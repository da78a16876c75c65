// internal/garden/resolver/resolver.go

// Package resolver turns plant names into plant records using the cache,
// the durable store and, as a last resort, the completion service. Newly
// generated records are written back to every tier.
package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"garden-planner/internal/common/metrics"
	"garden-planner/internal/garden/genai"
	"garden-planner/internal/garden/store"
	"garden-planner/internal/models"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Cache is the in-process tier.
type Cache interface {
	Get(name string) (models.PlantRecord, bool)
	Put(name string, rec models.PlantRecord)
}

// PlantGenerator produces a record for a name no tier knows.
type PlantGenerator interface {
	Generate(ctx context.Context, name string) (models.PlantRecord, error)
}

// Indexer receives newly generated records for search.
type Indexer interface {
	IndexPlant(ctx context.Context, rec models.PlantRecord) error
}

type Config struct {
	StoreTimeout             time.Duration
	MaxConcurrentGenerations int
}

type Resolver struct {
	cache     Cache
	store     store.PlantStore
	generator PlantGenerator
	indexer   Indexer
	config    Config
	logger    Logger
	tracer    trace.Tracer

	flight  singleflight.Group
	pending sync.WaitGroup
}

type Option func(*Resolver)

func WithIndexer(idx Indexer) Option {
	return func(r *Resolver) { r.indexer = idx }
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

// New builds a resolver. plantStore and generator may be nil, which
// removes that tier.
func New(c Cache, plantStore store.PlantStore, generator PlantGenerator, config Config, log Logger, opts ...Option) *Resolver {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = 5 * time.Second
	}
	if config.MaxConcurrentGenerations <= 0 {
		config.MaxConcurrentGenerations = 4
	}
	r := &Resolver{
		cache:     c,
		store:     plantStore,
		generator: generator,
		config:    config,
		logger:    log,
		tracer:    otel.Tracer("garden-planner/resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the record for name, or false when every tier misses.
// Tier failures are logged and never returned.
func (r *Resolver) Resolve(ctx context.Context, name string) (*models.PlantRecord, bool) {
	key := models.NormalizeKey(name)
	if key == "" {
		return nil, false
	}

	ctx, span := r.tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(attribute.String("plant.key", key)))
	defer span.End()

	if rec, ok := r.cache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		metrics.PlantResolutions.WithLabelValues("cache", "hit").Inc()
		span.SetAttributes(attribute.String("plant.tier", "cache"))
		return &rec, true
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	if rec, ok := r.fromStore(ctx, key); ok {
		span.SetAttributes(attribute.String("plant.tier", "store"))
		return rec, true
	}

	rec, ok := r.generate(ctx, name)
	if ok {
		span.SetAttributes(attribute.String("plant.tier", "generated"))
	}
	return rec, ok
}

func (r *Resolver) fromStore(ctx context.Context, key string) (*models.PlantRecord, bool) {
	if r.store == nil {
		return nil, false
	}

	sctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	rec, err := r.store.FindByName(sctx, key)
	cancel()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("find_by_name").Inc()
		metrics.PlantResolutions.WithLabelValues("store", "error").Inc()
		r.logger.Warn("plant store lookup failed", map[string]interface{}{
			"plant": key,
			"error": err.Error(),
		})
		return nil, false
	}
	if rec == nil {
		metrics.PlantResolutions.WithLabelValues("store", "miss").Inc()
		return nil, false
	}

	metrics.PlantResolutions.WithLabelValues("store", "hit").Inc()
	r.cache.Put(key, *rec)
	r.incrementUsage(rec.Key)
	return rec, true
}

// generate collapses concurrent generations of the same key.
func (r *Resolver) generate(ctx context.Context, name string) (*models.PlantRecord, bool) {
	if r.generator == nil {
		return nil, false
	}
	key := models.NormalizeKey(name)

	v, err, shared := r.flight.Do(key, func() (interface{}, error) {
		rec, err := r.generator.Generate(ctx, name)
		if err != nil {
			return nil, err
		}
		r.writeBack(ctx, key, rec)
		return rec, nil
	})
	if err != nil {
		metrics.PlantResolutions.WithLabelValues("generated", genai.Outcome(err)).Inc()
		r.logger.Warn("plant generation failed", map[string]interface{}{
			"plant": strings.TrimSpace(name),
			"error": err.Error(),
		})
		return nil, false
	}

	metrics.PlantResolutions.WithLabelValues("generated", "ok").Inc()
	rec := v.(models.PlantRecord)
	if shared {
		rec = rec.Clone()
	}
	return &rec, true
}

// writeBack persists a generated record. Failures only cost a future
// regeneration, so they are logged.
func (r *Resolver) writeBack(ctx context.Context, key string, rec models.PlantRecord) {
	if r.store != nil {
		sctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
		if err := r.store.Upsert(sctx, rec); err != nil {
			metrics.StoreErrors.WithLabelValues("upsert").Inc()
			r.logger.Warn("failed to store generated plant", map[string]interface{}{
				"plant": key,
				"error": err.Error(),
			})
		}
		cancel()
	}

	if r.indexer != nil {
		ictx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
		if err := r.indexer.IndexPlant(ictx, rec); err != nil {
			r.logger.Warn("failed to index generated plant", map[string]interface{}{
				"plant": key,
				"error": err.Error(),
			})
		}
		cancel()
	}

	r.cache.Put(key, rec)
	r.logger.Info("generated plant profile", map[string]interface{}{
		"plant": rec.Name,
		"model": r.modelOf(rec),
	})
}

func (r *Resolver) modelOf(rec models.PlantRecord) string {
	if rec.GeneratedBy == nil {
		return ""
	}
	return *rec.GeneratedBy
}

func (r *Resolver) incrementUsage(key string) {
	if r.store == nil {
		return
	}
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.config.StoreTimeout)
		defer cancel()
		if err := r.store.IncrementUsage(ctx, key); err != nil {
			metrics.StoreErrors.WithLabelValues("increment_usage").Inc()
			r.logger.Debug("usage increment failed", map[string]interface{}{
				"plant": key,
				"error": err.Error(),
			})
		}
	}()
}

// Wait blocks until background usage increments finish.
func (r *Resolver) Wait() {
	r.pending.Wait()
}

// ResolveMany resolves names in one pass: cache, one batched store read,
// then bounded parallel generation. Results follow the first occurrence of
// each name; names no tier can resolve are left out.
func (r *Resolver) ResolveMany(ctx context.Context, names []string) []models.PlantRecord {
	ctx, span := r.tracer.Start(ctx, "resolver.ResolveMany", trace.WithAttributes(attribute.Int("plant.requested", len(names))))
	defer span.End()

	keys, firstName := dedupe(names)
	if len(keys) == 1 {
		if rec, ok := r.Resolve(ctx, firstName[keys[0]]); ok {
			return []models.PlantRecord{*rec}
		}
		return []models.PlantRecord{}
	}
	found := make(map[string]models.PlantRecord, len(keys))

	var misses []string
	for _, key := range keys {
		if rec, ok := r.cache.Get(key); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			metrics.PlantResolutions.WithLabelValues("cache", "hit").Inc()
			found[key] = rec
			continue
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		misses = append(misses, key)
	}

	if len(misses) > 0 && r.store != nil {
		misses = r.batchFromStore(ctx, misses, found)
	}

	if len(misses) > 0 && r.generator != nil {
		var mu sync.Mutex
		var g errgroup.Group
		g.SetLimit(r.config.MaxConcurrentGenerations)
		for _, key := range misses {
			key := key
			g.Go(func() error {
				rec, ok := r.generate(ctx, firstName[key])
				if ok {
					mu.Lock()
					found[key] = *rec
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]models.PlantRecord, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, key := range keys {
		rec, ok := found[key]
		if !ok {
			continue
		}
		recKey := rec.Key
		if recKey == "" {
			recKey = models.NormalizeKey(rec.Name)
		}
		if _, dup := seen[recKey]; dup {
			continue
		}
		seen[recKey] = struct{}{}
		out = append(out, rec)
	}

	span.SetAttributes(attribute.Int("plant.resolved", len(out)))
	r.logger.Debug("resolved plants", map[string]interface{}{
		"requested": len(keys),
		"resolved":  len(out),
	})
	return out
}

// batchFromStore fills found from one FindByNames call and returns the
// keys still missing. A store error leaves every key missing.
func (r *Resolver) batchFromStore(ctx context.Context, misses []string, found map[string]models.PlantRecord) []string {
	sctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	recs, err := r.store.FindByNames(sctx, misses)
	cancel()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("find_by_names").Inc()
		metrics.PlantResolutions.WithLabelValues("store", "error").Inc()
		r.logger.Warn("plant store batch lookup failed", map[string]interface{}{
			"count": len(misses),
			"error": err.Error(),
		})
		return misses
	}

	for _, rec := range recs {
		key := rec.Key
		if key == "" {
			key = models.NormalizeKey(rec.Name)
		}
		found[key] = rec
		r.cache.Put(key, rec)
		metrics.PlantResolutions.WithLabelValues("store", "hit").Inc()
	}

	remaining := misses[:0:0]
	for _, key := range misses {
		if _, ok := found[key]; !ok {
			metrics.PlantResolutions.WithLabelValues("store", "miss").Inc()
			remaining = append(remaining, key)
		}
	}
	return remaining
}

// Unresolved lists the requested names, once each, that no record covers.
func Unresolved(names []string, recs []models.PlantRecord) []string {
	have := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		have[models.NormalizeKey(rec.Name)] = struct{}{}
		if rec.Key != "" {
			have[rec.Key] = struct{}{}
		}
	}

	keys, firstName := dedupe(names)
	var out []string
	for _, key := range keys {
		if _, ok := have[key]; !ok {
			out = append(out, firstName[key])
		}
	}
	return out
}

// dedupe returns normalized keys in first-occurrence order and the
// trimmed name that first produced each key. Blank names are dropped.
func dedupe(names []string) ([]string, map[string]string) {
	keys := make([]string, 0, len(names))
	firstName := make(map[string]string, len(names))
	for _, name := range names {
		key := models.NormalizeKey(name)
		if key == "" {
			continue
		}
		if _, ok := firstName[key]; ok {
			continue
		}
		firstName[key] = strings.TrimSpace(name)
		keys = append(keys, key)
	}
	return keys, firstName
}
