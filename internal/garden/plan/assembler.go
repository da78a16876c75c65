// internal/garden/plan/assembler.go

// Package plan assembles garden plans from a location, resolved plants and
// generated sections. Every section has a deterministic default, so the
// only fatal outcome is a request in which no plant can be resolved.
package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"garden-planner/internal/common/metrics"
	"garden-planner/internal/garden/genai"
	"garden-planner/internal/garden/location"
	"garden-planner/internal/garden/resolver"
	"garden-planner/internal/models"
)

// Assembly stages, in order.
const (
	StageStart             = "start"
	StageLocationResolved  = "location_resolved"
	StageEntitiesResolved  = "entities_resolved"
	StageFailed            = "failed"
	StageSectionsGenerated = "sections_generated"
	StageAssembled         = "assembled"
	StagePersisted         = "persisted"
	StageDone              = "done"
)

var ErrNoPlantsResolved = errors.New("NO_PLANTS_RESOLVED")

// NoPlantsResolvedError lists the requested names when none resolved.
type NoPlantsResolvedError struct {
	Requested []string
}

func (e *NoPlantsResolvedError) Error() string {
	return fmt.Sprintf("no plants could be resolved from: %s", strings.Join(e.Requested, ", "))
}

func (e *NoPlantsResolvedError) Is(target error) bool {
	return target == ErrNoPlantsResolved
}

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// PlantResolver resolves a batch of names; unresolvable names are omitted.
type PlantResolver interface {
	ResolveMany(ctx context.Context, names []string) []models.PlantRecord
}

// PlanStore persists finished plans.
type PlanStore interface {
	Persist(ctx context.Context, plan *models.GardenPlan) error
}

// Publisher announces finished plans.
type Publisher interface {
	PublishPlanCreated(ctx context.Context, plan *models.GardenPlan) error
}

type Config struct {
	SectionTimeout        time.Duration
	PersistTimeout        time.Duration
	MaxConcurrentSections int
}

type Assembler struct {
	locator   location.Locator
	resolver  PlantResolver
	completer genai.Completer
	store     PlanStore
	publisher Publisher
	config    Config
	logger    Logger
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

type Option func(*Assembler)

func WithPlanStore(s PlanStore) Option {
	return func(a *Assembler) { a.store = s }
}

func WithPublisher(p Publisher) Option {
	return func(a *Assembler) { a.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(a *Assembler) { a.newID = newID }
}

func WithTracer(t trace.Tracer) Option {
	return func(a *Assembler) { a.tracer = t }
}

// New builds an assembler. completer may be nil, in which case every
// section uses its default.
func New(locator location.Locator, plants PlantResolver, completer genai.Completer, config Config, log Logger, opts ...Option) *Assembler {
	if config.SectionTimeout <= 0 {
		config.SectionTimeout = 15 * time.Second
	}
	if config.PersistTimeout <= 0 {
		config.PersistTimeout = 5 * time.Second
	}
	if config.MaxConcurrentSections <= 0 {
		config.MaxConcurrentSections = 4
	}
	a := &Assembler{
		locator:   locator,
		resolver:  plants,
		completer: completer,
		config:    config,
		logger:    log,
		tracer:    otel.Tracer("garden-planner/plan"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds a garden plan for req. It fails only with
// *NoPlantsResolvedError; every other failure degrades to defaults.
func (a *Assembler) Assemble(ctx context.Context, req models.PlanRequest) (*models.GardenPlan, error) {
	start := time.Now()
	req = req.WithDefaults()
	planID := a.newID()

	ctx, span := a.tracer.Start(ctx, "plan.Assemble", trace.WithAttributes(
		attribute.String("plan.id", planID),
		attribute.String("plan.location_code", req.LocationCode),
		attribute.Int("plan.requested_plants", len(req.PlantNames)),
	))
	defer span.End()

	a.stage(planID, StageStart, map[string]interface{}{"plants": len(req.PlantNames)})

	climate := a.locator.Resolve(ctx, req.LocationCode)
	a.stage(planID, StageLocationResolved, map[string]interface{}{
		"locationCode": climate.LocationCode,
		"zone":         climate.HardinessZone,
	})

	plants := a.resolver.ResolveMany(ctx, req.PlantNames)
	if len(plants) == 0 {
		err := &NoPlantsResolvedError{Requested: resolver.Unresolved(req.PlantNames, nil)}
		a.stage(planID, StageFailed, map[string]interface{}{"error": err.Error()})
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	unresolved := resolver.Unresolved(req.PlantNames, plants)
	a.stage(planID, StageEntitiesResolved, map[string]interface{}{
		"resolved":   len(plants),
		"unresolved": unresolved,
	})

	now := a.now()
	plan := &models.GardenPlan{
		ID:               planID,
		CreatedAt:        now,
		Request:          req,
		Climate:          climate,
		Plants:           plants,
		UnresolvedPlants: unresolved,
	}
	a.generateSections(ctx, plan, models.DateOf(now))
	a.stage(planID, StageSectionsGenerated, map[string]interface{}{
		"schedules":    plan.Sections.Schedules,
		"instructions": plan.Sections.Instructions,
		"layout":       plan.Sections.Layout,
		"tips":         plan.Sections.Tips,
	})
	a.stage(planID, StageAssembled, nil)

	if a.persist(ctx, plan) {
		a.stage(planID, StagePersisted, nil)
	}

	metrics.PlanDuration.Observe(time.Since(start).Seconds())
	a.stage(planID, StageDone, map[string]interface{}{"duration": time.Since(start).String()})
	return plan, nil
}

// generateSections runs every section concurrently. Section tasks never
// return errors; each substitutes its own default.
func (a *Assembler) generateSections(ctx context.Context, plan *models.GardenPlan, today models.Date) {
	req, climate, plants := plan.Request, plan.Climate, plan.Plants
	instructions := make([]models.Instructions, len(plants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.MaxConcurrentSections)

	g.Go(func() error {
		plan.Schedules, plan.Sections.Schedules = a.schedules(gctx, plan.ID, req, climate, plants, today)
		return nil
	})
	g.Go(func() error {
		plan.Layout = a.layout(gctx, plan.ID, req, plants)
		plan.Sections.Layout = plan.Layout.Source
		return nil
	})
	g.Go(func() error {
		plan.Tips, plan.Sections.Tips = a.tips(gctx, plan.ID, req, climate, plants)
		return nil
	})
	for i, p := range plants {
		i, p := i, p
		g.Go(func() error {
			instructions[i] = a.instructions(gctx, plan.ID, req, climate, p, today)
			return nil
		})
	}
	_ = g.Wait()

	plan.Instructions = instructions
	sources := make([]models.SectionSource, 0, len(instructions))
	for _, instr := range instructions {
		sources = append(sources, instr.Source)
	}
	plan.Sections.Instructions = combineSources(sources)

	metrics.PlanSections.WithLabelValues(sectionSchedules, string(plan.Sections.Schedules)).Inc()
	metrics.PlanSections.WithLabelValues(sectionInstructions, string(plan.Sections.Instructions)).Inc()
	metrics.PlanSections.WithLabelValues(sectionLayout, string(plan.Sections.Layout)).Inc()
	metrics.PlanSections.WithLabelValues(sectionTips, string(plan.Sections.Tips)).Inc()
}

// persist stores and announces plan. Failures are logged; it reports
// whether anything was written.
// Both run detached from ctx cancellation so slow sections cannot starve
// them of their own budget.
func (a *Assembler) persist(ctx context.Context, plan *models.GardenPlan) bool {
	ctx = context.WithoutCancel(ctx)
	written := false
	if a.store != nil {
		pctx, cancel := context.WithTimeout(ctx, a.config.PersistTimeout)
		err := a.store.Persist(pctx, plan)
		cancel()
		if err != nil {
			a.logger.Warn("failed to persist garden plan", map[string]interface{}{
				"planId": plan.ID,
				"error":  err.Error(),
			})
		} else {
			written = true
		}
	}

	if a.publisher != nil {
		pctx, cancel := context.WithTimeout(ctx, a.config.PersistTimeout)
		err := a.publisher.PublishPlanCreated(pctx, plan)
		cancel()
		if err != nil {
			a.logger.Warn("failed to publish garden plan event", map[string]interface{}{
				"planId": plan.ID,
				"error":  err.Error(),
			})
		}
	}
	return written
}

func (a *Assembler) stage(planID, stage string, fields map[string]interface{}) {
	metrics.PlanStages.WithLabelValues(stage).Inc()
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["planId"] = planID
	fields["stage"] = stage
	if stage == StageFailed {
		a.logger.Warn("garden plan stage", fields)
		return
	}
	a.logger.Info("garden plan stage", fields)
}
