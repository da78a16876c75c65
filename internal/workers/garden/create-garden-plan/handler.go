// internal/workers/garden/create-garden-plan/handler.go
package creategardenplan

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"garden-planner/internal/common/errors"
	"garden-planner/internal/common/logger"
	"garden-planner/internal/common/metrics"
	"garden-planner/internal/common/validation"
	"garden-planner/internal/garden/plan"
	"garden-planner/internal/models"
)

const TaskType = "create-garden-plan"

// PlanAssembler builds a complete plan for one request.
type PlanAssembler interface {
	Assemble(ctx context.Context, req models.PlanRequest) (*models.GardenPlan, error)
}

type Handler struct {
	config       *Config
	assembler    PlanAssembler
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, assembler PlanAssembler, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		assembler:    assembler,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.HandleContext(context.Background(), client, job)
}

// HandleContext processes job under ctx, which carries the job span.
func (h *Handler) HandleContext(ctx context.Context, client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, errors.NewParseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidPlanRequestError("input cannot be nil")
	}

	if result := validation.Struct(input.PlanRequest); !result.Valid {
		return nil, errors.NewInvalidPlanRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}

	gardenPlan, err := h.assembler.Assemble(ctx, input.PlanRequest)
	if err != nil {
		var none *plan.NoPlantsResolvedError
		if stderrors.As(err, &none) {
			return nil, errors.NewNoPlantsResolvedError(none.Requested)
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewTimeoutError("plan-assembler", err)
		}
		return nil, errors.NewPlanAssemblyFailedError(err)
	}

	h.logger.Info("garden plan assembled", map[string]interface{}{
		"planId":     gardenPlan.ID,
		"plants":     len(gardenPlan.Plants),
		"unresolved": gardenPlan.UnresolvedPlants,
		"sections":   gardenPlan.Sections,
	})

	unresolved := gardenPlan.UnresolvedPlants
	if unresolved == nil {
		unresolved = []string{}
	}
	return &Output{
		GardenPlan:       gardenPlan,
		PlanID:           gardenPlan.ID,
		UnresolvedPlants: unresolved,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
