// internal/workers/garden/get-garden-plan/handler.go
package getgardenplan

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
	"garden-planner/internal/garden/docstore"
	"garden-planner/internal/models"
)

const TaskType = "get-garden-plan"

type PlanReader interface {
	Get(ctx context.Context, id string) (*models.GardenPlan, error)
	List(ctx context.Context, limit int) ([]models.PlanSummary, error)
}

type Handler struct {
	config       *Config
	plans        PlanReader
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, plans PlanReader, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		plans:        plans,
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
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}
	if result := validation.Struct(input); !result.Valid {
		return nil, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	planID := strings.TrimSpace(input.PlanID)
	if planID == "" {
		summaries, err := h.plans.List(ctx, input.Limit)
		if err != nil {
			return nil, errors.NewPlanStoreFailedError(err)
		}
		if summaries == nil {
			summaries = []models.PlanSummary{}
		}
		return &Output{Plans: summaries}, nil
	}

	plan, err := h.plans.Get(ctx, planID)
	if stderrors.Is(err, docstore.ErrPlanNotFound) {
		return nil, errors.NewPlanNotFoundError(planID)
	}
	if err != nil {
		return nil, errors.NewPlanStoreFailedError(err)
	}

	h.logger.Debug("garden plan loaded", map[string]interface{}{
		"planId": plan.ID,
	})
	return &Output{GardenPlan: plan}, nil
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
