// internal/workers/garden/search-plants/handler.go
package searchplants

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
	"garden-planner/internal/garden/search"
	"garden-planner/internal/models"
)

const TaskType = "search-plants"

// PlantIndex is the full-text search tier.
type PlantIndex interface {
	Search(ctx context.Context, q search.Query) ([]models.PlantRecord, int, error)
}

// PlantFinder is the store fallback.
type PlantFinder interface {
	FindByCategory(ctx context.Context, category string) ([]models.PlantRecord, error)
	SearchBySubstring(ctx context.Context, query string) ([]models.PlantRecord, error)
}

type Handler struct {
	config       *Config
	index        PlantIndex
	store        PlantFinder
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the search worker. index may be nil when
// Elasticsearch is disabled.
func NewHandler(config *Config, index PlantIndex, store PlantFinder, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		index:        index,
		store:        store,
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
		return nil, errors.NewInvalidSearchQueryError("input cannot be nil")
	}
	if result := validation.Struct(input); !result.Valid {
		return nil, errors.NewInvalidSearchQueryError(strings.Join(result.GetErrorMessages(), "; "))
	}

	query := strings.TrimSpace(input.Query)
	category := models.NormalizeKey(input.Category)
	if query == "" && category == "" {
		return nil, errors.NewInvalidSearchQueryError("query or category is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	if h.index != nil {
		output, err := h.searchIndex(ctx, query, category, limit)
		if err == nil {
			return output, nil
		}
		h.logger.Warn("index search failed, falling back to store", map[string]interface{}{
			"query":    query,
			"category": category,
			"error":    err.Error(),
		})
	}

	if h.store == nil {
		return nil, errors.NewPlantSearchFailedError(stderrors.New("no search backend available"))
	}
	return h.searchStore(ctx, query, category, limit)
}

func (h *Handler) searchIndex(ctx context.Context, query, category string, limit int) (*Output, error) {
	ictx, cancel := context.WithTimeout(ctx, h.config.IndexTimeout)
	defer cancel()

	plants, total, err := h.index.Search(ictx, search.Query{Text: query, Category: category, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &Output{Plants: nonNil(plants), TotalResults: total, Source: SourceElasticsearch}, nil
}

// searchStore matches by substring, or lists the category when no text
// was given. Store results are filtered and truncated here.
func (h *Handler) searchStore(ctx context.Context, query, category string, limit int) (*Output, error) {
	var (
		plants []models.PlantRecord
		err    error
	)
	if query == "" {
		plants, err = h.store.FindByCategory(ctx, category)
	} else {
		plants, err = h.store.SearchBySubstring(ctx, query)
	}
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewSearchTimeoutError(SourceStore)
		}
		return nil, errors.NewPlantSearchFailedError(err)
	}

	if query != "" && category != "" {
		filtered := plants[:0]
		for _, p := range plants {
			if models.NormalizeKey(p.Category) == category {
				filtered = append(filtered, p)
			}
		}
		plants = filtered
	}

	total := len(plants)
	if len(plants) > limit {
		plants = plants[:limit]
	}
	return &Output{Plants: nonNil(plants), TotalResults: total, Source: SourceStore}, nil
}

func nonNil(plants []models.PlantRecord) []models.PlantRecord {
	if plants == nil {
		return []models.PlantRecord{}
	}
	return plants
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
