// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"garden-planner/internal/common/config"
	"garden-planner/internal/common/metrics"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
}

// JobRecorder receives per-job telemetry. *observability.Observability
// satisfies it.
type JobRecorder interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// JobHandler is a worker.JobHandler that also receives the job context.
type JobHandler func(ctx context.Context, client worker.JobClient, job entities.Job)

// Instrument wraps handler with the active-jobs gauge, the duration
// histogram and a span per job. The span travels in the handler's ctx.
// recorder may be nil.
func Instrument(taskType string, handler JobHandler, recorder JobRecorder) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		var span trace.Span
		ctx := context.Background()
		if recorder != nil {
			ctx, span = recorder.StartSpan(ctx, "job."+taskType,
				attribute.Int64("job.key", job.Key),
				attribute.Int64("process.instance_key", job.ProcessInstanceKey),
			)
		}

		handler(ctx, client, job)

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		if recorder != nil {
			recorder.RecordJobProcessed(ctx, taskType, "handled")
			recorder.RecordJobDuration(ctx, taskType, elapsed, "handled")
			span.End()
		}
	}
}

// StartWorker opens a job worker for taskType using the per-worker
// settings. It returns nil when the worker is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, recorder JobRecorder, log Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, recorder)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(taskType + "-worker").
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jobWorker
}
