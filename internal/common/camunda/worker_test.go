// internal/common/camunda/worker_test.go
package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"garden-planner/internal/common/metrics"
)

type spanRecorder struct {
	tracer    trace.Tracer
	durations []string
}

func (r *spanRecorder) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *spanRecorder) RecordJobProcessed(context.Context, string, string) {}

func (r *spanRecorder) RecordJobDuration(_ context.Context, taskType string, _ time.Duration, status string) {
	r.durations = append(r.durations, taskType+":"+status)
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestInstrument(t *testing.T) {
	exporter := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(exporter))
	rec := &spanRecorder{tracer: tp.Tracer("test")}

	var seen int64
	var jobSpan trace.SpanContext
	handler := Instrument("lookup-location", func(ctx context.Context, _ worker.JobClient, job entities.Job) {
		seen = job.Key
		jobSpan = trace.SpanContextFromContext(ctx)
		assert.Equal(t, float64(1), gaugeValue(t, metrics.WorkerJobsActive.WithLabelValues("lookup-location")))
	}, rec)

	handler(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, ProcessInstanceKey: 7}})

	assert.Equal(t, int64(42), seen)
	assert.Equal(t, float64(0), gaugeValue(t, metrics.WorkerJobsActive.WithLabelValues("lookup-location")))
	assert.Equal(t, []string{"lookup-location:handled"}, rec.durations)

	spans := exporter.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "job.lookup-location", spans[0].Name())
	assert.True(t, jobSpan.IsValid())
	assert.Equal(t, spans[0].SpanContext().SpanID(), jobSpan.SpanID())
}

func TestInstrument_NilRecorder(t *testing.T) {
	called := false
	handler := Instrument("search-plants", func(context.Context, worker.JobClient, entities.Job) { called = true }, nil)
	handler(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1}})
	assert.True(t, called)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isRetryableZeebeError(errors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(errors.New("permission denied")))
}

func TestBackoff(t *testing.T) {
	retry := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(retry, 0))
	assert.Equal(t, 4*time.Second, backoff(retry, 2))
	assert.Equal(t, 5*time.Second, backoff(retry, 4))
}
