// internal/garden/genai/instrument.go
package genai

import (
	"context"
	"errors"
	"time"

	"garden-planner/internal/common/metrics"
)

type instrumented struct {
	next    Completer
	purpose string
}

// Instrument records call outcomes and latency for next under purpose
// (plant, schedule, instructions, layout, tips).
func Instrument(next Completer, purpose string) Completer {
	return &instrumented{next: next, purpose: purpose}
}

func (i *instrumented) Model() string { return i.next.Model() }

func (i *instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.next.Complete(ctx, prompt)
	metrics.GenerativeLatency.WithLabelValues(i.purpose).Observe(time.Since(start).Seconds())
	metrics.GenerativeCalls.WithLabelValues(i.purpose, Outcome(err)).Inc()
	return text, err
}

// Outcome classifies a Complete error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrServiceUnavailable):
		return "breaker_open"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	default:
		return "error"
	}
}
