// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler handles job errors with standardized error handling
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision is what HandleJobError does with a failed job.
type Decision struct {
	BPMNError *BPMNError
	Retry     bool
	Retries   int
}

// Decide normalizes err and picks between failing with retries and
// throwing a BPMN error, given the job's remaining retries.
func (h *ErrorHandler) Decide(err error, jobRetries int32) Decision {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	// The last attempt throws instead of leaving an incident behind.
	if !stdErr.Retryable || !IsRetryableErrorCode(stdErr.Code) || jobRetries <= 1 {
		return Decision{BPMNError: bpmnErr}
	}
	// Zeebe treats Retries as the remaining count, never raise it.
	remaining := int(jobRetries) - 1
	if retries := GetRetryCount(stdErr.Code); remaining > retries {
		remaining = retries
	}
	return Decision{BPMNError: bpmnErr, Retry: true, Retries: remaining}
}

// HandleJobError handles any error in a worker job
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	d := h.Decide(stdErr, job.Retries)

	h.logError(job, stdErr, d)

	if d.Retry {
		h.failJobWithRetries(ctx, client, job, d)
		return
	}
	h.throwBPMNError(ctx, client, job, d.BPMNError)
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("worker", err)
	}
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, d Decision) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(d.Retries)).
		ErrorMessage("[" + d.BPMNError.Code + "] " + d.BPMNError.Message)

	withVars, err := cmd.VariablesFromMap(d.BPMNError.ToErrorVariables())
	if err != nil {
		_, _ = cmd.Send(ctx)
		return
	}
	if _, err := withVars.Send(ctx); err != nil {
		h.logger.Error("Failed to send fail job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables())
	if err != nil {
		_, _ = cmd.Send(ctx)
		return
	}
	if _, err := withVars.Send(ctx); err != nil {
		h.logger.Error("Failed to throw BPMN error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, d Decision) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    d.BPMNError.Code,
		"message":          d.BPMNError.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retry":            d.Retry,
		"retries":          d.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
