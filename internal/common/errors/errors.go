// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNoPlantsResolved   ErrorCode = "NO_PLANTS_RESOLVED"
	ErrCodeInvalidPlanRequest ErrorCode = "INVALID_PLAN_REQUEST"
	ErrCodePlanNotFound       ErrorCode = "PLAN_NOT_FOUND"
	ErrCodePlanStoreFailed    ErrorCode = "PLAN_STORE_FAILED"
	ErrCodePlanAssemblyFailed ErrorCode = "PLAN_ASSEMBLY_FAILED"

	ErrCodeInvalidSearchQuery ErrorCode = "INVALID_SEARCH_QUERY"
	ErrCodePlantSearchFailed  ErrorCode = "PLANT_SEARCH_FAILED"
	ErrCodeSearchTimeout      ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeInvalidLocation ErrorCode = "INVALID_LOCATION"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeParseError    ErrorCode = "PARSE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewNoPlantsResolvedError is raised when none of the requested plants
// could be resolved by any tier.
func NewNoPlantsResolvedError(requested []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoPlantsResolved,
		Message:   "No plants could be resolved",
		Details:   strings.Join(requested, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"requestedPlants": requested},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidPlanRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPlanRequest,
		Message:   "Invalid garden plan request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPlanNotFoundError(planID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePlanNotFound,
		Message:   "Garden plan not found",
		Details:   fmt.Sprintf("plan %s does not exist or has expired", planID),
		Retryable: false,
		Metadata:  map[string]interface{}{"planId": planID},
		Timestamp: time.Now().UTC(),
	}
}

func NewPlanStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePlanStoreFailed,
		Message:   "Plan store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewPlanAssemblyFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePlanAssemblyFailed,
		Message:   "Garden plan assembly failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidSearchQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSearchQuery,
		Message:   "Invalid plant search query",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPlantSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePlantSearchFailed,
		Message:   "Plant search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   fmt.Sprintf("Search timed out for %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidLocationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidLocation,
		Message:   "Invalid location code",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError covers job variables that fail validation outside
// plan creation and search.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewParseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the garden planning process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoPlantsResolved:   "NO_PLANTS_RESOLVED",
	ErrCodeInvalidPlanRequest: "INVALID_PLAN_REQUEST",
	ErrCodePlanNotFound:       "PLAN_NOT_FOUND",
	ErrCodePlanStoreFailed:    "PLAN_STORE_FAILED",
	ErrCodePlanAssemblyFailed: "PLAN_ASSEMBLY_FAILED",
	ErrCodeInvalidSearchQuery: "INVALID_SEARCH_QUERY",
	ErrCodePlantSearchFailed:  "PLANT_SEARCH_FAILED",
	ErrCodeSearchTimeout:      "SEARCH_TIMEOUT",
	ErrCodeInvalidLocation:    "INVALID_LOCATION",
	ErrCodeInvalidInput:       "INVALID_INPUT",
	ErrCodeParseError:         "PARSE_ERROR",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePlanStoreFailed,
		ErrCodePlantSearchFailed,
		ErrCodePlanAssemblyFailed:
		return 3

	case ErrCodeSearchTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PLANT") && !strings.Contains(codeStr, "SEARCH"):
		return "RESOLUTION"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "PLAN"):
		return "PLAN"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
