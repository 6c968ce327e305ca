// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Visibility pipeline errors
const (
	ErrCodeResultsFetchFailed  ErrorCode = "RESULTS_FETCH_FAILED"
	ErrCodeResultsParseError   ErrorCode = "RESULTS_PARSE_ERROR"
	ErrCodeNoProviderResults   ErrorCode = "NO_PROVIDER_RESULTS"
	ErrCodeInvalidLookback     ErrorCode = "INVALID_LOOKBACK_WINDOW"
	ErrCodeAggregationInvalid  ErrorCode = "AGGREGATION_INPUT_INVALID"
	ErrCodeSnapshotStoreFailed ErrorCode = "SNAPSHOT_STORE_FAILED"
	ErrCodeSnapshotIndexFailed ErrorCode = "SNAPSHOT_INDEX_FAILED"
	ErrCodeInvalidDisclosure   ErrorCode = "INVALID_DISCLOSURE_ACTION"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeExternalService   ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeResourceNotFound  ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule      ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeAuthentication    ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidationFailure ErrorCode = "VALIDATION_FAILURE"
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
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

// ToErrorVariables returns a map suitable for setting job fail variables.
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

// ConvertToBPMNError maps a StandardError onto a BPMNError for the engine.
func ConvertToBPMNError(err *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(err.Code),
		Message:   err.Message,
		Details:   err.Details,
		Retryable: err.Retryable,
		Retries:   GetRetryCount(err.Code),
	}
}

// GetRetryCount returns how many retries a failed job should keep for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeResultsFetchFailed,
		ErrCodeSnapshotStoreFailed,
		ErrCodeSnapshotIndexFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeQueryTimeout,
		ErrCodeExternalService,
		ErrCodeTimeout:
		return 3
	default:
		return 0
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewResultsFetchFailedError creates a retryable provider-result query error.
func NewResultsFetchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultsFetchFailed,
		Message:   "Failed to fetch provider results",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResultsParseError creates a non-retryable payload decoding error.
func NewResultsParseError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultsParseError,
		Message:   "Stored provider result payload could not be decoded",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoProviderResultsError signals that the lookback window held no runs,
// so the process can branch instead of aggregating nothing.
func NewNoProviderResultsError(projectID, keywordID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoProviderResults,
		Message:   "No provider results in lookback window",
		Details:   fmt.Sprintf("projectId: %s, keywordId: %s", projectID, keywordID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidLookbackError creates a non-retryable lookback-window error.
func NewInvalidLookbackError(days, max int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidLookback,
		Message:   "Lookback window out of range",
		Details:   fmt.Sprintf("lookbackDays: %d, allowed: 1-%d", days, max),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAggregationInvalidError creates a non-retryable input validation error.
func NewAggregationInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAggregationInvalid,
		Message:   "Aggregation input failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotStoreFailedError creates a retryable snapshot persistence error.
func NewSnapshotStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotStoreFailed,
		Message:   "Failed to store visibility snapshot",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotIndexFailedError creates a retryable search-index error.
func NewSnapshotIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotIndexFailed,
		Message:   "Failed to index visibility snapshot",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidDisclosureError creates a non-retryable disclosure-action error.
func NewInvalidDisclosureError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidDisclosure,
		Message:   "Unsupported disclosure action",
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a retryable error for a failing dependency.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service %s failed", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Operation %s timed out", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable not-found error.
func NewResourceNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("Resource %s not found", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBusinessRuleError creates a non-retryable business rule violation.
func NewBusinessRuleError(details, rule string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusinessRule,
		Message:   rule,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable authentication error.
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthentication,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
