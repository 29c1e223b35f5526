package errors

import (
	"fmt"
	"strings"
	"time"
)

// ===========================
// ERROR CODES
// ===========================

type ErrorCode string

const (
	ErrCodeInvalidCandidateData        ErrorCode = "INVALID_CANDIDATE_DATA"
	ErrCodeEmptyCatalog                ErrorCode = "EMPTY_CATALOG"
	ErrCodeInsufficientCatalogCoverage ErrorCode = "INSUFFICIENT_CATALOG_COVERAGE"

	ErrCodeCatalogLoadFailed   ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeCatalogSearchFailed ErrorCode = "CATALOG_SEARCH_FAILED"

	ErrCodeAIScoreTimeout ErrorCode = "AI_SCORE_TIMEOUT"
	ErrCodeAIScoreFailed  ErrorCode = "AI_SCORE_FAILED"

	ErrCodeDuplicateSelection     ErrorCode = "DUPLICATE_SELECTION"
	ErrCodeSelectionPersistFailed ErrorCode = "SELECTION_PERSIST_FAILED"

	ErrCodeOnboardingValidationFailed ErrorCode = "ONBOARDING_VALIDATION_FAILED"
	ErrCodeInvalidTransition          ErrorCode = "INVALID_TRANSITION"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeParseError    ErrorCode = "PARSE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ===========================
// STANDARD ERROR
// ===========================

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, retryable bool, cause error) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// ===========================
// BPMN ERROR
// ===========================

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

// ===========================
// CONSTRUCTORS
// ===========================

func NewInvalidCandidateDataError(err error) *StandardError {
	return newError(ErrCodeInvalidCandidateData, "Candidate data out of range", false, err)
}

func NewEmptyCatalogError() *StandardError {
	return newError(ErrCodeEmptyCatalog, "University catalog is empty", false, nil)
}

func NewInsufficientCoverageError(found, required int) *StandardError {
	e := newError(ErrCodeInsufficientCatalogCoverage, "Catalog yielded too few distinct matches", false, nil)
	e.Details = fmt.Sprintf("found: %d, required: %d", found, required)
	return e
}

func NewCatalogLoadFailedError(err error) *StandardError {
	return newError(ErrCodeCatalogLoadFailed, "University catalog could not be loaded", true, err)
}

func NewCatalogSearchFailedError(err error) *StandardError {
	return newError(ErrCodeCatalogSearchFailed, "Program search failed", true, err)
}

func NewAIScoreTimeoutError(programID string) *StandardError {
	e := newError(ErrCodeAIScoreTimeout, "AI match score timed out", true, nil)
	e.Details = fmt.Sprintf("programId: %s", programID)
	return e
}

func NewAIScoreFailedError(err error) *StandardError {
	return newError(ErrCodeAIScoreFailed, "AI match score request failed", true, err)
}

func NewDuplicateSelectionError(matchID string) *StandardError {
	e := newError(ErrCodeDuplicateSelection, "Match already selected", false, nil)
	e.Details = fmt.Sprintf("matchId: %s", matchID)
	return e
}

func NewSelectionPersistFailedError(err error) *StandardError {
	return newError(ErrCodeSelectionPersistFailed, "Match selection could not be stored", true, err)
}

func NewOnboardingValidationFailedError(details string) *StandardError {
	e := newError(ErrCodeOnboardingValidationFailed, "Onboarding step data is invalid", false, nil)
	e.Details = details
	return e
}

func NewInvalidTransitionError(err error) *StandardError {
	return newError(ErrCodeInvalidTransition, "Onboarding transition not allowed", false, err)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	e := newError(ErrCodeNotificationSendFailed, "Notification delivery failed", true, err)
	e.Details = fmt.Sprintf("type: %s, error: %s", notificationType, err.Error())
	return e
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Job variables could not be parsed", false, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternalError, "Unexpected error", false, err)
}

// ===========================
// GENERIC ERRORS (used by the Zeebe client)
// ===========================

func NewBusinessRuleError(message, details string) *StandardError {
	e := newError("BUSINESS_RULE_VIOLATION", message, false, nil)
	e.Details = details
	return e
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	e := newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), false, nil)
	e.Details = details
	return e
}

func NewAuthenticationError(details string) *StandardError {
	e := newError("AUTHENTICATION_ERROR", "Authentication failed", false, nil)
	e.Details = details
	return e
}

// ===========================
// RETRY POLICY
// ===========================

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogLoadFailed,
		ErrCodeCatalogSearchFailed,
		ErrCodeSelectionPersistFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeAIScoreFailed,
		"EXTERNAL_SERVICE_ERROR":
		return 3

	case ErrCodeAIScoreTimeout, "TIMEOUT_ERROR":
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
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
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CATALOG") || strings.Contains(codeStr, "COVERAGE"):
		return "CATALOG"
	case strings.HasPrefix(codeStr, "AI_"):
		return "AI"
	case strings.Contains(codeStr, "SELECTION"):
		return "SELECTION"
	case strings.Contains(codeStr, "ONBOARDING") || strings.Contains(codeStr, "TRANSITION"):
		return "ONBOARDING"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
