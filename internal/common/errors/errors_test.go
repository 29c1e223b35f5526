package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{"retryable catalog failure", NewCatalogLoadFailedError(fmt.Errorf("conn refused")), 3},
		{"ai timeout", NewAIScoreTimeoutError("p1"), 2},
		{"business error", NewDuplicateSelectionError("m1"), 0},
		{"invalid candidate", NewInvalidCandidateDataError(fmt.Errorf("gpa 7")), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.NotEmpty(t, vars["timestamp"])
		})
	}
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	err := NewInsufficientCoverageError(4, 12).WithMetadata("candidateId", "c1")

	vars := ConvertToBPMNError(err).ToErrorVariables()

	assert.Equal(t, "c1", vars["candidateId"])
	assert.Equal(t, "found: 4, required: 12", vars["errorDetails"])
}

func TestNormalize(t *testing.T) {
	sentinel := stderrors.New("boom")
	wrapped := fmt.Errorf("outer: %w", NewSelectionPersistFailedError(sentinel))

	got := Normalize(wrapped)
	assert.Equal(t, ErrCodeSelectionPersistFailed, got.Code)
	assert.True(t, stderrors.Is(got, sentinel))

	internal := Normalize(sentinel)
	assert.Equal(t, ErrCodeInternalError, internal.Code)
	assert.Equal(t, "boom", internal.Details)
	assert.False(t, internal.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogLoadFailed))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeInsufficientCatalogCoverage))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeAIScoreFailed))
	assert.Equal(t, "SELECTION", GetErrorCategory(ErrCodeDuplicateSelection))
	assert.Equal(t, "ONBOARDING", GetErrorCategory(ErrCodeInvalidTransition))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeParseError))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternalError))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeOnboardingValidationFailed))
}

func TestStandardError_Error(t *testing.T) {
	err := NewNotificationSendFailedError("email", fmt.Errorf("throttled"))
	require.Error(t, err)
	assert.Equal(t, "StandardError[NOTIFICATION_SEND_FAILED]: Notification delivery failed", err.Error())
	assert.Contains(t, err.Details, "throttled")
}
