// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "gradmatch-workers/internal/common/errors"
)

var knownCodes = map[string]bool{
	string(apperrors.ErrCodeInvalidCandidateData):        true,
	string(apperrors.ErrCodeEmptyCatalog):                true,
	string(apperrors.ErrCodeInsufficientCatalogCoverage): true,
	string(apperrors.ErrCodeCatalogLoadFailed):           true,
	string(apperrors.ErrCodeCatalogSearchFailed):         true,
	string(apperrors.ErrCodeAIScoreTimeout):              true,
	string(apperrors.ErrCodeAIScoreFailed):               true,
	string(apperrors.ErrCodeDuplicateSelection):          true,
	string(apperrors.ErrCodeSelectionPersistFailed):      true,
	string(apperrors.ErrCodeOnboardingValidationFailed):  true,
	string(apperrors.ErrCodeInvalidTransition):           true,
	string(apperrors.ErrCodeNotificationSendFailed):      true,
	string(apperrors.ErrCodeParseError):                  true,
	string(apperrors.ErrCodeInternalError):               true,

	// raised by shared infrastructure rather than a single worker
	"BUSINESS_RULE_VIOLATION": true,
	"RESOURCE_NOT_FOUND":      true,
	"TIMEOUT_ERROR":           true,
	"EXTERNAL_SERVICE_ERROR":  true,
	"AUTHENTICATION_ERROR":    true,
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// SaveRegistry writes reg as indented JSON, creating parent directories.
func SaveRegistry(reg *ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *ActivityRegistry) Find(id string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Add appends a new activity; ids must be unique.
func (r *ActivityRegistry) Add(a Activity, now time.Time) error {
	if _, exists := r.Find(a.ID); exists {
		return fmt.Errorf("activity with ID %s already exists", a.ID)
	}
	r.Activities = append(r.Activities, a)
	r.LastUpdated = now.Format(time.RFC3339)
	return nil
}

// Update sets a single named field on the activity with the given id.
func (r *ActivityRegistry) Update(id, field, value string, now time.Time) error {
	a, ok := r.Find(id)
	if !ok {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		if !validStatuses[value] {
			return fmt.Errorf("invalid status: %s", value)
		}
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	r.LastUpdated = now.Format(time.RFC3339)
	return nil
}

// Validate checks required fields, id and task type uniqueness, statuses and
// that every declared error code is one the workers can actually raise.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		if a.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", a.ID)
		}
		if taskTypes[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		taskTypes[a.TaskType] = true

		if a.ImplementationStatus != "" && !validStatuses[a.ImplementationStatus] {
			return fmt.Errorf("activity %s has invalid status: %s", a.ID, a.ImplementationStatus)
		}
		for _, code := range a.ErrorCodes {
			if !KnownErrorCode(code) {
				return fmt.Errorf("activity %s declares unknown error code: %s", a.ID, code)
			}
		}
		if a.Retries > 0 {
			retryable := false
			for _, code := range a.ErrorCodes {
				if apperrors.IsRetryableErrorCode(apperrors.ErrorCode(code)) {
					retryable = true
				}
			}
			if !retryable {
				return fmt.Errorf("activity %s declares retries but no retryable error code", a.ID)
			}
		}
	}
	return nil
}

// KnownErrorCode reports whether code is raised anywhere in the workers.
func KnownErrorCode(code string) bool {
	return knownCodes[code]
}
