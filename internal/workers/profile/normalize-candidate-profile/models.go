// internal/workers/profile/normalize-candidate-profile/models.go
package normalizecandidateprofile

import (
	"gradmatch-workers/internal/models"
	"gradmatch-workers/internal/onboarding"
)

// Input carries either a raw wizard profile or a finished onboarding state.
// With neither, the last cached candidate is returned.
type Input struct {
	CandidateID string                 `json:"candidateId"`
	Profile     map[string]interface{} `json:"profile,omitempty"`
	CVAnalysis  map[string]interface{} `json:"cvAnalysis,omitempty"`
	Onboarding  *onboarding.State      `json:"onboarding,omitempty"`
}

const (
	SourceInput      = "input"
	SourceOnboarding = "onboarding"
	SourceCache      = "cache"
)

type Output struct {
	Candidate       models.Candidate `json:"candidate"`
	HasAcademicData bool             `json:"hasAcademicData"`
	ProfileSource   string           `json:"profileSource"`
}
