// internal/workers/matching/fetch-ai-match-scores/models.go
package fetchaimatchscores

import "gradmatch-workers/internal/models"

type Input struct {
	Candidate models.Candidate      `json:"candidate"`
	Catalog   []models.CatalogEntry `json:"catalog"`
}

type Output struct {
	// AIScores maps program ID to a score in [0,1]. Programs whose lookup
	// failed are absent.
	AIScores  map[string]float64 `json:"aiScores"`
	Requested int                `json:"requested"`
	Cached    int                `json:"cached"`
	Failed    int                `json:"failed"`
}

type scoreRequest struct {
	Candidate  candidatePayload  `json:"candidate"`
	Program    models.Program    `json:"program"`
	University models.University `json:"university"`
}

type candidatePayload struct {
	ID                string            `json:"id"`
	GPA               float64           `json:"gpa"`
	TestScores        models.TestScores `json:"testScores"`
	ResearchInterests []string          `json:"researchInterests"`
	TargetDegree      string            `json:"targetDegree,omitempty"`
	CV                *models.CVSignals `json:"cv,omitempty"`
}

type scoreResponse struct {
	Score *float64 `json:"score"`
}
