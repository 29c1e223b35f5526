// internal/workers/matching/score-program-match/models.go
package scoreprogrammatch

import "gradmatch-workers/internal/models"

// Input names the pairing to explain. When Program is absent it is loaded by
// ProgramID together with its university.
type Input struct {
	Candidate  models.Candidate   `json:"candidate"`
	University *models.University `json:"university,omitempty"`
	Program    *models.Program    `json:"program,omitempty"`
	ProgramID  string             `json:"programId,omitempty"`
	AIScore    *float64           `json:"aiScore,omitempty"`
}

type Output struct {
	Match         models.Match        `json:"match"`
	OverallScore  float64             `json:"overallScore"`
	Category      models.Category     `json:"category"`
	Factors       models.MatchFactors `json:"factors"`
	Reasoning     []string            `json:"reasoning"`
	LowConfidence bool                `json:"lowConfidence"`
}
