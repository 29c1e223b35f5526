// internal/workers/matching/generate-university-matches/models.go
package generateuniversitymatches

import (
	"gradmatch-workers/internal/matching"
	"gradmatch-workers/internal/models"
)

// Input carries the candidate and, optionally, the catalog. Without a catalog
// the configured source is queried, narrowed to ProgramIDs when set.
type Input struct {
	Candidate  models.Candidate      `json:"candidate"`
	Catalog    []models.CatalogEntry `json:"catalog,omitempty"`
	ProgramIDs []string              `json:"programIds,omitempty"`
	AIScores   map[string]float64    `json:"aiScores,omitempty"`
}

type Output struct {
	Matches            []models.Match           `json:"matches"`
	Groups             []matching.CategoryGroup `json:"groups"`
	CategoryCounts     map[models.Category]int  `json:"categoryCounts"`
	TotalMatches       int                      `json:"totalMatches"`
	Evaluated          int                      `json:"evaluated"`
	CoverageSufficient bool                     `json:"coverageSufficient"`
	Condition          string                   `json:"condition,omitempty"`
	ConditionDetails   string                   `json:"conditionDetails,omitempty"`
	LowConfidenceCount int                      `json:"lowConfidenceCount"`
	CatalogFromCache   bool                     `json:"catalogFromCache"`
}
