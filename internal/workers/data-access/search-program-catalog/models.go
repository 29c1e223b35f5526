// internal/workers/data-access/search-program-catalog/models.go
package searchprogramcatalog

import "gradmatch-workers/internal/workers/data-access/search-program-catalog/queries"

type Input struct {
	ResearchInterests []string `json:"researchInterests,omitempty"`
	Countries         []string `json:"countries,omitempty"`
	Degree            string   `json:"degree,omitempty"`
	MinAdmissionRate  *float64 `json:"minAdmissionRate,omitempty"`
	MaxTuition        *float64 `json:"maxTuition,omitempty"`
	Size              int      `json:"size,omitempty"`
}

type Output struct {
	// ProgramIDs feeds load-university-catalog's programIds filter.
	ProgramIDs []string             `json:"programIds"`
	Hits       []queries.ProgramHit `json:"hits"`
	TotalHits  int64                `json:"totalHits"`
	MaxScore   float64              `json:"maxScore"`
	Took       int64                `json:"took"`
}
