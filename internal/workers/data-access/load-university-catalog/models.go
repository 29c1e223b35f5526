// internal/workers/data-access/load-university-catalog/models.go
package loaduniversitycatalog

import "gradmatch-workers/internal/models"

type Input struct {
	Countries  []string `json:"countries,omitempty"`
	ProgramIDs []string `json:"programIds,omitempty"`
}

type Output struct {
	Catalog         []models.CatalogEntry `json:"catalog"`
	UniversityCount int                   `json:"universityCount"`
	ProgramCount    int                   `json:"programCount"`
	FromCache       bool                  `json:"fromCache"`
	QueryTimeMs     int64                 `json:"queryTimeMs"`
}
