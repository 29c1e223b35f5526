// internal/matching/errors.go
package matching

import "errors"

// Conditions reported on a Result. They are signals, not failures.
const (
	ConditionEmptyCatalog         = "EMPTY_CATALOG"
	ConditionInsufficientCoverage = "INSUFFICIENT_CATALOG_COVERAGE"
)

var (
	ErrInvalidCandidateData = errors.New("INVALID_CANDIDATE_DATA")
)
