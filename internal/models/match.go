// internal/models/match.go
package models

type Category string

const (
	CategoryReach  Category = "reach"
	CategoryTarget Category = "target"
	CategorySafety Category = "safety"
)

// Categories lists every category in decreasing order of admission difficulty.
var Categories = []Category{CategoryReach, CategoryTarget, CategorySafety}

func (c Category) Valid() bool {
	switch c {
	case CategoryReach, CategoryTarget, CategorySafety:
		return true
	}
	return false
}

// MatchFactors is the explainability record of one candidate x program
// evaluation. CVAlignment and AIScore are nil when the signal is absent.
type MatchFactors struct {
	GPAMatch           float64  `json:"gpaMatch"`
	ResearchAlignment  float64  `json:"researchAlignment"`
	LocationPreference float64  `json:"locationPreference"`
	FinancialFit       float64  `json:"financialFit"`
	CVAlignment        *float64 `json:"cvAlignment,omitempty"`
	AIScore            *float64 `json:"aiScore,omitempty"`
}

type Match struct {
	ID            string       `json:"id"`
	CandidateRef  string       `json:"candidateRef"`
	Program       Program      `json:"program"`
	University    University   `json:"university"`
	OverallScore  float64      `json:"overallScore"`
	Category      Category     `json:"category"`
	Factors       MatchFactors `json:"factors"`
	Reasoning     []string     `json:"reasoning"`
	LowConfidence bool         `json:"lowConfidence"`
}
