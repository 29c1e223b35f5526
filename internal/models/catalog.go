// internal/models/catalog.go
package models

type University struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	City           string   `json:"city,omitempty"`
	Country        string   `json:"country,omitempty"`
	WebsiteURL     string   `json:"websiteUrl,omitempty"`
	AcceptanceRate *float64 `json:"acceptanceRate,omitempty"`
	RankingGlobal  *int     `json:"rankingGlobal,omitempty"`
}

// Program is a specific degree offering at a university.
type Program struct {
	ID             string   `json:"id"`
	UniversityID   string   `json:"universityId"`
	Name           string   `json:"name"`
	Degree         string   `json:"degree,omitempty"`
	DurationMonths int      `json:"durationMonths,omitempty"`
	AdmissionRate  *float64 `json:"admissionRate,omitempty"`
	AnnualTuition  *float64 `json:"annualTuition,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	ResearchTags   []string `json:"researchTags,omitempty"`
}

// CatalogEntry is one university row together with its programs, as returned
// by the catalog store.
type CatalogEntry struct {
	University University `json:"university"`
	Programs   []Program  `json:"programs"`
}

// Rate returns the admission rate, or 0 when it is not set.
func (p Program) Rate() float64 {
	if p.AdmissionRate == nil {
		return 0
	}
	return *p.AdmissionRate
}

func Float64Ptr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
