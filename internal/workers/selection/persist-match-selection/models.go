// internal/workers/selection/persist-match-selection/models.go
package persistmatchselection

import "gradmatch-workers/internal/models"

// Input selects one generated match. Match, when present, is stored as the
// snapshot the applicant saw.
type Input struct {
	MatchID     string        `json:"matchId"`
	CandidateID string        `json:"candidateId"`
	Match       *models.Match `json:"match,omitempty"`
}

type Output struct {
	SelectionID     string `json:"selectionId"`
	MatchID         string `json:"matchId"`
	SelectionStatus string `json:"selectionStatus"`
	SelectedAt      string `json:"selectedAt"`
}
