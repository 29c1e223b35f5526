// internal/workers/communication/send-match-digest/models.go
package sendmatchdigest

import (
	"strings"

	"gradmatch-workers/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type Input struct {
	CandidateID        string         `json:"candidateId"`
	RecipientEmail     string         `json:"recipientEmail"`
	RecipientName      string         `json:"recipientName,omitempty"`
	Matches            []models.Match `json:"matches"`
	CoverageSufficient bool           `json:"coverageSufficient"`
	Condition          string         `json:"condition,omitempty"`
	TotalMatches       int            `json:"totalMatches"`
}

// Validate trims identifiers in place and checks the fields the digest
// relies on. An empty recipient is allowed and skips the email.
func (in *Input) Validate() error {
	in.CandidateID = strings.TrimSpace(in.CandidateID)
	in.RecipientEmail = strings.TrimSpace(in.RecipientEmail)
	return validation.ValidateStruct(in,
		validation.Field(&in.CandidateID, validation.Required),
		validation.Field(&in.RecipientEmail, is.EmailFormat),
		validation.Field(&in.TotalMatches, validation.Min(0)),
	)
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	EmailSent      bool   `json:"emailSent"`
	AlertPublished bool   `json:"alertPublished"`
	SentAt         string `json:"sentAt"`
}

const (
	StatusSent      = "sent"
	StatusDisabled  = "disabled"
	StatusDuplicate = "duplicate"
)

// CoverageAlert is the SNS message body for a thin result set.
type CoverageAlert struct {
	EventType    string `json:"eventType"`
	CandidateID  string `json:"candidateId"`
	Condition    string `json:"condition"`
	TotalMatches int    `json:"totalMatches"`
	RaisedAt     string `json:"raisedAt"`
}
