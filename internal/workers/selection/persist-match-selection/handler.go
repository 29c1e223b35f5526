// internal/workers/selection/persist-match-selection/handler.go
package persistmatchselection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gradmatch-workers/internal/common/database"
	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TaskType = "persist-match-selection"

	statusSelected = "selected"

	// Postgres unique_violation.
	uniqueViolation = "23505"
)

var (
	ErrMissingMatchID = errors.New("matchId is required")
	ErrMatchMismatch  = errors.New("match payload does not belong to matchId")
)

type Handler struct {
	config *Config
	db     *sql.DB
	errors *apperrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		errors: apperrors.NewErrorHandler(scoped),
		logger: scoped,
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewParseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		return nil, apperrors.NewBusinessRuleError("Selection incomplete", ErrMissingMatchID.Error())
	}
	if input.Match != nil && input.Match.ID != matchID {
		return nil, apperrors.NewBusinessRuleError("Selection inconsistent", ErrMatchMismatch.Error())
	}

	selectionID := uuid.New().String()
	selectedAt := h.now().UTC().Format(time.RFC3339)

	snapshot := []byte("{}")
	var programID, universityID, category sql.NullString
	var overall sql.NullFloat64
	if m := input.Match; m != nil {
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, apperrors.NewSelectionPersistFailedError(fmt.Errorf("marshal match snapshot: %w", err))
		}
		snapshot = raw
		programID = sql.NullString{String: m.Program.ID, Valid: m.Program.ID != ""}
		universityID = sql.NullString{String: m.University.ID, Valid: m.University.ID != ""}
		category = sql.NullString{String: string(m.Category), Valid: m.Category != ""}
		overall = sql.NullFloat64{Float64: m.OverallScore, Valid: true}
	}

	err := database.WithTx(ctx, h.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM match_selections WHERE match_id = $1
			)`, matchID).Scan(&exists); err != nil {
			return fmt.Errorf("duplicate check failed: %w", err)
		}
		if exists {
			return apperrors.NewDuplicateSelectionError(matchID)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO match_selections (
				id, match_id, candidate_id, program_id, university_id,
				category, overall_score, snapshot, status, selected_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			selectionID,
			matchID,
			input.CandidateID,
			programID,
			universityID,
			category,
			overall,
			snapshot,
			statusSelected,
			selectedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return apperrors.NewDuplicateSelectionError(matchID)
			}
			return fmt.Errorf("insert failed: %w", err)
		}
		return nil
	})
	if err != nil {
		var stdErr *apperrors.StandardError
		if errors.As(err, &stdErr) {
			return nil, stdErr
		}
		return nil, apperrors.NewSelectionPersistFailedError(err)
	}

	h.writeAudit(ctx, selectionID, matchID, input)

	h.logger.Info("match selection stored", map[string]interface{}{
		"selectionId": selectionID,
		"matchId":     matchID,
		"candidateId": input.CandidateID,
	})

	return &Output{
		SelectionID:     selectionID,
		MatchID:         matchID,
		SelectionStatus: statusSelected,
		SelectedAt:      selectedAt,
	}, nil
}

// writeAudit is best effort; a failure is logged and the selection stands.
func (h *Handler) writeAudit(ctx context.Context, selectionID, matchID string, input *Input) {
	details := map[string]interface{}{
		"matchId":     matchID,
		"candidateId": input.CandidateID,
	}
	if input.Match != nil {
		details["programId"] = input.Match.Program.ID
		details["category"] = input.Match.Category
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"match_selected",
		"match_selection",
		selectionID,
		detailsJSON,
		h.now().UTC(),
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":       err,
			"selectionId": selectionID,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.RecordJobCompleted(TaskType)
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.RecordJobFailed(TaskType, string(apperrors.Normalize(err).Code))
	h.errors.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
