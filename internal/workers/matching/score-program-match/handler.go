// internal/workers/matching/score-program-match/handler.go
package scoreprogrammatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"
	"gradmatch-workers/internal/matching"
	"gradmatch-workers/internal/models"
	"gradmatch-workers/internal/workers/data-access/load-university-catalog/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-program-match"
)

var ErrMissingProgram = errors.New("program or programId is required")

type Handler struct {
	config *Config
	engine *matching.Engine
	db     *sql.DB
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler accepts a nil db; programs must then arrive in the job variables.
func NewHandler(config *Config, engine *matching.Engine, db *sql.DB, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: engine,
		db:     db,
		errors: apperrors.NewErrorHandler(scoped),
		logger: scoped,
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
	university, program, err := h.resolvePairing(ctx, input)
	if err != nil {
		return nil, err
	}

	m, err := h.engine.Evaluate(input.Candidate, university, program, input.AIScore)
	if err != nil {
		return nil, apperrors.NewInvalidCandidateDataError(err)
	}

	h.logger.Debug("pairing scored", map[string]interface{}{
		"programId": program.ID,
		"overall":   m.OverallScore,
		"category":  string(m.Category),
	})

	return &Output{
		Match:         m,
		OverallScore:  m.OverallScore,
		Category:      m.Category,
		Factors:       m.Factors,
		Reasoning:     m.Reasoning,
		LowConfidence: m.LowConfidence,
	}, nil
}

func (h *Handler) resolvePairing(ctx context.Context, input *Input) (models.University, models.Program, error) {
	if input.Program != nil {
		var u models.University
		if input.University != nil {
			u = *input.University
		}
		return u, *input.Program, nil
	}

	id := strings.TrimSpace(input.ProgramID)
	if id == "" {
		return models.University{}, models.Program{}, apperrors.NewBusinessRuleError("Pairing incomplete", ErrMissingProgram.Error())
	}
	if h.db == nil {
		return models.University{}, models.Program{}, apperrors.NewResourceNotFoundError("postgres", "programId: "+id)
	}

	entries, err := queries.FetchCatalog(ctx, h.db, queries.Filter{ProgramIDs: []string{id}})
	if err != nil {
		return models.University{}, models.Program{}, apperrors.NewCatalogLoadFailedError(fmt.Errorf("load program %s: %w", id, err))
	}
	for _, e := range entries {
		for _, p := range e.Programs {
			if p.ID == id {
				return e.University, p, nil
			}
		}
	}
	return models.University{}, models.Program{}, apperrors.NewResourceNotFoundError("postgres", "programId: "+id)
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
