// internal/workers/matching/generate-university-matches/handler.go
package generateuniversitymatches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"
	"gradmatch-workers/internal/common/observability"
	"gradmatch-workers/internal/matching"
	"gradmatch-workers/internal/models"
	"gradmatch-workers/internal/workers/data-access/load-university-catalog/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "generate-university-matches"
)

var ErrNoCatalogSource = errors.New("no catalog supplied and no catalog source configured")

// CatalogSource loads catalog entries. The load-university-catalog loader
// satisfies it.
type CatalogSource interface {
	Load(ctx context.Context, f queries.Filter) ([]models.CatalogEntry, bool, error)
}

type Handler struct {
	config *Config
	engine *matching.Engine
	source CatalogSource
	obs    *observability.Observability
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler accepts a nil source and a nil obs.
func NewHandler(config *Config, engine *matching.Engine, source CatalogSource, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: engine,
		source: source,
		obs:    obs,
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

func (h *Handler) execute(ctx context.Context, input *Input) (out *Output, err error) {
	ctx, span := h.obs.StartSpan(ctx, TaskType,
		attribute.String("candidate.id", input.Candidate.ID),
		attribute.Int("ai.scores", len(input.AIScores)),
	)
	defer func() { observability.EndSpan(span, err) }()

	entries, fromCache, err := h.catalog(ctx, input)
	if err != nil {
		return nil, err
	}

	res, err := h.engine.GenerateMatches(input.Candidate, matching.LoadCatalog(entries, h.engine.Policy()), input.AIScores)
	if err != nil {
		return nil, apperrors.NewInvalidCandidateDataError(err)
	}

	out = &Output{
		Matches:            res.Matches,
		Groups:             matching.GroupByCategory(res.Matches),
		CategoryCounts:     res.CategoryCounts,
		TotalMatches:       len(res.Matches),
		Evaluated:          res.Evaluated,
		CoverageSufficient: res.CoverageSufficient,
		Condition:          res.Condition,
		CatalogFromCache:   fromCache,
	}
	for _, m := range res.Matches {
		if m.LowConfidence {
			out.LowConfidenceCount++
		}
	}

	perCategory := make(map[string]int, len(res.CategoryCounts))
	for c, n := range res.CategoryCounts {
		perCategory[string(c)] = n
	}
	metrics.RecordMatchRun(out.TotalMatches, perCategory, out.Condition)
	h.obs.RecordMatchRun(ctx, out.TotalMatches, out.CoverageSufficient)
	span.SetAttributes(
		attribute.Int("matches.total", out.TotalMatches),
		attribute.Bool("coverage.sufficient", out.CoverageSufficient),
	)

	fields := map[string]interface{}{
		"candidateId": input.Candidate.ID,
		"matches":     out.TotalMatches,
		"evaluated":   out.Evaluated,
		"reach":       res.CategoryCounts[models.CategoryReach],
		"target":      res.CategoryCounts[models.CategoryTarget],
		"safety":      res.CategoryCounts[models.CategorySafety],
	}
	if cond := conditionError(out.Condition, out.TotalMatches, h.engine.Policy().MinCount); cond != nil {
		out.ConditionDetails = cond.Details
		fields["condition"] = string(cond.Code)
		fields["details"] = cond.Details
		h.logger.Warn(cond.Message, fields)
	} else {
		h.logger.Info("matches generated", fields)
	}
	return out, nil
}

// conditionError describes a reported condition; nil when there is none.
func conditionError(condition string, found, required int) *apperrors.StandardError {
	switch condition {
	case matching.ConditionEmptyCatalog:
		e := apperrors.NewEmptyCatalogError()
		e.Details = fmt.Sprintf("found: 0, required: %d", required)
		return e
	case matching.ConditionInsufficientCoverage:
		return apperrors.NewInsufficientCoverageError(found, required)
	}
	return nil
}

func (h *Handler) catalog(ctx context.Context, input *Input) ([]models.CatalogEntry, bool, error) {
	if input.Catalog != nil {
		return input.Catalog, false, nil
	}
	if h.source == nil {
		return nil, false, apperrors.NewCatalogLoadFailedError(ErrNoCatalogSource)
	}
	return h.source.Load(ctx, queries.Filter{ProgramIDs: input.ProgramIDs})
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
