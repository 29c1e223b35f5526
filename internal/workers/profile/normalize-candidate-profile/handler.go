// internal/workers/profile/normalize-candidate-profile/handler.go
package normalizecandidateprofile

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gradmatch-workers/internal/common/database"
	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"
	"gradmatch-workers/internal/matching"
	"gradmatch-workers/internal/models"
	"gradmatch-workers/internal/onboarding"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "normalize-candidate-profile"
)

var (
	ErrMissingCandidateID = errors.New("candidateId is required")
	ErrNoProfile          = errors.New("no profile supplied and none cached")
)

type Handler struct {
	config *Config
	cache  *database.JSONCache
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler accepts a nil redis client; caching is then disabled.
func NewHandler(config *Config, rdb *redis.Client, log logger.Logger) *Handler {
	h := &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	if rdb != nil {
		h.cache = database.NewJSONCache(rdb, "candidate:profile", config.CacheTTL)
	}
	h.errors = apperrors.NewErrorHandler(h.logger)
	return h
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
	candidateID := strings.TrimSpace(input.CandidateID)
	if candidateID == "" {
		return nil, apperrors.NewInvalidCandidateDataError(ErrMissingCandidateID)
	}

	profile, cv, source := input.Profile, input.CVAnalysis, SourceInput
	if profile == nil && input.Onboarding != nil {
		profile, cv = onboarding.CandidateProfile(*input.Onboarding)
		if input.CVAnalysis != nil {
			cv = input.CVAnalysis
		}
		source = SourceOnboarding
	}

	if profile == nil && cv == nil {
		var cached models.Candidate
		hit, err := h.cache.Get(ctx, candidateID, &cached)
		if err != nil {
			h.logger.Warn("profile cache read failed", map[string]interface{}{
				"candidateId": candidateID,
				"error":       err.Error(),
			})
		}
		if !hit {
			return nil, apperrors.NewInvalidCandidateDataError(ErrNoProfile)
		}
		return &Output{Candidate: cached, HasAcademicData: cached.HasAcademicData(), ProfileSource: SourceCache}, nil
	}

	candidate := matching.Normalize(candidateID, profile, cv)
	if err := matching.Validate(candidate); err != nil {
		return nil, apperrors.NewInvalidCandidateDataError(err)
	}

	if err := h.cache.Set(ctx, candidateID, candidate); err != nil {
		h.logger.Warn("profile cache write failed", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err.Error(),
		})
	}

	h.logger.Info("candidate normalized", map[string]interface{}{
		"candidateId":       candidateID,
		"source":            source,
		"researchInterests": len(candidate.ResearchInterests),
		"hasCV":             candidate.CV != nil,
		"hasAcademicData":   candidate.HasAcademicData(),
	})

	return &Output{
		Candidate:       candidate,
		HasAcademicData: candidate.HasAcademicData(),
		ProfileSource:   source,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
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
