// internal/workers/matching/fetch-ai-match-scores/handler.go
package fetchaimatchscores

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"gradmatch-workers/internal/common/database"
	apperrors "gradmatch-workers/internal/common/errors"
	apphttp "gradmatch-workers/internal/common/http"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"
	"gradmatch-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "fetch-ai-match-scores"
)

var ErrMissingCandidateID = errors.New("candidate.id is required")

type Handler struct {
	config *Config
	client *ScoreClient
	cache  *database.JSONCache
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler accepts a nil redis client; scores are then always fetched.
func NewHandler(config *Config, rdb *redis.Client, log logger.Logger) *Handler {
	h := &Handler{
		config: config,
		client: NewScoreClient(config),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	if rdb != nil {
		h.cache = database.NewJSONCache(rdb, "ai:score", config.CacheTTL)
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

type lookup struct {
	university models.University
	program    models.Program
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	candidateID := strings.TrimSpace(input.Candidate.ID)
	if candidateID == "" {
		return nil, apperrors.NewInvalidCandidateDataError(ErrMissingCandidateID)
	}

	out := &Output{AIScores: map[string]float64{}}
	if strings.TrimSpace(h.config.BaseURL) == "" {
		h.logger.Warn("ai scoring disabled, no base url configured", nil)
		return out, nil
	}

	var pending []lookup
	seen := map[string]struct{}{}
	for _, entry := range input.Catalog {
		for _, p := range entry.Programs {
			if p.ID == "" {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			out.Requested++

			var cached float64
			hit, err := h.cache.Get(ctx, cacheID(candidateID, p.ID), &cached)
			if err != nil {
				h.logger.Warn("ai score cache read failed", map[string]interface{}{
					"programId": p.ID,
					"error":     err,
				})
			}
			if hit {
				out.AIScores[p.ID] = cached
				out.Cached++
				metrics.AIScoreRequests.WithLabelValues("cache_hit").Inc()
				continue
			}
			pending = append(pending, lookup{university: entry.University, program: p})
		}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(h.config.Concurrency, 1))

	for _, l := range pending {
		wg.Add(1)
		go func(l lookup) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				h.recordFailure(&mu, out, l.program.ID, ctx.Err())
				return
			}

			score, err := h.client.FetchScore(ctx, input.Candidate, l.university, l.program)
			if err != nil {
				h.recordFailure(&mu, out, l.program.ID, err)
				return
			}

			if err := h.cache.Set(ctx, cacheID(candidateID, l.program.ID), score); err != nil {
				h.logger.Warn("ai score cache write failed", map[string]interface{}{
					"programId": l.program.ID,
					"error":     err,
				})
			}

			metrics.AIScoreRequests.WithLabelValues("success").Inc()
			mu.Lock()
			out.AIScores[l.program.ID] = score
			mu.Unlock()
		}(l)
	}
	wg.Wait()

	h.logger.Info("ai scores fetched", map[string]interface{}{
		"requested": out.Requested,
		"scored":    len(out.AIScores),
		"cached":    out.Cached,
		"failed":    out.Failed,
	})
	return out, nil
}

// recordFailure counts a lookup that will be left out of the scores.
func (h *Handler) recordFailure(mu *sync.Mutex, out *Output, programID string, err error) {
	stdErr := scoreFailure(programID, err)
	outcome := "failure"
	if stdErr.Code == apperrors.ErrCodeAIScoreTimeout {
		outcome = "timeout"
	}
	metrics.AIScoreRequests.WithLabelValues(outcome).Inc()

	h.logger.Warn("ai score omitted", map[string]interface{}{
		"programId": programID,
		"errorCode": string(stdErr.Code),
		"retryable": stdErr.Retryable,
		"details":   stdErr.Details,
		"error":     err,
	})

	mu.Lock()
	out.Failed++
	mu.Unlock()
}

func scoreFailure(programID string, err error) *apperrors.StandardError {
	if errors.Is(err, apphttp.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewAIScoreTimeoutError(programID)
	}
	return apperrors.NewAIScoreFailedError(err).WithMetadata("programId", programID)
}

func cacheID(candidateID, programID string) string {
	return candidateID + ":" + programID
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
