// internal/workers/data-access/load-university-catalog/handler.go
package loaduniversitycatalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"
	"gradmatch-workers/internal/workers/data-access/load-university-catalog/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "load-university-catalog"
)

type Handler struct {
	config *Config
	loader *Loader
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		loader: NewLoader(db, rdb, config.CacheTTL, scoped),
		errors: apperrors.NewErrorHandler(scoped),
		logger: scoped,
	}
}

// Loader exposes the catalog source for in-process callers.
func (h *Handler) Loader() *Loader {
	return h.loader
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
	start := time.Now()

	entries, fromCache, err := h.loader.Load(ctx, queries.Filter{
		Countries:  input.Countries,
		ProgramIDs: input.ProgramIDs,
	})
	if err != nil {
		return nil, err
	}

	programs := 0
	for _, e := range entries {
		programs += len(e.Programs)
	}

	out := &Output{
		Catalog:         entries,
		UniversityCount: len(entries),
		ProgramCount:    programs,
		FromCache:       fromCache,
		QueryTimeMs:     time.Since(start).Milliseconds(),
	}

	h.logger.Info("catalog loaded", map[string]interface{}{
		"universities": out.UniversityCount,
		"programs":     out.ProgramCount,
		"fromCache":    fromCache,
		"queryTimeMs":  out.QueryTimeMs,
	})
	return out, nil
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
