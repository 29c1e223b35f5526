// internal/workers/data-access/search-program-catalog/handler.go
package searchprogramcatalog

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"
	"gradmatch-workers/internal/workers/data-access/search-program-catalog/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "search-program-catalog"
)

type Handler struct {
	config *Config
	client *elasticsearch.Client
	index  string
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, index string, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		client: client,
		index:  index,
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
	size := input.Size
	if size <= 0 {
		size = h.config.DefaultSize
	}

	result, err := queries.Search(ctx, h.client, queries.ProgramQuery{
		Index:             h.index,
		ResearchInterests: input.ResearchInterests,
		Countries:         input.Countries,
		Degree:            input.Degree,
		MinAdmissionRate:  input.MinAdmissionRate,
		MaxTuition:        input.MaxTuition,
		Size:              size,
	})
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, apperrors.NewTimeoutError("elasticsearch", err)
		case errors.Is(err, queries.ErrIndexNotFound), errors.Is(err, queries.ErrMissingIndex):
			return nil, apperrors.NewResourceNotFoundError("elasticsearch", err.Error())
		default:
			return nil, apperrors.NewCatalogSearchFailedError(err)
		}
	}

	ids := make([]string, 0, len(result.Hits))
	seen := make(map[string]struct{}, len(result.Hits))
	for _, hit := range result.Hits {
		if _, dup := seen[hit.ProgramID]; dup || hit.ProgramID == "" {
			continue
		}
		seen[hit.ProgramID] = struct{}{}
		ids = append(ids, hit.ProgramID)
	}

	h.logger.Info("program search completed", map[string]interface{}{
		"hits":      len(ids),
		"totalHits": result.TotalHits,
		"tookMs":    result.Took,
	})

	return &Output{
		ProgramIDs: ids,
		Hits:       result.Hits,
		TotalHits:  result.TotalHits,
		MaxScore:   result.MaxScore,
		Took:       result.Took,
	}, nil
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
