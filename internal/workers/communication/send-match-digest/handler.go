// internal/workers/communication/send-match-digest/handler.go
package sendmatchdigest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	awsclient "gradmatch-workers/internal/common/aws"
	"gradmatch-workers/internal/common/database"
	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"
	"gradmatch-workers/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "send-match-digest"

	eventCoverageAlert = "coverage_alert"
)

var digestNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:gradmatch:digest"))

type Handler struct {
	config    *Config
	sender    awsclient.EmailSender
	publisher awsclient.Publisher
	digests   *database.JSONCache
	alerts    *database.JSONCache
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
	now       func() time.Time
}

// NewHandler accepts nil sender, publisher and rdb. A nil rdb disables
// duplicate suppression.
func NewHandler(config *Config, sender awsclient.EmailSender, publisher awsclient.Publisher, rdb *redis.Client, log logger.Logger) *Handler {
	h := &Handler{
		config:    config,
		sender:    sender,
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:       time.Now,
	}
	if rdb != nil {
		h.digests = database.NewJSONCache(rdb, "digest:sent", config.DedupeTTL)
		h.alerts = database.NewJSONCache(rdb, "digest:alert", config.DedupeTTL)
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
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewBusinessRuleError("Digest input invalid", err.Error())
	}
	candidateID := input.CandidateID

	out := &Output{
		NotificationID: notificationID(candidateID, input),
		Status:         StatusDisabled,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	if !input.CoverageSufficient {
		published, err := h.publishCoverageAlert(ctx, candidateID, out, input)
		if err != nil {
			return nil, err
		}
		out.AlertPublished = published
	}

	recipient := input.RecipientEmail
	if !h.config.EmailEnabled || h.sender == nil || recipient == "" || len(input.Matches) == 0 {
		h.logger.Info("digest email skipped", map[string]interface{}{
			"candidateId": candidateID,
			"matches":     len(input.Matches),
			"hasEmail":    recipient != "",
		})
		return out, nil
	}

	first, err := h.digests.SetNX(ctx, out.NotificationID, out.SentAt)
	if err != nil {
		h.logger.Warn("digest dedupe unavailable", map[string]interface{}{"error": err})
		first = true
	}
	if !first {
		out.Status = StatusDuplicate
		h.logger.Info("digest already sent", map[string]interface{}{
			"notificationId": out.NotificationID,
		})
		return out, nil
	}

	html, text, err := render(buildView(input.RecipientName, input.Matches, input.TotalMatches, h.config.TopN))
	if err != nil {
		h.release(ctx, h.digests, out.NotificationID)
		return nil, apperrors.NewInternalError(err)
	}

	subject := fmt.Sprintf("Your %d graduate program matches", max(input.TotalMatches, len(input.Matches)))
	if _, err := h.sender.SendEmail(ctx, awsclient.NewEmailInput(h.config.FromEmail, recipient, subject, html, text)); err != nil {
		h.release(ctx, h.digests, out.NotificationID)
		return nil, apperrors.NewNotificationSendFailedError("email", err)
	}

	out.EmailSent = true
	out.Status = StatusSent
	h.logger.Info("digest email sent", map[string]interface{}{
		"notificationId": out.NotificationID,
		"candidateId":    candidateID,
		"alert":          out.AlertPublished,
	})
	return out, nil
}

func (h *Handler) publishCoverageAlert(ctx context.Context, candidateID string, out *Output, input *Input) (bool, error) {
	if !h.config.AlertsEnabled || h.publisher == nil || h.config.CoverageTopicARN == "" {
		return false, nil
	}

	first, err := h.alerts.SetNX(ctx, out.NotificationID, out.SentAt)
	if err != nil {
		h.logger.Warn("alert dedupe unavailable", map[string]interface{}{"error": err})
		first = true
	}
	if !first {
		return false, nil
	}

	condition := input.Condition
	if condition == "" {
		condition = matching.ConditionInsufficientCoverage
	}
	msg, err := awsclient.NewJSONPublishInput(h.config.CoverageTopicARN, "Match coverage "+condition, CoverageAlert{
		EventType:    eventCoverageAlert,
		CandidateID:  candidateID,
		Condition:    condition,
		TotalMatches: input.TotalMatches,
		RaisedAt:     out.SentAt,
	}, map[string]string{
		"eventType": eventCoverageAlert,
		"condition": condition,
	})
	if err != nil {
		h.release(ctx, h.alerts, out.NotificationID)
		return false, apperrors.NewInternalError(err)
	}

	if _, err := h.publisher.Publish(ctx, msg); err != nil {
		h.release(ctx, h.alerts, out.NotificationID)
		return false, apperrors.NewNotificationSendFailedError("sns", err)
	}

	h.logger.Warn("coverage alert published", map[string]interface{}{
		"candidateId": candidateID,
		"condition":   condition,
		"matches":     input.TotalMatches,
	})
	return true, nil
}

// release frees a dedupe key so that a retried job can try again.
func (h *Handler) release(ctx context.Context, cache *database.JSONCache, id string) {
	if err := cache.Delete(ctx, id); err != nil {
		h.logger.Warn("failed to release dedupe key", map[string]interface{}{
			"id":    id,
			"error": err,
		})
	}
}

// notificationID is stable for a candidate and the set of matches sent.
func notificationID(candidateID string, input *Input) string {
	ids := make([]string, 0, len(input.Matches))
	for _, m := range input.Matches {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return uuid.NewSHA1(digestNamespace, []byte(candidateID+"|"+input.Condition+"|"+strings.Join(ids, ","))).String()
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
