// internal/workers/onboarding/advance-onboarding-step/handler.go
package advanceonboardingstep

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/metrics"
	"gradmatch-workers/internal/onboarding"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "advance-onboarding-step"
)

type Handler struct {
	config *Config
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	var state onboarding.State
	if input.State != nil {
		state = *input.State
	} else {
		s, err := onboarding.NewState(input.Flow)
		if err != nil {
			return nil, apperrors.NewInvalidTransitionError(err)
		}
		state = s
	}
	if state.Data == nil {
		state.Data = map[string]map[string]interface{}{}
	}

	next, err := onboarding.Transition(state, input.Event)
	if err != nil {
		return nil, h.mapError(state, input.Event, err)
	}

	completion := onboarding.Evaluate(next)
	h.logger.Info("onboarding advanced", map[string]interface{}{
		"flow":     string(next.Flow),
		"event":    string(input.Event.Type),
		"from":     state.CurrentStep,
		"to":       next.CurrentStep,
		"percent":  completion.Percent,
		"finished": next.Finished,
	})

	return &Output{
		State:       next,
		Completion:  completion,
		CurrentStep: next.CurrentStep,
		Finished:    next.Finished,
	}, nil
}

func (h *Handler) mapError(state onboarding.State, ev onboarding.Event, err error) error {
	var stepErr *onboarding.StepValidationError
	if errors.As(err, &stepErr) {
		messages := make([]string, 0, len(stepErr.Errors))
		for _, e := range stepErr.Errors {
			messages = append(messages, e.Field+": "+e.Message)
		}
		return apperrors.NewOnboardingValidationFailedError(err.Error()).
			WithMetadata("step", stepErr.Step).
			WithMetadata("validationErrors", messages)
	}
	if errors.Is(err, onboarding.ErrInvalidTransition) || errors.Is(err, onboarding.ErrUnknownFlow) {
		return apperrors.NewInvalidTransitionError(err).
			WithMetadata("currentStep", state.CurrentStep).
			WithMetadata("event", string(ev.Type))
	}
	return apperrors.NewInternalError(err)
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
