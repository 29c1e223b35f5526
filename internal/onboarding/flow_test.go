package onboarding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submit(t *testing.T, s State, payload map[string]interface{}) State {
	t.Helper()
	next, err := Transition(s, Event{Type: EventSubmit, Step: s.CurrentStep, Payload: payload})
	require.NoError(t, err)
	return next
}

func TestNewState(t *testing.T) {
	s, err := NewState(FlowApplicant)
	require.NoError(t, err)
	assert.Equal(t, "personal", s.CurrentStep)
	assert.Empty(t, s.Completed)
	assert.False(t, s.Finished)

	_, err = NewState("sponsor")
	assert.True(t, errors.Is(err, ErrUnknownFlow))
}

func TestTransition_ApplicantHappyPath(t *testing.T) {
	s, _ := NewState(FlowApplicant)

	s = submit(t, s, map[string]interface{}{"fullName": "Ada Lovelace", "email": "ada@example.com"})
	assert.Equal(t, "academic", s.CurrentStep)

	s = submit(t, s, map[string]interface{}{"gpa": 3.9, "targetDegree": "phd"})
	assert.Equal(t, "test-scores", s.CurrentStep)

	s, err := Transition(s, Event{Type: EventSkip})
	require.NoError(t, err)
	assert.Equal(t, "research", s.CurrentStep)
	assert.Equal(t, []string{"test-scores"}, s.Skipped)

	s = submit(t, s, map[string]interface{}{"researchInterests": []interface{}{"NLP"}})
	s = submit(t, s, map[string]interface{}{"countries": []interface{}{"Canada"}, "maxTuition": 30000.0})
	s, err = Transition(s, Event{Type: EventSkip})
	require.NoError(t, err)
	assert.Equal(t, StepReview, s.CurrentStep)

	c := Evaluate(s)
	assert.True(t, c.ReadyToFinish)
	assert.Equal(t, 6, c.TotalSteps)
	assert.Equal(t, 4, c.CompletedSteps)
	assert.Equal(t, 66, c.Percent)

	s = submit(t, s, map[string]interface{}{"confirmed": true})
	assert.True(t, s.Finished)

	_, err = Transition(s, Event{Type: EventBack})
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	reset, err := Transition(s, Event{Type: EventReset})
	require.NoError(t, err)
	assert.Equal(t, "personal", reset.CurrentStep)
	assert.Empty(t, reset.Data)
}

func TestTransition_ValidationFailure(t *testing.T) {
	s, _ := NewState(FlowApplicant)

	_, err := Transition(s, Event{Type: EventSubmit, Payload: map[string]interface{}{"fullName": "A", "email": "nope"}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepValidation))
	var verr *StepValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "personal", verr.Step)
	assert.Len(t, verr.Errors, 2)
}

func TestTransition_RequiredFieldReported(t *testing.T) {
	s, _ := NewState(FlowMentor)

	_, err := Transition(s, Event{Type: EventSubmit, Payload: map[string]interface{}{"fullName": "Grace Hopper"}})

	var verr *StepValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "email", verr.Errors[0].Field)
	assert.Equal(t, "REQUIRED", verr.Errors[0].Code)
}

func TestTransition_Rules(t *testing.T) {
	s, _ := NewState(FlowMentor)

	_, err := Transition(s, Event{Type: EventBack})
	assert.True(t, errors.Is(err, ErrInvalidTransition), "back at first step")

	_, err = Transition(s, Event{Type: EventSkip})
	assert.True(t, errors.Is(err, ErrInvalidTransition), "skip required step")

	_, err = Transition(s, Event{Type: EventSubmit, Step: "expertise"})
	assert.True(t, errors.Is(err, ErrInvalidTransition), "stale step")

	_, err = Transition(s, Event{Type: "jump"})
	assert.True(t, errors.Is(err, ErrInvalidTransition), "unknown event")
}

func TestTransition_ReviewRequiresRequiredSteps(t *testing.T) {
	s, _ := NewState(FlowMentor)
	s.CurrentStep = StepReview

	_, err := Transition(s, Event{Type: EventSubmit, Payload: map[string]interface{}{"confirmed": true}})

	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s, _ := NewState(FlowApplicant)
	before := s.clone()

	next := submit(t, s, map[string]interface{}{"fullName": "Ada Lovelace", "email": "ada@example.com"})

	assert.Equal(t, before, s)
	assert.NotEqual(t, s.CurrentStep, next.CurrentStep)
	assert.Contains(t, next.Data, "personal")
}

func TestTransition_BackAndResubmit(t *testing.T) {
	s, _ := NewState(FlowMentor)
	s = submit(t, s, map[string]interface{}{"fullName": "Grace Hopper", "email": "grace@example.com"})

	s, err := Transition(s, Event{Type: EventBack})
	require.NoError(t, err)
	assert.Equal(t, "personal", s.CurrentStep)

	s = submit(t, s, map[string]interface{}{"fullName": "Grace B. Hopper", "email": "grace@example.com"})
	assert.Equal(t, []string{"personal"}, s.Completed)
	assert.Equal(t, "Grace B. Hopper", s.Data["personal"]["fullName"])
}

func TestCandidateProfile(t *testing.T) {
	s, _ := NewState(FlowApplicant)
	s.Data["academic"] = map[string]interface{}{"gpa": 3.5, "targetDegree": "masters"}
	s.Data["test-scores"] = map[string]interface{}{"gre": 320.0}
	s.Data["research"] = map[string]interface{}{"researchInterests": []interface{}{"hci"}}
	s.Data["preferences"] = map[string]interface{}{"countries": []interface{}{"UK"}}

	profile, cv := CandidateProfile(s)

	academic := profile["academicProfile"].(map[string]interface{})
	assert.Equal(t, 3.5, academic["gpa"])
	assert.Equal(t, map[string]interface{}{"gre": 320.0}, academic["testScores"])
	assert.Equal(t, []interface{}{"hci"}, academic["researchInterests"])
	assert.Contains(t, profile, "preferences")
	assert.Nil(t, cv)
}
