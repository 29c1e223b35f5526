// internal/onboarding/flow.go
package onboarding

import (
	"errors"
	"fmt"

	"gradmatch-workers/internal/common/validation"
)

type FlowType string

const (
	FlowApplicant FlowType = "applicant"
	FlowMentor    FlowType = "mentor"
)

type EventType string

const (
	EventSubmit EventType = "submit"
	EventBack   EventType = "back"
	EventSkip   EventType = "skip"
	EventReset  EventType = "reset"
)

var (
	ErrUnknownFlow       = errors.New("UNKNOWN_FLOW")
	ErrInvalidTransition = errors.New("INVALID_TRANSITION")
	ErrStepValidation    = errors.New("ONBOARDING_VALIDATION_FAILED")
)

// StepValidationError carries the schema violations of a submitted step.
type StepValidationError struct {
	Step   string
	Errors []validation.ValidationError
}

func (e *StepValidationError) Error() string {
	return fmt.Sprintf("step %s: %d validation errors", e.Step, len(e.Errors))
}

func (e *StepValidationError) Unwrap() error {
	return ErrStepValidation
}

type Step struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Optional bool   `json:"optional"`
	schema   *validation.Schema
}

type Flow struct {
	Type  FlowType `json:"type"`
	Steps []Step   `json:"steps"`
}

const StepReview = "review"

var flows = map[FlowType]*Flow{
	FlowApplicant: {
		Type: FlowApplicant,
		Steps: []Step{
			{ID: "personal", Title: "Personal information", schema: validation.MustCompile("personal", personalSchema)},
			{ID: "academic", Title: "Academic profile", schema: validation.MustCompile("academic", academicSchema)},
			{ID: "test-scores", Title: "Test scores", Optional: true, schema: validation.MustCompile("test-scores", testScoresSchema)},
			{ID: "research", Title: "Research interests", schema: validation.MustCompile("research", researchSchema)},
			{ID: "preferences", Title: "Preferences", schema: validation.MustCompile("preferences", preferencesSchema)},
			{ID: "cv", Title: "CV analysis", Optional: true, schema: validation.MustCompile("cv", cvSchema)},
			{ID: StepReview, Title: "Review", schema: validation.MustCompile("applicant-review", reviewSchema)},
		},
	},
	FlowMentor: {
		Type: FlowMentor,
		Steps: []Step{
			{ID: "personal", Title: "Personal information", schema: validation.MustCompile("personal", personalSchema)},
			{ID: "expertise", Title: "Expertise", schema: validation.MustCompile("expertise", expertiseSchema)},
			{ID: "availability", Title: "Availability", schema: validation.MustCompile("availability", availabilitySchema)},
			{ID: "verification", Title: "Verification", Optional: true, schema: validation.MustCompile("verification", verificationSchema)},
			{ID: StepReview, Title: "Review", schema: validation.MustCompile("mentor-review", reviewSchema)},
		},
	},
}

func GetFlow(t FlowType) (*Flow, error) {
	f, ok := flows[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, t)
	}
	return f, nil
}

func (f *Flow) index(stepID string) int {
	for i, s := range f.Steps {
		if s.ID == stepID {
			return i
		}
	}
	return -1
}

// State is the explicit wizard state. It is a value: Transition never
// modifies its input.
type State struct {
	Flow        FlowType                          `json:"flow"`
	CurrentStep string                            `json:"currentStep"`
	Completed   []string                          `json:"completed"`
	Skipped     []string                          `json:"skipped"`
	Data        map[string]map[string]interface{} `json:"data"`
	Finished    bool                              `json:"finished"`
}

// Event drives a transition. Step, when set, must name the current step so
// that stale clients cannot submit into the wrong step.
type Event struct {
	Type    EventType              `json:"type"`
	Step    string                 `json:"step,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

func NewState(t FlowType) (State, error) {
	f, err := GetFlow(t)
	if err != nil {
		return State{}, err
	}
	return State{
		Flow:        t,
		CurrentStep: f.Steps[0].ID,
		Completed:   []string{},
		Skipped:     []string{},
		Data:        map[string]map[string]interface{}{},
	}, nil
}

// Transition applies ev to s and returns the next state.
func Transition(s State, ev Event) (State, error) {
	f, err := GetFlow(s.Flow)
	if err != nil {
		return s, err
	}
	if ev.Type == EventReset {
		return NewState(s.Flow)
	}

	i := f.index(s.CurrentStep)
	if i < 0 {
		return s, fmt.Errorf("%w: unknown step %q", ErrInvalidTransition, s.CurrentStep)
	}
	if s.Finished {
		return s, fmt.Errorf("%w: flow already finished", ErrInvalidTransition)
	}
	if ev.Step != "" && ev.Step != s.CurrentStep {
		return s, fmt.Errorf("%w: event for step %q but current step is %q", ErrInvalidTransition, ev.Step, s.CurrentStep)
	}
	step := f.Steps[i]
	next := s.clone()

	switch ev.Type {
	case EventSubmit:
		payload := ev.Payload
		if payload == nil {
			payload = map[string]interface{}{}
		}
		res, err := step.schema.Validate(payload)
		if err != nil {
			return s, err
		}
		if !res.Valid {
			return s, &StepValidationError{Step: step.ID, Errors: res.Errors}
		}
		if step.ID == StepReview {
			if missing := Evaluate(next).Missing; len(missing) > 0 {
				return s, fmt.Errorf("%w: required steps incomplete: %v", ErrInvalidTransition, missing)
			}
			next.Finished = true
		}
		next.Data[step.ID] = payload
		next.Completed = addStep(next.Completed, step.ID)
		next.Skipped = removeStep(next.Skipped, step.ID)
		if i+1 < len(f.Steps) {
			next.CurrentStep = f.Steps[i+1].ID
		}
	case EventSkip:
		if !step.Optional {
			return s, fmt.Errorf("%w: step %q cannot be skipped", ErrInvalidTransition, step.ID)
		}
		delete(next.Data, step.ID)
		next.Skipped = addStep(next.Skipped, step.ID)
		next.Completed = removeStep(next.Completed, step.ID)
		next.CurrentStep = f.Steps[i+1].ID
	case EventBack:
		if i == 0 {
			return s, fmt.Errorf("%w: already at first step", ErrInvalidTransition)
		}
		next.CurrentStep = f.Steps[i-1].ID
	default:
		return s, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Type)
	}
	return next, nil
}

func (s State) clone() State {
	out := s
	out.Completed = append([]string{}, s.Completed...)
	out.Skipped = append([]string{}, s.Skipped...)
	out.Data = make(map[string]map[string]interface{}, len(s.Data))
	for k, v := range s.Data {
		out.Data[k] = v
	}
	return out
}

func addStep(steps []string, id string) []string {
	for _, s := range steps {
		if s == id {
			return steps
		}
	}
	return append(steps, id)
}

func removeStep(steps []string, id string) []string {
	out := steps[:0]
	for _, s := range steps {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
