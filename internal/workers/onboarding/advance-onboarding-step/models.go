// internal/workers/onboarding/advance-onboarding-step/models.go
package advanceonboardingstep

import "gradmatch-workers/internal/onboarding"

// Input starts a new wizard of Flow when State is absent.
type Input struct {
	Flow  onboarding.FlowType `json:"flow,omitempty"`
	State *onboarding.State   `json:"onboarding,omitempty"`
	Event onboarding.Event    `json:"event"`
}

type Output struct {
	State       onboarding.State      `json:"onboarding"`
	Completion  onboarding.Completion `json:"completion"`
	CurrentStep string                `json:"currentStep"`
	Finished    bool                  `json:"finished"`
}
