// internal/onboarding/completion.go
package onboarding

type Completion struct {
	Percent        int      `json:"percent"`
	CompletedSteps int      `json:"completedSteps"`
	TotalSteps     int      `json:"totalSteps"`
	Missing        []string `json:"missing"`
	ReadyToFinish  bool     `json:"readyToFinish"`
}

// Evaluate reports profile completion. The review step is not counted and
// skipped optional steps do not add to the percentage.
func Evaluate(s State) Completion {
	f, err := GetFlow(s.Flow)
	if err != nil {
		return Completion{Missing: []string{}}
	}

	done := make(map[string]bool, len(s.Completed))
	for _, id := range s.Completed {
		done[id] = true
	}

	c := Completion{Missing: []string{}}
	for _, step := range f.Steps {
		if step.ID == StepReview {
			continue
		}
		c.TotalSteps++
		if done[step.ID] {
			c.CompletedSteps++
			continue
		}
		if !step.Optional {
			c.Missing = append(c.Missing, step.ID)
		}
	}
	if c.TotalSteps > 0 {
		c.Percent = c.CompletedSteps * 100 / c.TotalSteps
	}
	c.ReadyToFinish = len(c.Missing) == 0
	return c
}

// CandidateProfile assembles the applicant's step data into the raw profile
// and CV maps understood by the profile normalizer. The CV map is nil when
// the CV step was not completed.
func CandidateProfile(s State) (profile, cv map[string]interface{}) {
	academic := map[string]interface{}{}
	for k, v := range s.Data["academic"] {
		academic[k] = v
	}
	if scores, ok := s.Data["test-scores"]; ok {
		academic["testScores"] = scores
	}
	if research, ok := s.Data["research"]; ok {
		academic["researchInterests"] = research["researchInterests"]
	}

	profile = map[string]interface{}{"academicProfile": academic}
	if prefs, ok := s.Data["preferences"]; ok {
		profile["preferences"] = prefs
	}
	if personal, ok := s.Data["personal"]; ok {
		profile["personalInfo"] = personal
	}
	return profile, s.Data["cv"]
}
