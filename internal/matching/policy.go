// internal/matching/policy.go
package matching

import "fmt"

// Weights are the relative weights of each sub-score in the overall score.
// They are renormalized over the sub-scores present for a pair.
type Weights struct {
	GPA       float64 `json:"gpa"`
	Research  float64 `json:"research"`
	Location  float64 `json:"location"`
	Financial float64 `json:"financial"`
	CV        float64 `json:"cv"`
	AI        float64 `json:"ai"`
}

// Policy holds the tunable weights and thresholds of the engine.
type Policy struct {
	Weights Weights

	ReachAdmissionRate  float64 // below this, a program is always reach (default: 0.15)
	ReachScore          float64 // below this overall score, reach (default: 0.5)
	SafetyScore         float64 // at or above this overall score, safety candidate (default: 0.7)
	SafetyAdmissionRate float64 // safety also requires this rate (default: 0.4)

	DefaultAdmissionRate float64 // used when neither program nor university has a rate (default: 0.3)
	MinCount             int     // coverage threshold after dedup (default: 12)
	MaxResults           int     // 0 keeps every match
	ParallelThreshold    int     // pairs above which scoring fans out (default: 2000)
	FilterByDegree       bool
}

func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			GPA:       0.30,
			Research:  0.25,
			Location:  0.15,
			Financial: 0.15,
			CV:        0.15,
			AI:        0.20,
		},
		ReachAdmissionRate:   0.15,
		ReachScore:           0.5,
		SafetyScore:          0.7,
		SafetyAdmissionRate:  0.4,
		DefaultAdmissionRate: 0.3,
		MinCount:             12,
		MaxResults:           0,
		ParallelThreshold:    2000,
		FilterByDegree:       true,
	}
}

func (p Policy) Validate() error {
	w := p.Weights
	for name, v := range map[string]float64{
		"gpa": w.GPA, "research": w.Research, "location": w.Location,
		"financial": w.Financial, "cv": w.CV, "ai": w.AI,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative: %v", name, v)
		}
	}
	if w.GPA+w.Research+w.Location+w.Financial == 0 {
		return fmt.Errorf("core weights must not all be zero")
	}
	for name, v := range map[string]float64{
		"reachAdmissionRate":   p.ReachAdmissionRate,
		"reachScore":           p.ReachScore,
		"safetyScore":          p.SafetyScore,
		"safetyAdmissionRate":  p.SafetyAdmissionRate,
		"defaultAdmissionRate": p.DefaultAdmissionRate,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1]: %v", name, v)
		}
	}
	if p.SafetyScore < p.ReachScore {
		return fmt.Errorf("safetyScore (%v) must not be below reachScore (%v)", p.SafetyScore, p.ReachScore)
	}
	if p.MinCount < 0 || p.MaxResults < 0 || p.ParallelThreshold < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	return nil
}
