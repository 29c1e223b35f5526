// internal/models/candidate.go
package models

// Candidate is the normalized applicant profile used as scoring input.
// Numeric fields are never absent: 0 means the value is unknown.
type Candidate struct {
	ID                string      `json:"id"`
	GPA               float64     `json:"gpa"`
	TestScores        TestScores  `json:"testScores"`
	ResearchInterests []string    `json:"researchInterests"`
	TargetDegree      string      `json:"targetDegree"`
	Preferences       Preferences `json:"preferences"`
	CV                *CVSignals  `json:"cv,omitempty"`
}

type TestScores struct {
	GRE   int     `json:"gre"`
	TOEFL int     `json:"toefl"`
	IELTS float64 `json:"ielts"`
}

// Preferences holds the applicant's filters. Countries are lower-cased.
type Preferences struct {
	Countries        []string `json:"countries"`
	MaxTuition       *float64 `json:"maxTuition,omitempty"`
	MinAdmissionRate *float64 `json:"minAdmissionRate,omitempty"`
}

// CVSignals are the signals extracted by the CV analysis step.
type CVSignals struct {
	Keywords      []string `json:"keywords"`
	Skills        []string `json:"skills"`
	OverallScore  float64  `json:"overallScore"`
	Publications  int      `json:"publications"`
	ResearchYears float64  `json:"researchYears"`
}

// HasAcademicData reports whether any academic numeric field is known.
func (c Candidate) HasAcademicData() bool {
	return c.GPA > 0 || c.TestScores.GRE > 0 || c.TestScores.TOEFL > 0 || c.TestScores.IELTS > 0
}
