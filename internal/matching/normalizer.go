// internal/matching/normalizer.go
package matching

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gradmatch-workers/internal/models"
)

const (
	maxGPA   = 4.0
	maxGRE   = 340
	maxTOEFL = 120
	maxIELTS = 9.0
)

// Normalize converts the raw wizard profile and CV analysis maps into a
// complete Candidate. It never fails: unparseable, negative or out-of-range
// values become 0 and missing sections get defaults.
func Normalize(candidateID string, rawProfile, rawCV map[string]interface{}) models.Candidate {
	if rawProfile == nil {
		rawProfile = map[string]interface{}{}
	}

	academic := section(rawProfile, "academicProfile")
	tests := section(academic, "testScores")
	if _, ok := academic["testScores"]; !ok {
		tests = section(rawProfile, "testScores")
	}
	prefs := section(rawProfile, "preferences")

	c := models.Candidate{
		ID:  candidateID,
		GPA: boundedFloat(lookup(academic, rawProfile, "gpa", "cgpa"), maxGPA),
		TestScores: models.TestScores{
			GRE:   int(boundedFloat(lookup(tests, rawProfile, "gre", "greScore"), maxGRE)),
			TOEFL: int(boundedFloat(lookup(tests, rawProfile, "toefl", "toeflScore"), maxTOEFL)),
			IELTS: boundedFloat(lookup(tests, rawProfile, "ielts", "ieltsScore"), maxIELTS),
		},
		TargetDegree: strings.ToLower(strings.TrimSpace(stringValue(
			lookup(academic, rawProfile, "targetDegree", "degreeLevel", "degree")))),
		Preferences: models.Preferences{
			Countries: normalizeSet(stringList(lookup(prefs, rawProfile, "countries", "preferredCountries"))),
		},
	}

	if v, ok := parseFloat(lookup(prefs, rawProfile, "maxTuition", "budget")); ok && v > 0 {
		c.Preferences.MaxTuition = models.Float64Ptr(v)
	}
	if v, ok := parseFloat(lookup(prefs, rawProfile, "minAdmissionRate")); ok {
		if rate, ok := NormalizeRate(v); ok {
			c.Preferences.MinAdmissionRate = models.Float64Ptr(rate)
		}
	}

	interests := stringList(lookup(academic, rawProfile, "researchInterests", "interests", "researchAreas"))
	if rawCV != nil {
		interests = append(interests, stringList(rawCV["researchInterests"])...)
		interests = append(interests, stringList(rawCV["researchAreas"])...)
		c.CV = normalizeCV(rawCV)
	}
	c.ResearchInterests = normalizeSet(interests)

	return c
}

func normalizeCV(raw map[string]interface{}) *models.CVSignals {
	cv := models.CVSignals{
		Keywords: normalizeSet(stringList(raw["keywords"])),
		Skills:   normalizeSet(stringList(raw["skills"])),
	}
	if v, ok := parseFloat(raw["overallScore"]); ok {
		if score, ok := NormalizeRate(v); ok {
			cv.OverallScore = score
		}
	}
	if v, ok := parseFloat(raw["publications"]); ok && v > 0 {
		cv.Publications = int(v)
	}
	if v, ok := parseFloat(firstPresent(raw, "researchYears", "researchExperienceYears")); ok && v > 0 {
		cv.ResearchYears = v
	}

	if len(cv.Keywords) == 0 && len(cv.Skills) == 0 && cv.OverallScore == 0 &&
		cv.Publications == 0 && cv.ResearchYears == 0 {
		return nil
	}
	return &cv
}

// NormalizeRate converts a raw rate to a fraction in [0,1]. Values above 1
// are treated as percentages. The second result is false when the value is
// still out of range.
func NormalizeRate(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	if v > 1 {
		v /= 100
	}
	if v > 1 {
		return 0, false
	}
	return v, true
}

// Validate checks that every numeric field of c is within its documented
// range. Normalize output always passes.
func Validate(c models.Candidate) error {
	checks := []struct {
		name  string
		value float64
		max   float64
	}{
		{"gpa", c.GPA, maxGPA},
		{"gre", float64(c.TestScores.GRE), maxGRE},
		{"toefl", float64(c.TestScores.TOEFL), maxTOEFL},
		{"ielts", c.TestScores.IELTS, maxIELTS},
	}
	for _, ch := range checks {
		if math.IsNaN(ch.value) || ch.value < 0 || ch.value > ch.max {
			return fmt.Errorf("%w: %s %v outside [0,%v]", ErrInvalidCandidateData, ch.name, ch.value, ch.max)
		}
	}
	if t := c.Preferences.MaxTuition; t != nil && (math.IsNaN(*t) || *t <= 0) {
		return fmt.Errorf("%w: maxTuition %v must be positive", ErrInvalidCandidateData, *t)
	}
	if r := c.Preferences.MinAdmissionRate; r != nil && !inUnit(*r) {
		return fmt.Errorf("%w: minAdmissionRate %v outside [0,1]", ErrInvalidCandidateData, *r)
	}
	if c.CV != nil && !inUnit(c.CV.OverallScore) {
		return fmt.Errorf("%w: cv overallScore %v outside [0,1]", ErrInvalidCandidateData, c.CV.OverallScore)
	}
	return nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// section returns data[key] when it is a nested object, otherwise data itself.
func section(data map[string]interface{}, key string) map[string]interface{} {
	if raw, ok := data[key]; ok {
		if m, ok := raw.(map[string]interface{}); ok {
			return m
		}
	}
	return data
}

// lookup returns the first key present in primary, then in fallback.
func lookup(primary, fallback map[string]interface{}, keys ...string) interface{} {
	if v := firstPresent(primary, keys...); v != nil {
		return v
	}
	return firstPresent(fallback, keys...)
}

func firstPresent(data map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func boundedFloat(raw interface{}, max float64) float64 {
	v, ok := parseFloat(raw)
	if !ok || v < 0 || v > max {
		return 0
	}
	return v
}

func parseFloat(raw interface{}) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func stringValue(raw interface{}) string {
	s, _ := raw.(string)
	return s
}

// stringList accepts a JSON array or a comma-separated string.
func stringList(raw interface{}) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Split(v, ",")
	}
	return nil
}

// normalizeSet lower-cases, trims, de-duplicates and sorts values.
func normalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
