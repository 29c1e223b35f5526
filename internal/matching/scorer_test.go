package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradmatch-workers/internal/models"
)

func program(id string, rate float64, tags ...string) models.Program {
	return models.Program{ID: id, Name: "Program " + id, AdmissionRate: models.Float64Ptr(rate), ResearchTags: tags}
}

func TestScorer_GPAMatch(t *testing.T) {
	tests := []struct {
		name string
		gpa  float64
		rate float64
		want float64
	}{
		{"unknown gpa is neutral", 0, 0.05, 0.5},
		{"selective program", 3.8, 0.05, 0.95 * 0.715},
		{"open program", 3.8, 0.6, 0.836},
		{"perfect gpa fully open", 4.0, 1.0, 1.0},
		{"perfect gpa closed", 4.0, 0.0, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Score(models.Candidate{GPA: tt.gpa}, models.University{}, program("p", tt.rate), nil)
			assert.InDelta(t, tt.want, f.GPAMatch, 1e-9)
		})
	}
}

func TestScorer_ResearchAlignment(t *testing.T) {
	c := models.Candidate{ResearchInterests: []string{"machine learning", "nlp"}}

	assert.InDelta(t, 0.5, Score(c, models.University{}, program("p", 0.3), nil).ResearchAlignment, 1e-9)
	assert.InDelta(t, 0.5, Score(models.Candidate{}, models.University{}, program("p", 0.3, "nlp"), nil).ResearchAlignment, 1e-9)
	assert.InDelta(t, 1.0/3.0, Score(c, models.University{}, program("p", 0.3, "nlp", "vision"), nil).ResearchAlignment, 1e-9)
	assert.InDelta(t, 1.0, Score(c, models.University{}, program("p", 0.3, "nlp", "machine learning"), nil).ResearchAlignment, 1e-9)
	assert.Zero(t, Score(c, models.University{}, program("p", 0.3, "biology"), nil).ResearchAlignment)
}

func TestScorer_LocationPreference(t *testing.T) {
	withPrefs := models.Candidate{Preferences: models.Preferences{Countries: []string{"canada", "usa"}}}

	tests := []struct {
		name    string
		c       models.Candidate
		country string
		want    float64
	}{
		{"no preference", models.Candidate{}, "Japan", 1.0},
		{"preferred case-insensitive", withPrefs, "USA", 1.0},
		{"not preferred", withPrefs, "Germany", 0.3},
		{"unknown country", withPrefs, "", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Score(tt.c, models.University{Country: tt.country}, program("p", 0.3), nil)
			assert.Equal(t, tt.want, f.LocationPreference)
		})
	}
}

func TestScorer_FinancialFit(t *testing.T) {
	budget := models.Candidate{Preferences: models.Preferences{MaxTuition: models.Float64Ptr(20000)}}

	tests := []struct {
		name    string
		c       models.Candidate
		tuition *float64
		want    float64
	}{
		{"no tuition", budget, nil, 1.0},
		{"no budget", models.Candidate{}, models.Float64Ptr(90000), 1.0},
		{"within budget", budget, models.Float64Ptr(20000), 1.0},
		{"half over", budget, models.Float64Ptr(30000), 0.6},
		{"double", budget, models.Float64Ptr(40000), 0.2},
		{"far over floors", budget, models.Float64Ptr(100000), 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := program("p", 0.3)
			p.AnnualTuition = tt.tuition
			f := Score(tt.c, models.University{}, p, nil)
			assert.InDelta(t, tt.want, f.FinancialFit, 1e-9)
		})
	}
}

func TestScorer_CVAlignment(t *testing.T) {
	noCV := Score(models.Candidate{}, models.University{}, program("p", 0.3, "nlp"), nil)
	assert.Nil(t, noCV.CVAlignment)

	c := models.Candidate{
		ResearchInterests: []string{"nlp"},
		CV:                &models.CVSignals{Keywords: []string{"transformers"}, OverallScore: 0.8},
	}

	f := Score(c, models.University{}, program("p", 0.3, "nlp", "transformers", "speech", "vision"), nil)
	require.NotNil(t, f.CVAlignment)
	assert.InDelta(t, 0.6*0.5+0.4*0.8, *f.CVAlignment, 1e-9)

	c.CV.OverallScore = 0
	f = Score(c, models.University{}, program("p", 0.3), nil)
	require.NotNil(t, f.CVAlignment)
	assert.InDelta(t, 0.5, *f.CVAlignment, 1e-9)
}

func TestScorer_AIScorePassthrough(t *testing.T) {
	p := program("p", 0.3)

	f := Score(models.Candidate{}, models.University{}, p, nil)
	assert.Nil(t, f.AIScore)

	f = Score(models.Candidate{}, models.University{}, p, models.Float64Ptr(1.7))
	require.NotNil(t, f.AIScore)
	assert.Equal(t, 1.0, *f.AIScore)

	f = Score(models.Candidate{}, models.University{}, p, models.Float64Ptr(math.NaN()))
	assert.Nil(t, f.AIScore)
}

func TestScorer_Deterministic(t *testing.T) {
	c := models.Candidate{GPA: 3.1, ResearchInterests: []string{"a", "b"}, CV: &models.CVSignals{Skills: []string{"a"}}}
	u := models.University{Country: "France"}
	p := program("p", 0.42, "b", "c")

	first := Score(c, u, p, models.Float64Ptr(0.3))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(c, u, p, models.Float64Ptr(0.3)))
	}
}
