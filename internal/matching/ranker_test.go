package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradmatch-workers/internal/models"
)

func TestRanker_Categorize(t *testing.T) {
	r := NewRanker(DefaultPolicy())

	tests := []struct {
		name    string
		overall float64
		rate    float64
		want    models.Category
	}{
		{"low rate overrides high fit", 0.9, 0.05, models.CategoryReach},
		{"low fit", 0.45, 0.8, models.CategoryReach},
		{"rate boundary is not reach", 0.6, 0.15, models.CategoryTarget},
		{"safety", 0.7, 0.4, models.CategorySafety},
		{"high fit mid rate", 0.85, 0.3, models.CategoryTarget},
		{"mid fit high rate", 0.65, 0.7, models.CategoryTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Categorize(tt.overall, tt.rate))
		})
	}
}

func TestRanker_OverallRenormalizes(t *testing.T) {
	r := NewRanker(DefaultPolicy())

	base := models.MatchFactors{GPAMatch: 1, ResearchAlignment: 1, LocationPreference: 1, FinancialFit: 1}
	assert.InDelta(t, 1.0, r.Overall(base), 1e-9)

	withAI := base
	withAI.AIScore = models.Float64Ptr(0)
	assert.InDelta(t, 0.85/1.05, r.Overall(withAI), 1e-9)

	withCV := base
	withCV.CVAlignment = models.Float64Ptr(0)
	assert.InDelta(t, 0.85, r.Overall(withCV), 1e-9)
}

func TestRanker_RankOrdering(t *testing.T) {
	r := NewRanker(DefaultPolicy())
	f := func(v float64) models.MatchFactors {
		return models.MatchFactors{GPAMatch: v, ResearchAlignment: v, LocationPreference: v, FinancialFit: v}
	}
	pair := func(uni, id string, rate float64) Pair {
		return Pair{University: models.University{Name: uni}, Program: program(id, rate)}
	}

	scored := []Scored{
		{Pair: pair("Zeta", "z", 0.5), Factors: f(0.8)},
		{Pair: pair("Alpha", "a2", 0.5), Factors: f(0.8)},
		{Pair: pair("Alpha", "a1", 0.5), Factors: f(0.8)},
		{Pair: pair("Beta", "b", 0.2), Factors: f(0.8)},
		{Pair: pair("Gamma", "g", 0.5), Factors: f(0.9)},
	}

	matches := r.Rank(models.Candidate{ID: "c"}, scored)

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Program.ID)
	}
	assert.Equal(t, []string{"g", "b", "a1", "a2", "z"}, ids)

	for _, m := range matches {
		assert.Equal(t, "c", m.CandidateRef)
		assert.Equal(t, MatchID("c", m.Program.ID), m.ID)
		assert.NotEmpty(t, m.Reasoning)
	}
}

func TestRanker_ReasoningLeadsWithCategory(t *testing.T) {
	r := NewRanker(DefaultPolicy())
	c := models.Candidate{ID: "c", GPA: 3.8}

	scored := []Scored{{
		Pair:    Pair{University: models.University{Name: "U"}, Program: program("p", 0.05), LowConfidence: true},
		Factors: Score(c, models.University{}, program("p", 0.05), nil),
	}}
	matches := r.Rank(c, scored)

	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Reasoning[0], "Reach")
	assert.Contains(t, matches[0].Reasoning[len(matches[0].Reasoning)-1], "low confidence")
	assert.True(t, matches[0].LowConfidence)
}

func TestMatchID_Stable(t *testing.T) {
	assert.Equal(t, MatchID("c1", "p1"), MatchID("c1", "p1"))
	assert.NotEqual(t, MatchID("c1", "p1"), MatchID("c1", "p2"))
	assert.NotEqual(t, MatchID("c1", "p1"), MatchID("c2", "p1"))
}

func TestGroupByCategory(t *testing.T) {
	matches := []models.Match{
		{ID: "1", Category: models.CategorySafety},
		{ID: "2", Category: models.CategoryReach},
		{ID: "3", Category: models.CategorySafety},
	}

	groups := GroupByCategory(matches)

	require.Len(t, groups, 3)
	assert.Equal(t, models.CategoryReach, groups[0].Category)
	assert.Equal(t, models.CategoryTarget, groups[1].Category)
	assert.Equal(t, models.CategorySafety, groups[2].Category)
	assert.Len(t, groups[0].Matches, 1)
	assert.Empty(t, groups[1].Matches)
	assert.Equal(t, "1", groups[2].Matches[0].ID)
	assert.Equal(t, "3", groups[2].Matches[1].ID)

	counts := CountByCategory(matches)
	assert.Equal(t, map[models.Category]int{
		models.CategoryReach:  1,
		models.CategoryTarget: 0,
		models.CategorySafety: 2,
	}, counts)
}
