package queries

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProgramQueryBody(t *testing.T) {
	rate := 0.2
	budget := 30000.0
	body := BuildProgramQueryBody(ProgramQuery{
		ResearchInterests: []string{"Machine Learning", " "},
		Countries:         []string{"Canada"},
		Degree:            "Masters",
		MinAdmissionRate:  &rate,
		MaxTuition:        &budget,
	})

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	s := string(raw)

	assert.Contains(t, s, `"query":"machine learning"`)
	assert.Contains(t, s, `"terms":{"country":["canada"]}`)
	assert.Contains(t, s, `"term":{"degree_level":"masters"}`)
	assert.Contains(t, s, `"admission_rate":{"gte":0.2}`)
	assert.Contains(t, s, `"annual_tuition":{"lte":30000}`)
}

func TestBuildProgramQueryBody_MatchAll(t *testing.T) {
	body := BuildProgramQueryBody(ProgramQuery{})
	raw, _ := json.Marshal(body)

	assert.Contains(t, string(raw), "match_all")
	assert.NotContains(t, string(raw), "filter")
}

func TestBuildProgramSearch(t *testing.T) {
	_, err := BuildProgramSearch(ProgramQuery{})
	assert.ErrorIs(t, err, ErrMissingIndex)

	req, err := BuildProgramSearch(ProgramQuery{Index: "programs", Size: 5000})
	require.NoError(t, err)
	assert.Equal(t, []string{"programs"}, req.Index)
	assert.Equal(t, MaxSize, *req.Size)
}
