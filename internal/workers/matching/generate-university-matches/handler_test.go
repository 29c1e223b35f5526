package generateuniversitymatches

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gradmatch-workers/internal/common/config"
	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/common/observability"
	"gradmatch-workers/internal/matching"
	"gradmatch-workers/internal/models"
	"gradmatch-workers/internal/workers/data-access/load-university-catalog/queries"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	entries []models.CatalogEntry
	err     error
	filter  queries.Filter
}

func (f *fakeSource) Load(_ context.Context, filter queries.Filter) ([]models.CatalogEntry, bool, error) {
	f.filter = filter
	return f.entries, true, f.err
}

func buildCatalog(n int) []models.CatalogEntry {
	entries := make([]models.CatalogEntry, 0, n)
	for i := 0; i < n; i++ {
		entry := models.CatalogEntry{
			University: models.University{ID: fmt.Sprintf("u%d", i), Name: fmt.Sprintf("University %d", i), Country: "Canada"},
			Programs: []models.Program{{
				ID:           fmt.Sprintf("p%d", i),
				Name:         "MSc Computer Science",
				ResearchTags: []string{"machine learning"},
			}},
		}
		if i%2 == 0 {
			entry.Programs[0].AdmissionRate = models.Float64Ptr(float64(5 + i*5))
		}
		entries = append(entries, entry)
	}
	return entries
}

func newTestHandler(t *testing.T, source CatalogSource, obs *observability.Observability) *Handler {
	t.Helper()
	engine, err := matching.NewEngine(matching.DefaultPolicy())
	require.NoError(t, err)
	return NewHandler(LoadConfig(), engine, source, obs, logger.NewTestLogger(t))
}

func candidate() models.Candidate {
	return models.Candidate{
		ID:                "c1",
		GPA:               3.6,
		ResearchInterests: []string{"machine learning"},
		Preferences:       models.Preferences{Countries: []string{"canada"}},
	}
}

func TestExecute_SufficientCoverage(t *testing.T) {
	obs, err := observability.New(config.ObservabilityConfig{ServiceName: "test", MetricsEnabled: true}, prometheus.NewRegistry())
	require.NoError(t, err)
	h := newTestHandler(t, nil, obs)

	out, err := h.Execute(context.Background(), &Input{Candidate: candidate(), Catalog: buildCatalog(14)})
	require.NoError(t, err)

	assert.True(t, out.CoverageSufficient)
	assert.Empty(t, out.Condition)
	assert.Equal(t, 14, out.TotalMatches)
	assert.Equal(t, 7, out.LowConfidenceCount)
	require.Len(t, out.Groups, 3)

	total := 0
	for _, g := range out.Groups {
		total += len(g.Matches)
		assert.Equal(t, out.CategoryCounts[g.Category], len(g.Matches))
	}
	assert.Equal(t, out.TotalMatches, total)
	assert.False(t, out.CatalogFromCache)
}

func TestExecute_InsufficientCoverage(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	out, err := h.Execute(context.Background(), &Input{Candidate: candidate(), Catalog: buildCatalog(3)})
	require.NoError(t, err)

	assert.False(t, out.CoverageSufficient)
	assert.Equal(t, matching.ConditionInsufficientCoverage, out.Condition)
	assert.Equal(t, "found: 3, required: 12", out.ConditionDetails)
	assert.Len(t, out.Matches, 3)
}

func TestExecute_EmptyCatalog(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	out, err := h.Execute(context.Background(), &Input{Candidate: candidate(), Catalog: []models.CatalogEntry{}})
	require.NoError(t, err)

	assert.Equal(t, matching.ConditionEmptyCatalog, out.Condition)
	assert.Equal(t, "found: 0, required: 12", out.ConditionDetails)
	assert.Empty(t, out.Matches)
}

func TestConditionError(t *testing.T) {
	assert.Nil(t, conditionError("", 14, 12))

	cov := conditionError(matching.ConditionInsufficientCoverage, 4, 12)
	require.NotNil(t, cov)
	assert.Equal(t, apperrors.ErrCodeInsufficientCatalogCoverage, cov.Code)
	assert.False(t, cov.Retryable)

	empty := conditionError(matching.ConditionEmptyCatalog, 0, 12)
	require.NotNil(t, empty)
	assert.Equal(t, apperrors.ErrCodeEmptyCatalog, empty.Code)
}

func TestExecute_LoadsFromSource(t *testing.T) {
	source := &fakeSource{entries: buildCatalog(2)}
	h := newTestHandler(t, source, nil)

	out, err := h.Execute(context.Background(), &Input{Candidate: candidate(), ProgramIDs: []string{"p0", "p1"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"p0", "p1"}, source.filter.ProgramIDs)
	assert.True(t, out.CatalogFromCache)
	assert.Equal(t, 2, out.TotalMatches)
}

func TestExecute_Errors(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	_, err := h.Execute(context.Background(), &Input{Candidate: candidate()})
	assert.Equal(t, apperrors.ErrCodeCatalogLoadFailed, apperrors.Normalize(err).Code)

	failing := newTestHandler(t, &fakeSource{err: apperrors.NewCatalogLoadFailedError(errors.New("down"))}, nil)
	_, err = failing.Execute(context.Background(), &Input{Candidate: candidate()})
	assert.True(t, apperrors.Normalize(err).Retryable)

	bad := candidate()
	bad.GPA = 5
	_, err = h.Execute(context.Background(), &Input{Candidate: bad, Catalog: buildCatalog(1)})
	assert.Equal(t, apperrors.ErrCodeInvalidCandidateData, apperrors.Normalize(err).Code)
}
