package searchprogramcatalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, fn http.HandlerFunc) *Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		fn(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return NewHandler(LoadConfig(), es, "programs", logger.NewTestLogger(t))
}

func TestExecute_ReturnsProgramIDs(t *testing.T) {
	var body map[string]interface{}
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/programs/_search", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{
			"took": 3,
			"hits": {
				"total": {"value": 3},
				"max_score": 4.2,
				"hits": [
					{"_id": "p1", "_score": 4.2, "_source": {"id": "p1", "university_id": "u1"}},
					{"_id": "p2", "_score": 2.0, "_source": {"university_id": "u2"}},
					{"_id": "p1", "_score": 1.0, "_source": {"id": "p1", "university_id": "u1"}}
				]
			}
		}`))
	})

	out, err := h.Execute(context.Background(), &Input{
		ResearchInterests: []string{"robotics"},
		Countries:         []string{"Germany"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2"}, out.ProgramIDs)
	assert.Len(t, out.Hits, 3)
	assert.Equal(t, "u2", out.Hits[1].UniversityID)
	assert.EqualValues(t, 3, out.TotalHits)
	assert.InDelta(t, 4.2, out.MaxScore, 1e-9)
	assert.Contains(t, body, "query")
}

func TestExecute_IndexNotFound(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorCode("RESOURCE_NOT_FOUND"), apperrors.Normalize(err).Code)
	assert.False(t, apperrors.Normalize(err).Retryable)
}

func TestExecute_ServerError(t *testing.T) {
	h := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"parsing_exception"},"status":400}`))
	})

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCatalogSearchFailed, apperrors.Normalize(err).Code)
}
