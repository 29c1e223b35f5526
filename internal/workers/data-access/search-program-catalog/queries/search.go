// internal/workers/data-access/search-program-catalog/queries/search.go
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

var ErrIndexNotFound = errors.New("program index not found")

type ProgramHit struct {
	ProgramID    string  `json:"programId"`
	UniversityID string  `json:"universityId"`
	Score        float64 `json:"score"`
}

type SearchResult struct {
	Hits      []ProgramHit
	TotalHits int64
	MaxScore  float64
	Took      int64
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source struct {
				ID           string `json:"id"`
				UniversityID string `json:"university_id"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs q against the program index.
func Search(ctx context.Context, client *elasticsearch.Client, q ProgramQuery) (*SearchResult, error) {
	req, err := BuildProgramSearch(q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, q.Index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &SearchResult{
		Hits:      make([]ProgramHit, 0, len(r.Hits.Hits)),
		TotalHits: r.Hits.Total.Value,
		Took:      time.Since(start).Milliseconds(),
	}
	if r.Hits.MaxScore != nil {
		out.MaxScore = *r.Hits.MaxScore
	}
	for _, h := range r.Hits.Hits {
		id := h.Source.ID
		if id == "" {
			id = h.ID
		}
		hit := ProgramHit{ProgramID: id, UniversityID: h.Source.UniversityID}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}
