// internal/workers/data-access/search-program-catalog/queries/builders.go
package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	DefaultSize = 200
	MaxSize     = 1000
)

var ErrMissingIndex = errors.New("index name is required")

// ProgramQuery preselects programs before scoring.
type ProgramQuery struct {
	Index             string
	ResearchInterests []string
	Countries         []string
	Degree            string
	MinAdmissionRate  *float64
	MaxTuition        *float64
	Size              int
}

// BuildProgramSearch builds the search request for q.
func BuildProgramSearch(q ProgramQuery) (*esapi.SearchRequest, error) {
	if strings.TrimSpace(q.Index) == "" {
		return nil, ErrMissingIndex
	}

	size := q.Size
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	body, err := json.Marshal(BuildProgramQueryBody(q))
	if err != nil {
		return nil, err
	}

	return &esapi.SearchRequest{
		Index:          []string{q.Index},
		Body:           bytes.NewReader(body),
		Size:           &size,
		TrackTotalHits: true,
		Source:         []string{"id", "university_id"},
	}, nil
}

// BuildProgramQueryBody scores interest overlap and filters on hard
// constraints. Without interests all matching programs score equally.
func BuildProgramQueryBody(q ProgramQuery) map[string]interface{} {
	var must []interface{}
	var filter []interface{}

	if interests := lowerAll(q.ResearchInterests); len(interests) > 0 {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  strings.Join(interests, " "),
				"fields": []string{"research_tags^3", "name^2", "description"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	if countries := lowerAll(q.Countries); len(countries) > 0 {
		filter = append(filter, map[string]interface{}{
			"terms": map[string]interface{}{"country": countries},
		})
	}
	if degree := strings.ToLower(strings.TrimSpace(q.Degree)); degree != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"degree_level": degree},
		})
	}
	if q.MinAdmissionRate != nil {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"admission_rate": map[string]interface{}{"gte": *q.MinAdmissionRate}},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"_score": "desc"},
			map[string]interface{}{"id": "asc"},
		},
	}

	// Over-budget programs are demoted, not excluded; financial fit is
	// scored later.
	if q.MaxTuition != nil && *q.MaxTuition > 0 {
		boolQuery["should"] = []interface{}{
			map[string]interface{}{
				"range": map[string]interface{}{"annual_tuition": map[string]interface{}{"lte": *q.MaxTuition}},
			},
		}
	}

	return query
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
