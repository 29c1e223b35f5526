// internal/workers/matching/fetch-ai-match-scores/client.go
package fetchaimatchscores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apphttp "gradmatch-workers/internal/common/http"
	"gradmatch-workers/internal/matching"
	"gradmatch-workers/internal/models"
)

// Scores above 1 and below this are neither fractions nor percentages.
const minPercentScore = 2.0

var (
	ErrMissingScore = errors.New("response carried no score")
	ErrScoreRange   = errors.New("score out of range")
)

// ScoreClient calls the AI scoring API for one candidate x program pair.
type ScoreClient struct {
	http    *apphttp.Client
	url     string
	headers map[string]string
}

func NewScoreClient(config *Config) *ScoreClient {
	policy := apphttp.DefaultRetryPolicy
	policy.AttemptTimeout = config.AttemptTimeout
	if config.MaxAttempts > 0 {
		policy.MaxAttempts = config.MaxAttempts
	}

	headers := map[string]string{}
	if config.APIKey != "" {
		headers["Authorization"] = "Bearer " + config.APIKey
	}

	return &ScoreClient{
		http:    apphttp.NewClient(config.Timeout).WithRetry(policy),
		url:     strings.TrimRight(config.BaseURL, "/") + "/v1/match-score",
		headers: headers,
	}
}

// FetchScore returns the score as a fraction. Percent scores are accepted.
func (c *ScoreClient) FetchScore(ctx context.Context, candidate models.Candidate, u models.University, p models.Program) (float64, error) {
	req := scoreRequest{
		Candidate: candidatePayload{
			ID:                candidate.ID,
			GPA:               candidate.GPA,
			TestScores:        candidate.TestScores,
			ResearchInterests: candidate.ResearchInterests,
			TargetDegree:      candidate.TargetDegree,
			CV:                candidate.CV,
		},
		Program:    p,
		University: u,
	}

	var resp scoreResponse
	if err := c.http.PostJSON(ctx, c.url, c.headers, req, &resp); err != nil {
		return 0, err
	}
	if resp.Score == nil {
		return 0, ErrMissingScore
	}
	raw := *resp.Score
	if raw > 1 && raw < minPercentScore {
		return 0, fmt.Errorf("%w: %v", ErrScoreRange, raw)
	}
	score, ok := matching.NormalizeRate(raw)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrScoreRange, raw)
	}
	return score, nil
}
