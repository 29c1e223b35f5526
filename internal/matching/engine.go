// internal/matching/engine.go
package matching

import (
	"runtime"
	"strings"
	"sync"

	"gradmatch-workers/internal/models"
)

// Result is the outcome of one matching run. Condition is empty when
// coverage is sufficient.
type Result struct {
	Matches            []models.Match          `json:"matches"`
	CoverageSufficient bool                    `json:"coverageSufficient"`
	Condition          string                  `json:"condition,omitempty"`
	CategoryCounts     map[models.Category]int `json:"categoryCounts"`
	Evaluated          int                     `json:"evaluated"`
}

// Engine runs score, rank and dedupe over an in-memory catalog. It performs
// no I/O; AI scores are supplied by the caller.
type Engine struct {
	policy Policy
	ranker *Ranker
}

func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: policy, ranker: NewRanker(policy)}, nil
}

func (e *Engine) Policy() Policy {
	return e.policy
}

func (e *Engine) Ranker() *Ranker {
	return e.ranker
}

// GenerateMatches returns ranked, de-duplicated matches for the candidate.
// aiScores is keyed by program ID and may be nil. An empty or thin catalog is
// reported through Result, never as an error; the only error is
// ErrInvalidCandidateData.
func (e *Engine) GenerateMatches(candidate models.Candidate, catalog *Catalog, aiScores map[string]float64) (*Result, error) {
	if err := Validate(candidate); err != nil {
		return nil, err
	}

	if catalog.Len() == 0 {
		return &Result{
			Matches:        []models.Match{},
			Condition:      ConditionEmptyCatalog,
			CategoryCounts: CountByCategory(nil),
		}, nil
	}

	pairs := e.filter(candidate, catalog.AllPrograms())
	scored := e.score(candidate, pairs, aiScores)
	matches := Dedupe(e.ranker.Rank(candidate, scored))

	res := &Result{
		CoverageSufficient: len(matches) >= e.policy.MinCount,
		Evaluated:          len(scored),
	}
	if !res.CoverageSufficient {
		res.Condition = ConditionInsufficientCoverage
	}
	if e.policy.MaxResults > 0 && len(matches) > e.policy.MaxResults {
		matches = matches[:e.policy.MaxResults]
	}
	res.Matches = matches
	res.CategoryCounts = CountByCategory(matches)
	return res, nil
}

// Evaluate scores a single university x program pairing without filtering
// or coverage checks.
func (e *Engine) Evaluate(candidate models.Candidate, u models.University, p models.Program, aiScore *float64) (models.Match, error) {
	if err := Validate(candidate); err != nil {
		return models.Match{}, err
	}
	pair := newPair(normalizeUniversity(u), p, e.policy.DefaultAdmissionRate)
	factors := NewScorer(candidate).Score(pair.University, pair.Program, aiScore)
	return e.ranker.Rank(candidate, []Scored{{Pair: pair, Factors: factors}})[0], nil
}

func (e *Engine) filter(c models.Candidate, pairs []Pair) []Pair {
	minRate := c.Preferences.MinAdmissionRate
	degree := canonicalDegree(c.TargetDegree)
	out := pairs[:0]
	for _, p := range pairs {
		if minRate != nil && p.Program.Rate() < *minRate {
			continue
		}
		if e.policy.FilterByDegree && degree != "" {
			if pd := canonicalDegree(p.Program.Degree); pd != "" && pd != degree {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// score fans out over fixed chunks when the pair count exceeds the parallel
// threshold. Each goroutine writes only its own slice range.
func (e *Engine) score(c models.Candidate, pairs []Pair, aiScores map[string]float64) []Scored {
	scorer := NewScorer(c)
	out := make([]Scored, len(pairs))

	scoreRange := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			p := pairs[i]
			var ai *float64
			if v, ok := aiScores[p.Program.ID]; ok {
				ai = &v
			}
			out[i] = Scored{Pair: p, Factors: scorer.Score(p.University, p.Program, ai)}
		}
	}

	if e.policy.ParallelThreshold == 0 || len(pairs) <= e.policy.ParallelThreshold {
		scoreRange(0, len(pairs))
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(pairs) + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < len(pairs); lo += chunk {
		hi := lo + chunk
		if hi > len(pairs) {
			hi = len(pairs)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			scoreRange(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
	return out
}

var degreeAliases = map[string]string{
	"master": "master", "masters": "master", "master's": "master", "ms": "master", "msc": "master",
	"m.s.": "master", "ma": "master", "meng": "master", "mba": "master",
	"phd": "phd", "ph.d.": "phd", "ph.d": "phd", "doctorate": "phd", "doctoral": "phd",
	"bachelor": "bachelor", "bachelors": "bachelor", "bachelor's": "bachelor", "bs": "bachelor", "bsc": "bachelor", "ba": "bachelor",
}

func canonicalDegree(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if d == "" {
		return ""
	}
	if alias, ok := degreeAliases[d]; ok {
		return alias
	}
	return d
}
