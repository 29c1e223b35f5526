// internal/matching/scorer.go
package matching

import (
	"math"
	"strings"

	"gradmatch-workers/internal/models"
)

const neutralScore = 0.5

// Scorer computes MatchFactors for one candidate. The candidate's sets are
// indexed once so that scoring a large catalog stays linear.
type Scorer struct {
	candidate models.Candidate
	interests map[string]struct{}
	countries map[string]struct{}
	cvTerms   map[string]struct{}
}

func NewScorer(c models.Candidate) *Scorer {
	s := &Scorer{
		candidate: c,
		interests: toSet(c.ResearchInterests),
		countries: toSet(c.Preferences.Countries),
	}
	if c.CV != nil {
		s.cvTerms = toSet(c.CV.Keywords, c.CV.Skills, c.ResearchInterests)
	}
	return s
}

// Score is a convenience for scoring a single pair.
func Score(c models.Candidate, u models.University, p models.Program, aiScore *float64) models.MatchFactors {
	return NewScorer(c).Score(u, p, aiScore)
}

// Score is pure and deterministic. A nil aiScore, or one that is not a
// finite number, is left out of the factors.
func (s *Scorer) Score(u models.University, p models.Program, aiScore *float64) models.MatchFactors {
	f := models.MatchFactors{
		GPAMatch:           s.gpaMatch(p),
		ResearchAlignment:  s.researchAlignment(p),
		LocationPreference: s.locationPreference(u),
		FinancialFit:       s.financialFit(p),
	}
	if s.candidate.CV != nil {
		cv := s.cvAlignment(p)
		f.CVAlignment = &cv
	}
	if aiScore != nil && !math.IsNaN(*aiScore) && !math.IsInf(*aiScore, 0) {
		ai := clamp01(*aiScore)
		f.AIScore = &ai
	}
	return f
}

// gpaMatch blends the raw GPA ratio (70%) with the ratio discounted by
// competitiveness, 1 - admissionRate (30%).
func (s *Scorer) gpaMatch(p models.Program) float64 {
	if s.candidate.GPA == 0 {
		return neutralScore
	}
	ratio := clamp01(s.candidate.GPA / maxGPA)
	competitiveness := 1 - clamp01(p.Rate())
	return clamp01(0.7*ratio + 0.3*ratio*(1-competitiveness))
}

// researchAlignment is the Jaccard index of interests and program tags.
func (s *Scorer) researchAlignment(p models.Program) float64 {
	if len(s.interests) == 0 || len(p.ResearchTags) == 0 {
		return neutralScore
	}
	tags := toSet(p.ResearchTags)
	inter := 0
	for t := range tags {
		if _, ok := s.interests[t]; ok {
			inter++
		}
	}
	union := len(s.interests) + len(tags) - inter
	return clamp01(float64(inter) / float64(union))
}

func (s *Scorer) locationPreference(u models.University) float64 {
	if len(s.countries) == 0 {
		return 1.0
	}
	country := strings.ToLower(strings.TrimSpace(u.Country))
	if country == "" {
		return neutralScore
	}
	if _, ok := s.countries[country]; ok {
		return 1.0
	}
	return 0.3
}

// financialFit decays linearly from 1.0 at the cap to 0.2 at twice the cap.
func (s *Scorer) financialFit(p models.Program) float64 {
	limit := s.candidate.Preferences.MaxTuition
	if p.AnnualTuition == nil || limit == nil || *limit <= 0 {
		return 1.0
	}
	tuition, budget := *p.AnnualTuition, *limit
	if tuition <= budget {
		return 1.0
	}
	over := math.Min(1, (tuition-budget)/budget)
	return math.Max(0.2, 1-0.8*over)
}

func (s *Scorer) cvAlignment(p models.Program) float64 {
	coverage := neutralScore
	if len(p.ResearchTags) > 0 {
		hits := 0
		for _, t := range p.ResearchTags {
			if _, ok := s.cvTerms[t]; ok {
				hits++
			}
		}
		coverage = float64(hits) / float64(len(p.ResearchTags))
	}
	strength := s.candidate.CV.OverallScore
	if strength == 0 {
		strength = neutralScore
	}
	return clamp01(0.6*coverage + 0.4*strength)
}

func toSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, l := range lists {
		for _, v := range l {
			set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
		}
	}
	delete(set, "")
	return set
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
