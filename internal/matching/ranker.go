// internal/matching/ranker.go
package matching

import (
	"sort"

	"github.com/google/uuid"

	"gradmatch-workers/internal/models"
)

var matchNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:gradmatch:match"))

// Scored is a pair together with its computed factors.
type Scored struct {
	Pair
	Factors models.MatchFactors
}

// Ranker turns scored pairs into categorized, ordered matches.
type Ranker struct {
	policy Policy
}

func NewRanker(policy Policy) *Ranker {
	return &Ranker{policy: policy}
}

// Overall is the weighted mean of the present sub-scores.
func (r *Ranker) Overall(f models.MatchFactors) float64 {
	w := r.policy.Weights
	sum := w.GPA*f.GPAMatch + w.Research*f.ResearchAlignment +
		w.Location*f.LocationPreference + w.Financial*f.FinancialFit
	total := w.GPA + w.Research + w.Location + w.Financial
	if f.CVAlignment != nil {
		sum += w.CV * *f.CVAlignment
		total += w.CV
	}
	if f.AIScore != nil {
		sum += w.AI * *f.AIScore
		total += w.AI
	}
	if total == 0 {
		return neutralScore
	}
	return clamp01(sum / total)
}

// Categorize assigns exactly one category. A very low admission rate makes a
// program reach whatever the fit.
func (r *Ranker) Categorize(overall, admissionRate float64) models.Category {
	p := r.policy
	switch {
	case admissionRate < p.ReachAdmissionRate || overall < p.ReachScore:
		return models.CategoryReach
	case overall >= p.SafetyScore && admissionRate >= p.SafetyAdmissionRate:
		return models.CategorySafety
	default:
		return models.CategoryTarget
	}
}

// Rank builds matches from scored pairs and sorts them by overall score
// descending, then admission rate ascending, then university name and
// program ID.
func (r *Ranker) Rank(candidate models.Candidate, scored []Scored) []models.Match {
	matches := make([]models.Match, 0, len(scored))
	for _, s := range scored {
		overall := r.Overall(s.Factors)
		category := r.Categorize(overall, s.Program.Rate())
		m := models.Match{
			ID:            MatchID(candidate.ID, s.Program.ID),
			CandidateRef:  candidate.ID,
			Program:       s.Program,
			University:    s.University,
			OverallScore:  overall,
			Category:      category,
			Factors:       s.Factors,
			LowConfidence: s.LowConfidence,
		}
		m.Reasoning = explain(candidate, m, r.policy)
		matches = append(matches, m)
	}
	sortMatches(matches)
	return matches
}

// MatchID is stable for a given candidate and program.
func MatchID(candidateID, programID string) string {
	return uuid.NewSHA1(matchNamespace, []byte(candidateID+"|"+programID)).String()
}

func sortMatches(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.OverallScore != b.OverallScore {
			return a.OverallScore > b.OverallScore
		}
		if ra, rb := a.Program.Rate(), b.Program.Rate(); ra != rb {
			return ra < rb
		}
		if na, nb := NameKey(a.University.Name), NameKey(b.University.Name); na != nb {
			return na < nb
		}
		return a.Program.ID < b.Program.ID
	})
}

type CategoryGroup struct {
	Category models.Category `json:"category"`
	Matches  []models.Match  `json:"matches"`
}

// GroupByCategory buckets matches in reach, target, safety order. Each
// bucket keeps the input order and empty buckets are kept.
func GroupByCategory(matches []models.Match) []CategoryGroup {
	groups := make([]CategoryGroup, len(models.Categories))
	index := make(map[models.Category]int, len(models.Categories))
	for i, c := range models.Categories {
		groups[i] = CategoryGroup{Category: c, Matches: []models.Match{}}
		index[c] = i
	}
	for _, m := range matches {
		if i, ok := index[m.Category]; ok {
			groups[i].Matches = append(groups[i].Matches, m)
		}
	}
	return groups
}

// CountByCategory reports how many matches fall in each category.
func CountByCategory(matches []models.Match) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}
	for _, m := range matches {
		counts[m.Category]++
	}
	return counts
}
