// internal/matching/dedupe.go
package matching

import "gradmatch-workers/internal/models"

// Dedupe keeps the highest-scoring match per normalized university name.
// Ties keep the first one seen and survivors keep their input order, so
// Dedupe(Dedupe(x)) == Dedupe(x).
func Dedupe(matches []models.Match) []models.Match {
	best := make(map[string]int, len(matches))
	for i, m := range matches {
		key := NameKey(m.University.Name)
		if j, ok := best[key]; !ok || m.OverallScore > matches[j].OverallScore {
			best[key] = i
		}
	}

	out := make([]models.Match, 0, len(best))
	for i, m := range matches {
		if best[NameKey(m.University.Name)] == i {
			out = append(out, m)
		}
	}
	return out
}
