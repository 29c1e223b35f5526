// internal/matching/reasoning.go
package matching

import (
	"fmt"

	"gradmatch-workers/internal/models"
)

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// explain builds the ordered, human-readable reasons for a match. The
// category reason always comes first.
func explain(c models.Candidate, m models.Match, p Policy) []string {
	rate := m.Program.Rate()
	f := m.Factors
	reasons := make([]string, 0, 8)

	switch m.Category {
	case models.CategoryReach:
		if rate < p.ReachAdmissionRate {
			reasons = append(reasons, fmt.Sprintf("Reach: admission rate of %s is highly selective", pct(rate)))
		} else {
			reasons = append(reasons, fmt.Sprintf("Reach: overall fit of %s is below %s", pct(m.OverallScore), pct(p.ReachScore)))
		}
	case models.CategorySafety:
		reasons = append(reasons, fmt.Sprintf("Safety: strong fit of %s with an admission rate of %s", pct(m.OverallScore), pct(rate)))
	default:
		reasons = append(reasons, fmt.Sprintf("Target: fit of %s with an admission rate of %s", pct(m.OverallScore), pct(rate)))
	}

	if c.GPA == 0 {
		reasons = append(reasons, "GPA not provided; academic fit scored as neutral")
	} else {
		reasons = append(reasons, fmt.Sprintf("GPA %.2f gives an academic fit of %s", c.GPA, pct(f.GPAMatch)))
	}

	switch {
	case len(c.ResearchInterests) == 0:
		reasons = append(reasons, "No research interests provided; research alignment scored as neutral")
	case len(m.Program.ResearchTags) == 0:
		reasons = append(reasons, "Program lists no research areas; research alignment scored as neutral")
	case f.ResearchAlignment > 0:
		reasons = append(reasons, fmt.Sprintf("Research interests overlap with program focus (%s)", pct(f.ResearchAlignment)))
	default:
		reasons = append(reasons, "Research interests do not overlap with program focus")
	}

	switch {
	case len(c.Preferences.Countries) == 0:
		reasons = append(reasons, "No country preference")
	case f.LocationPreference == 1.0:
		reasons = append(reasons, fmt.Sprintf("Located in a preferred country (%s)", m.University.Country))
	case f.LocationPreference == neutralScore:
		reasons = append(reasons, "University country unknown")
	default:
		reasons = append(reasons, fmt.Sprintf("Outside preferred countries (%s)", m.University.Country))
	}

	if m.Program.AnnualTuition != nil && c.Preferences.MaxTuition != nil {
		if f.FinancialFit == 1.0 {
			reasons = append(reasons, fmt.Sprintf("Tuition %.0f %s is within budget", *m.Program.AnnualTuition, m.Program.Currency))
		} else {
			reasons = append(reasons, fmt.Sprintf("Tuition %.0f %s exceeds budget of %.0f", *m.Program.AnnualTuition, m.Program.Currency, *c.Preferences.MaxTuition))
		}
	}

	if f.CVAlignment != nil {
		reasons = append(reasons, fmt.Sprintf("CV alignment %s", pct(*f.CVAlignment)))
	}
	if f.AIScore != nil {
		reasons = append(reasons, fmt.Sprintf("AI assessment %s", pct(*f.AIScore)))
	}
	if m.LowConfidence {
		reasons = append(reasons, fmt.Sprintf("Admission rate unknown; default of %s used, category is low confidence", pct(rate)))
	}
	return reasons
}
