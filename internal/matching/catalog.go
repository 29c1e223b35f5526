// internal/matching/catalog.go
package matching

import (
	"strings"

	"gradmatch-workers/internal/models"
)

// Pair is one university x program combination to be scored.
// LowConfidence is set when the admission rate is the policy default.
type Pair struct {
	University    models.University
	Program       models.Program
	LowConfidence bool
}

// Catalog is a read-only, de-duplicated snapshot of universities and their
// programs. Iteration follows load order.
type Catalog struct {
	universities []models.University
	pairs        []Pair
}

// LoadCatalog de-duplicates entries by normalized university name and
// normalizes every rate to a fraction. On a name collision the university
// record with more populated optional fields wins (ties keep the first one
// seen), and the programs of every colliding entry are attached to it, unique
// by program ID. Entries with a blank name are dropped.
func LoadCatalog(entries []models.CatalogEntry, policy Policy) *Catalog {
	type merged struct {
		university models.University
		programs   []models.Program
		seen       map[string]bool
	}

	index := make(map[string]int, len(entries))
	kept := make([]*merged, 0, len(entries))

	for _, e := range entries {
		key := NameKey(e.University.Name)
		if key == "" {
			continue
		}
		u := normalizeUniversity(e.University)

		i, ok := index[key]
		if !ok {
			index[key] = len(kept)
			i = len(kept)
			kept = append(kept, &merged{university: u, seen: map[string]bool{}})
		} else if populatedFields(u) > populatedFields(kept[i].university) {
			kept[i].university = u
		}

		m := kept[i]
		for _, p := range e.Programs {
			if id := strings.TrimSpace(p.ID); id != "" {
				if m.seen[id] {
					continue
				}
				m.seen[id] = true
			}
			m.programs = append(m.programs, p)
		}
	}

	cat := &Catalog{universities: make([]models.University, 0, len(kept))}
	for _, m := range kept {
		cat.universities = append(cat.universities, m.university)
		for _, p := range m.programs {
			cat.pairs = append(cat.pairs, newPair(m.university, p, policy.DefaultAdmissionRate))
		}
	}
	return cat
}

// NameKey is the case-insensitive identity of a university.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AllPrograms returns every pair in load order. The slice is a copy.
func (c *Catalog) AllPrograms() []Pair {
	out := make([]Pair, len(c.pairs))
	copy(out, c.pairs)
	return out
}

func (c *Catalog) Universities() []models.University {
	out := make([]models.University, len(c.universities))
	copy(out, c.universities)
	return out
}

// Len is the number of programs in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.pairs)
}

// populatedFields counts optional fields on a normalized university.
func populatedFields(u models.University) int {
	n := 0
	for _, s := range []string{u.City, u.Country, u.WebsiteURL} {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	if u.AcceptanceRate != nil {
		n++
	}
	if u.RankingGlobal != nil {
		n++
	}
	return n
}

func normalizeUniversity(u models.University) models.University {
	u.Name = strings.TrimSpace(u.Name)
	u.Country = strings.TrimSpace(u.Country)
	u.AcceptanceRate = normalizeRatePtr(u.AcceptanceRate)
	return u
}

func newPair(u models.University, p models.Program, defaultRate float64) Pair {
	p.UniversityID = u.ID
	p.Degree = strings.ToLower(strings.TrimSpace(p.Degree))
	p.ResearchTags = normalizeSet(p.ResearchTags)
	if p.AnnualTuition != nil && *p.AnnualTuition < 0 {
		p.AnnualTuition = nil
	}

	pair := Pair{University: u}
	p.AdmissionRate = normalizeRatePtr(p.AdmissionRate)
	switch {
	case p.AdmissionRate != nil:
	case u.AcceptanceRate != nil:
		p.AdmissionRate = models.Float64Ptr(*u.AcceptanceRate)
	default:
		p.AdmissionRate = models.Float64Ptr(defaultRate)
		pair.LowConfidence = true
	}
	pair.Program = p
	return pair
}

func normalizeRatePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	rate, ok := NormalizeRate(*v)
	if !ok {
		return nil
	}
	return models.Float64Ptr(rate)
}
