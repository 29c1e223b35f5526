// internal/workers/data-access/load-university-catalog/queries/catalog.go
package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gradmatch-workers/internal/models"

	"github.com/lib/pq"
)

// Filter narrows the catalog. Empty fields match everything.
type Filter struct {
	Countries  []string `json:"countries,omitempty"`
	ProgramIDs []string `json:"programIds,omitempty"`
}

// Canonical returns a stable string form used as a cache identity.
func (f Filter) Canonical() string {
	countries := canonicalList(f.Countries, true)
	programs := canonicalList(f.ProgramIDs, false)
	return "countries=" + strings.Join(countries, ",") + ";programs=" + strings.Join(programs, ",")
}

func canonicalList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

const baseCatalogQuery = `
	SELECT u.id, u.name, u.city, u.country, u.website_url, u.acceptance_rate, u.ranking_global,
	       p.id, p.name, p.degree_level, p.duration_months, p.admission_rate,
	       p.annual_tuition, p.currency, p.research_tags
	FROM universities u
	LEFT JOIN programs p ON p.university_id = u.id AND p.is_active = TRUE`

// BuildCatalogQuery returns the SQL and positional args for f. Rows are
// ordered so that load order is stable between runs.
func BuildCatalogQuery(f Filter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	if countries := canonicalList(f.Countries, true); len(countries) > 0 {
		args = append(args, pq.Array(countries))
		where = append(where, fmt.Sprintf("LOWER(u.country) = ANY($%d)", len(args)))
	}
	if ids := canonicalList(f.ProgramIDs, false); len(ids) > 0 {
		args = append(args, pq.Array(ids))
		where = append(where, fmt.Sprintf("p.id = ANY($%d)", len(args)))
	}

	query := baseCatalogQuery
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY u.name, u.id, p.id"
	return query, args
}

// FetchCatalog loads universities with their active programs.
func FetchCatalog(ctx context.Context, db *sql.DB, f Filter) ([]models.CatalogEntry, error) {
	query, args := BuildCatalogQuery(f)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		entries []models.CatalogEntry
		index   = map[string]int{}
	)

	for rows.Next() {
		var (
			u        models.University
			city     sql.NullString
			country  sql.NullString
			website  sql.NullString
			accept   sql.NullFloat64
			ranking  sql.NullInt64
			pID      sql.NullString
			pName    sql.NullString
			degree   sql.NullString
			duration sql.NullInt64
			admit    sql.NullFloat64
			tuition  sql.NullFloat64
			currency sql.NullString
			tags     []byte
		)

		if err := rows.Scan(
			&u.ID, &u.Name, &city, &country, &website, &accept, &ranking,
			&pID, &pName, &degree, &duration, &admit, &tuition, &currency, &tags,
		); err != nil {
			return nil, err
		}

		i, seen := index[u.ID]
		if !seen {
			u.City = city.String
			u.Country = country.String
			u.WebsiteURL = website.String
			if accept.Valid {
				u.AcceptanceRate = models.Float64Ptr(accept.Float64)
			}
			if ranking.Valid {
				u.RankingGlobal = models.IntPtr(int(ranking.Int64))
			}
			entries = append(entries, models.CatalogEntry{University: u, Programs: []models.Program{}})
			i = len(entries) - 1
			index[u.ID] = i
		}

		if !pID.Valid {
			continue
		}

		p := models.Program{
			ID:             pID.String,
			UniversityID:   u.ID,
			Name:           pName.String,
			Degree:         degree.String,
			DurationMonths: int(duration.Int64),
			Currency:       currency.String,
		}
		if admit.Valid {
			p.AdmissionRate = models.Float64Ptr(admit.Float64)
		}
		if tuition.Valid {
			p.AnnualTuition = models.Float64Ptr(tuition.Float64)
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &p.ResearchTags); err != nil {
				p.ResearchTags = nil
			}
		}
		entries[i].Programs = append(entries[i].Programs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
