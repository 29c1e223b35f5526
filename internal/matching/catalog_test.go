package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradmatch-workers/internal/models"
)

func TestLoadCatalog_DedupesByName(t *testing.T) {
	entries := []models.CatalogEntry{
		{
			University: models.University{ID: "u1", Name: "MIT"},
			Programs:   []models.Program{{ID: "p1", Name: "EECS"}},
		},
		{
			University: models.University{ID: "u2", Name: " mit ", Country: "USA", City: "Cambridge"},
			Programs:   []models.Program{{ID: "p2", Name: "Media Arts"}},
		},
		{
			University: models.University{ID: "u3", Name: "Mit", Country: "USA"},
			Programs:   []models.Program{{ID: "p3"}},
		},
	}

	cat := LoadCatalog(entries, DefaultPolicy())

	unis := cat.Universities()
	require.Len(t, unis, 1)
	assert.Equal(t, "u2", unis[0].ID)
	assert.Equal(t, "mit", unis[0].Name)

	pairs := cat.AllPrograms()
	require.Len(t, pairs, 3)
	for i, id := range []string{"p1", "p2", "p3"} {
		assert.Equal(t, id, pairs[i].Program.ID)
		assert.Equal(t, "u2", pairs[i].Program.UniversityID)
		assert.Equal(t, "u2", pairs[i].University.ID)
	}
}

func TestLoadCatalog_CollisionMergesProgramsByID(t *testing.T) {
	entries := []models.CatalogEntry{
		{
			University: models.University{ID: "u1", Name: "ETH Zurich"},
			Programs:   []models.Program{{ID: "p1", Name: "Robotics"}, {ID: "p2", Name: "Data Science"}},
		},
		{
			University: models.University{ID: "u2", Name: "eth zurich", City: "Zurich"},
			Programs:   []models.Program{{ID: "p2", Name: "Data Science (dup)"}, {ID: "p3", Name: "Physics"}},
		},
	}

	cat := LoadCatalog(entries, DefaultPolicy())

	pairs := cat.AllPrograms()
	require.Len(t, pairs, 3)
	assert.Equal(t, "p1", pairs[0].Program.ID)
	assert.Equal(t, "Data Science", pairs[1].Program.Name)
	assert.Equal(t, "p3", pairs[2].Program.ID)
}

func TestLoadCatalog_InvalidRateDoesNotWinCollision(t *testing.T) {
	entries := []models.CatalogEntry{
		{University: models.University{ID: "valid", Name: "Delft", City: "Delft"}},
		{University: models.University{ID: "bogus", Name: "DELFT", AcceptanceRate: models.Float64Ptr(250), Country: "Netherlands"}},
		{University: models.University{ID: "bogus2", Name: "delft", AcceptanceRate: models.Float64Ptr(-3)}},
	}

	cat := LoadCatalog(entries, DefaultPolicy())

	unis := cat.Universities()
	require.Len(t, unis, 1)
	assert.Equal(t, "valid", unis[0].ID)
	assert.Nil(t, unis[0].AcceptanceRate)
}

func TestLoadCatalog_TieKeepsFirstSeen(t *testing.T) {
	entries := []models.CatalogEntry{
		{University: models.University{ID: "first", Name: "Oxford", Country: "UK"}},
		{University: models.University{ID: "second", Name: "OXFORD", City: "Oxford"}},
	}

	cat := LoadCatalog(entries, DefaultPolicy())

	require.Len(t, cat.Universities(), 1)
	assert.Equal(t, "first", cat.Universities()[0].ID)
	assert.Zero(t, cat.Len())
}

func TestLoadCatalog_DropsBlankNames(t *testing.T) {
	cat := LoadCatalog([]models.CatalogEntry{
		{University: models.University{ID: "x", Name: "  "}, Programs: []models.Program{{ID: "p"}}},
	}, DefaultPolicy())

	assert.Zero(t, cat.Len())
	assert.Empty(t, cat.Universities())
}

func TestLoadCatalog_NormalizesRates(t *testing.T) {
	entries := []models.CatalogEntry{
		{
			University: models.University{ID: "u1", Name: "Toronto", AcceptanceRate: models.Float64Ptr(43)},
			Programs: []models.Program{
				{ID: "percent", AdmissionRate: models.Float64Ptr(12)},
				{ID: "fraction", AdmissionRate: models.Float64Ptr(0.08)},
				{ID: "inherit"},
				{ID: "bogus", AdmissionRate: models.Float64Ptr(250)},
			},
		},
		{
			University: models.University{ID: "u2", Name: "Unknown U"},
			Programs:   []models.Program{{ID: "default", ResearchTags: []string{" AI ", "ai"}, Degree: " MS "}},
		},
	}

	cat := LoadCatalog(entries, DefaultPolicy())
	pairs := cat.AllPrograms()
	require.Len(t, pairs, 5)

	byID := map[string]Pair{}
	for _, p := range pairs {
		byID[p.Program.ID] = p
	}

	assert.InDelta(t, 0.43, *byID["inherit"].University.AcceptanceRate, 1e-9)
	assert.InDelta(t, 0.12, byID["percent"].Program.Rate(), 1e-9)
	assert.InDelta(t, 0.08, byID["fraction"].Program.Rate(), 1e-9)
	assert.InDelta(t, 0.43, byID["inherit"].Program.Rate(), 1e-9)
	assert.InDelta(t, 0.43, byID["bogus"].Program.Rate(), 1e-9)
	assert.False(t, byID["inherit"].LowConfidence)

	def := byID["default"]
	assert.InDelta(t, 0.3, def.Program.Rate(), 1e-9)
	assert.True(t, def.LowConfidence)
	assert.Equal(t, []string{"ai"}, def.Program.ResearchTags)
	assert.Equal(t, "ms", def.Program.Degree)
}

func TestLoadCatalog_PreservesLoadOrder(t *testing.T) {
	entries := []models.CatalogEntry{
		{University: models.University{ID: "b", Name: "B"}, Programs: []models.Program{{ID: "b1"}, {ID: "b2"}}},
		{University: models.University{ID: "a", Name: "A"}, Programs: []models.Program{{ID: "a1"}}},
	}

	pairs := LoadCatalog(entries, DefaultPolicy()).AllPrograms()

	ids := make([]string, 0, len(pairs))
	for _, p := range pairs {
		ids = append(ids, p.Program.ID)
	}
	assert.Equal(t, []string{"b1", "b2", "a1"}, ids)
}

func TestLoadCatalog_DoesNotAliasInput(t *testing.T) {
	rate := 40.0
	entries := []models.CatalogEntry{
		{University: models.University{ID: "u", Name: "U"}, Programs: []models.Program{{ID: "p", AdmissionRate: &rate}}},
	}

	cat := LoadCatalog(entries, DefaultPolicy())
	rate = 90

	assert.InDelta(t, 0.4, cat.AllPrograms()[0].Program.Rate(), 1e-9)
	assert.Empty(t, entries[0].Programs[0].UniversityID)
}
