package queries

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCatalogQuery(t *testing.T) {
	query, args := BuildCatalogQuery(Filter{})
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(query), "ORDER BY u.name, u.id, p.id"))

	query, args = BuildCatalogQuery(Filter{Countries: []string{" Canada", ""}, ProgramIDs: []string{"p2", "p1"}})
	assert.Contains(t, query, "LOWER(u.country) = ANY($1) AND p.id = ANY($2)")
	assert.Len(t, args, 2)
}

func TestFilter_Canonical(t *testing.T) {
	a := Filter{Countries: []string{"Germany", "canada"}, ProgramIDs: []string{"b", "a"}}
	b := Filter{Countries: []string{"CANADA ", "germany"}, ProgramIDs: []string{"a", "b"}}

	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.NotEqual(t, a.Canonical(), Filter{}.Canonical())
}
