package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestPredicateBuilderSkipsAbsentFields(t *testing.T) {
	b := NewPredicateBuilder(FilterOptions{Conjunction: true}, 1)
	b.EqInt64("tenant_id", nil).MatchString("name", "").EqBool("enabled", nil)

	where, args := b.Build()
	assert.Empty(t, where)
	assert.Empty(t, args)
	assert.False(t, b.HasPredicates())
}

func TestPredicateBuilderConjunction(t *testing.T) {
	b := NewPredicateBuilder(FilterOptions{Conjunction: true}, 1)
	b.EqInt64("tenant_id", int64Ptr(1)).EqInt64("role_id", int64Ptr(2))

	where, args := b.Build()
	assert.Equal(t, "tenant_id = $1 AND role_id = $2", where)
	require.Len(t, args, 2)
	assert.Equal(t, int64(1), args[0])
	assert.Equal(t, int64(2), args[1])
}

func TestPredicateBuilderDisjunction(t *testing.T) {
	b := NewPredicateBuilder(FilterOptions{Conjunction: false}, 1)
	b.EqInt64("role_id", int64Ptr(2)).EqInt64("user_id", int64Ptr(4))

	where, _ := b.Build()
	assert.Equal(t, "role_id = $1 OR user_id = $2", where)
}

func TestPredicateBuilderStringModes(t *testing.T) {
	exact := NewPredicateBuilder(FilterOptions{Exact: true, Conjunction: true}, 1)
	exact.MatchString("name", "Admin")
	where, args := exact.Build()
	assert.Equal(t, "LOWER(name) = LOWER($1)", where)
	assert.Equal(t, []any{"Admin"}, args)

	partial := NewPredicateBuilder(FilterOptions{Exact: false, Conjunction: true}, 1)
	partial.MatchString("name", "Adm")
	where, args = partial.Build()
	assert.Equal(t, "name ILIKE $1", where)
	assert.Equal(t, []any{"%Adm%"}, args)
}

func TestPredicateBuilderIDScopeAlwaysConjoined(t *testing.T) {
	b := NewPredicateBuilder(FilterOptions{Conjunction: false, IDs: []int64{7, 9}}, 1)
	b.EqInt64("tenant_id", int64Ptr(1)).EqInt64("role_id", int64Ptr(2))

	where, args := b.Build()
	assert.Equal(t, "(tenant_id = $1 OR role_id = $2) AND id = ANY($3)", where)
	require.Len(t, args, 3)
	assert.Equal(t, []int64{7, 9}, args[2])
}

func TestPredicateBuilderIDScopeAlone(t *testing.T) {
	b := NewPredicateBuilder(FilterOptions{Conjunction: true, IDs: []int64{3}}, 1)
	where, args := b.Build()
	assert.Equal(t, "id = ANY($1)", where)
	require.Len(t, args, 1)
}

func TestPredicateBuilderStartArgOffset(t *testing.T) {
	b := NewPredicateBuilder(FilterOptions{Conjunction: true}, 4)
	b.EqInt64("user_id", int64Ptr(10))
	where, _ := b.Build()
	assert.Equal(t, "user_id = $4", where)
}
