package filter_test

import (
	"testing"

	"github.com/aretw0/parley/pkg/filter"
	"github.com/stretchr/testify/assert"
)

func TestTable_DeclarationOrder(t *testing.T) {
	table := filter.NewTable()
	table.DeclareState("A", "s1", "s2")
	table.DeclareState("A", "s3")
	table.DeclareIntent("A", "x", "i2", "i1")

	assert.Equal(t, []string{"s1", "s2", "s3"}, table.StateFilters("A"))
	assert.Equal(t, []string{"i2", "i1"}, table.IntentFilters("A", "x"))
	assert.Empty(t, table.StateFilters("B"))
	assert.Empty(t, table.IntentFilters("A", "y"))
}

func TestTable_ReturnsCopies(t *testing.T) {
	table := filter.NewTable()
	table.DeclareState("A", "s1")

	got := table.StateFilters("A")
	got[0] = "mutated"
	assert.Equal(t, []string{"s1"}, table.StateFilters("A"))
}

func TestTable_IDs(t *testing.T) {
	table := filter.NewTable()
	table.DeclareState("A", "b", "a")
	table.DeclareIntent("A", "x", "c", "a")
	table.DeclareIntent("B", "y", "d")

	assert.Equal(t, []string{"a", "b", "c", "d"}, table.IDs())
}

func TestRegistry_Missing(t *testing.T) {
	table := filter.NewTable()
	table.DeclareState("A", "known", "unknown")

	reg := filter.NewRegistry()
	rec := &recorder{}
	reg.Register("known", rec.filter("known", filterContinue))

	assert.Equal(t, []string{"unknown"}, reg.Missing(table))
	assert.Equal(t, []string{"known"}, reg.IDs())

	_, ok := reg.Lookup("unknown")
	assert.False(t, ok)
}
