package gridstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/gridstore/internal/pagestore"
	"github.com/lychee-technology/gridstore/internal/refgraph"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	store := pagestore.NewStore(nil, nil)
	graph := refgraph.New()
	return NewTable(store, graph)
}

func TestTableAddColumnRejectsDuplicateName(t *testing.T) {
	tbl := newTestTable(t)
	require.NoError(t, tbl.AddColumn("a", int64Values(1, 2)))
	err := tbl.AddColumn("a", int64Values(3))
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeConfiguration))
}

func TestTableAddColumnPreservesOrder(t *testing.T) {
	tbl := newTestTable(t)
	require.NoError(t, tbl.AddColumn("b", int64Values(1)))
	require.NoError(t, tbl.AddColumn("a", int64Values(2)))
	assert.Equal(t, []string{"b", "a"}, tbl.ColumnNames())
}

func TestTableDeleteColumnReclaimsExclusivePage(t *testing.T) {
	tbl := newTestTable(t)
	require.NoError(t, tbl.AddColumn("a", int64Values(1, 2)))
	col, _ := tbl.Column("a")
	fp := col.Pages()[0].Fingerprint

	require.NoError(t, tbl.DeleteColumn(context.Background(), "a"))
	_, ok := tbl.Column("a")
	assert.False(t, ok)
	_, ok = tbl.store.Lookup(fp)
	assert.False(t, ok)
}

func TestTableDeleteColumnMissingFails(t *testing.T) {
	tbl := newTestTable(t)
	err := tbl.DeleteColumn(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeConfiguration))
}

func TestTableCopySharesPagesWithoutElementCopy(t *testing.T) {
	tbl := newTestTable(t)
	require.NoError(t, tbl.AddColumn("a", int64Values(1, 2, 3)))

	cp, err := tbl.Copy()
	require.NoError(t, err)

	orig, _ := tbl.Column("a")
	copied, _ := cp.Column("a")
	assert.Same(t, orig.Pages()[0], copied.Pages()[0])
	assert.True(t, tbl.Equals(context.Background(), cp))
}

func TestTableConcatAppendsMatchingColumns(t *testing.T) {
	a := newTestTable(t)
	require.NoError(t, a.AddColumn("x", int64Values(1, 2)))

	b := newTestTable(t)
	require.NoError(t, b.AddColumn("x", int64Values(3, 4)))

	require.NoError(t, a.Concat(b))
	col, _ := a.Column("x")
	assert.Equal(t, 4, col.Length())
}

func TestTableConcatFailsOnSchemaMismatch(t *testing.T) {
	a := newTestTable(t)
	require.NoError(t, a.AddColumn("x", int64Values(1)))

	b := newTestTable(t)
	require.NoError(t, b.AddColumn("y", int64Values(2)))

	err := a.Concat(b)
	require.Error(t, err)
	assert.True(t, IsType(err, ErrorTypeConfiguration))
}

func TestTableRepeatThreeTimesTriplicatesRows(t *testing.T) {
	tbl := newTestTable(t)
	require.NoError(t, tbl.AddColumn("x", int64Values(1, 2)))

	out, err := tbl.Repeat(3)
	require.NoError(t, err)
	col, _ := out.Column("x")
	assert.Equal(t, 6, col.Length())
}

func TestTableRepeatZeroPreservesSchemaButEmpty(t *testing.T) {
	tbl := newTestTable(t)
	require.NoError(t, tbl.AddColumn("x", int64Values(1, 2)))

	out, err := tbl.Repeat(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, out.ColumnNames())
	col, _ := out.Column("x")
	assert.Equal(t, 0, col.Length())
}

func TestTableRepeatNegativeFails(t *testing.T) {
	tbl := newTestTable(t)
	require.NoError(t, tbl.AddColumn("x", int64Values(1)))
	_, err := tbl.Repeat(-1)
	require.Error(t, err)
}

func TestTableEqualsFalseOnDifferentData(t *testing.T) {
	a := newTestTable(t)
	require.NoError(t, a.AddColumn("x", int64Values(1, 2)))

	b := newTestTable(t)
	require.NoError(t, b.AddColumn("x", int64Values(9, 9)))

	assert.False(t, a.Equals(context.Background(), b))
}

func TestTableEqualsFallsBackToElementwiseWhenPageLayoutDiffers(t *testing.T) {
	a := newTestTable(t)
	require.NoError(t, a.AddColumn("x", int64Values(1, 2)))
	aCol, _ := a.Column("x")
	require.NoError(t, aCol.Extend(int64Values(3)))

	b := newTestTable(t)
	require.NoError(t, b.AddColumn("x", int64Values(1, 2, 3)))

	aCol, _ = a.Column("x")
	bCol, _ := b.Column("x")
	require.Len(t, aCol.Pages(), 2)
	require.Len(t, bCol.Pages(), 1)

	assert.True(t, a.Equals(context.Background(), b))
}

func TestTableClearPreservesSchemaButDropsRows(t *testing.T) {
	tbl := newTestTable(t)
	require.NoError(t, tbl.AddColumn("a", int64Values(1)))
	require.NoError(t, tbl.AddColumn("b", int64Values(2)))

	require.NoError(t, tbl.Clear(context.Background()))
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())

	colA, ok := tbl.Column("a")
	require.True(t, ok)
	assert.Equal(t, 0, colA.Length())
}
