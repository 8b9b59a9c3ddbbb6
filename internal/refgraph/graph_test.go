package refgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableNode(key string) NodeID  { return NodeID{Kind: KindTable, Key: key} }
func columnNode(key string) NodeID { return NodeID{Kind: KindColumn, Key: key} }
func pageNode(key string) NodeID   { return NodeID{Kind: KindPage, Key: key} }

func TestLinkRejectsTableAsChild(t *testing.T) {
	g := New()
	err := g.Link(tableNode("t1"), tableNode("t2"))
	assert.Error(t, err)
}

func TestLinkAndInDegree(t *testing.T) {
	g := New()
	table := tableNode("t1")
	col := columnNode("c1")
	require.NoError(t, g.Link(table, col))
	assert.Equal(t, 1, g.InDegree(col))
	assert.Equal(t, 0, g.InDegree(table))
	assert.Equal(t, []NodeID{col}, g.OutEdges(table))
}

func TestUnlinkRemovesEdge(t *testing.T) {
	g := New()
	table := tableNode("t1")
	col := columnNode("c1")
	require.NoError(t, g.Link(table, col))
	require.NoError(t, g.Unlink(table, col))
	assert.Equal(t, 0, g.InDegree(col))
}

func TestUnlinkMissingEdgeFails(t *testing.T) {
	g := New()
	err := g.Unlink(tableNode("t1"), columnNode("c1"))
	assert.Error(t, err)
}

func TestUnlinkSubtreeReclaimsExclusivelyOwnedPage(t *testing.T) {
	g := New()
	table := tableNode("t1")
	col := columnNode("c1")
	page := pageNode("fp1")
	require.NoError(t, g.Link(table, col))
	require.NoError(t, g.Link(col, page))

	deleted := g.UnlinkSubtree(table)
	assert.Contains(t, deleted, table)
	assert.Contains(t, deleted, col)
	assert.Contains(t, deleted, page)
	assert.Equal(t, 0, g.InDegree(page))
}

func TestUnlinkSubtreeSparesSharedPage(t *testing.T) {
	g := New()
	tableA := tableNode("tA")
	tableB := tableNode("tB")
	colA := columnNode("cA")
	colB := columnNode("cB")
	page := pageNode("fpShared")

	require.NoError(t, g.Link(tableA, colA))
	require.NoError(t, g.Link(tableB, colB))
	require.NoError(t, g.Link(colA, page))
	require.NoError(t, g.Link(colB, page))

	deleted := g.UnlinkSubtree(tableA)
	assert.Contains(t, deleted, tableA)
	assert.Contains(t, deleted, colA)
	assert.NotContains(t, deleted, page)
	assert.Equal(t, 1, g.InDegree(page))
}

func TestUnlinkSubtreeOnLeafNode(t *testing.T) {
	g := New()
	page := pageNode("fpOnly")
	deleted := g.UnlinkSubtree(page)
	assert.Equal(t, []NodeID{page}, deleted)
}

func TestUnlinkOneReclaimsWithoutDeletingParent(t *testing.T) {
	g := New()
	col := columnNode("c1")
	page := pageNode("fp1")
	require.NoError(t, g.Link(col, page))

	reclaimed, err := g.UnlinkOne(col, page)
	require.NoError(t, err)
	assert.True(t, reclaimed)
	assert.Equal(t, 0, g.InDegree(page))

	// col itself must still be a valid, linkable node.
	page2 := pageNode("fp2")
	require.NoError(t, g.Link(col, page2))
	assert.Equal(t, 1, g.InDegree(page2))
}

func TestUnlinkOneSparesSharedPage(t *testing.T) {
	g := New()
	colA := columnNode("cA")
	colB := columnNode("cB")
	page := pageNode("fpShared")
	require.NoError(t, g.Link(colA, page))
	require.NoError(t, g.Link(colB, page))

	reclaimed, err := g.UnlinkOne(colA, page)
	require.NoError(t, err)
	assert.False(t, reclaimed)
	assert.Equal(t, 1, g.InDegree(page))
}

func TestUnlinkOneMissingEdgeFails(t *testing.T) {
	g := New()
	_, err := g.UnlinkOne(columnNode("c1"), pageNode("fp1"))
	assert.Error(t, err)
}
