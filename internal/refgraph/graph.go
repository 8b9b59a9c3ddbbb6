// Package refgraph implements the Reference Graph: a labelled DAG over
// Table, Column, and Page nodes whose edges encode ownership. A node's
// in-degree reaching zero during unlink_subtree marks it (and, by
// breadth-first propagation, everything it alone keeps alive) reclaimable.
package refgraph

import (
	"fmt"
	"sync"

	"github.com/lychee-technology/gridstore/internal/collections"
)

// Kind distinguishes the three node classes the graph tracks. Tables never
// appear as children of an edge, which is what keeps the graph acyclic.
type Kind int

const (
	KindTable Kind = iota
	KindColumn
	KindPage
)

// NodeID identifies a node by its kind plus an opaque key (a Table/Column
// id string, or a hex-encoded Page fingerprint).
type NodeID struct {
	Kind Kind
	Key  string
}

func (n NodeID) String() string {
	return fmt.Sprintf("%d:%s", n.Kind, n.Key)
}

// Graph is the process-local reference graph. It is safe for concurrent
// use; Table/Column mutations from user code serialize through it.
type Graph struct {
	mu       sync.Mutex
	children map[NodeID]*collections.Set[NodeID] // out-edges
	parents  map[NodeID]*collections.Set[NodeID] // in-edges (for in-degree)
}

// New returns an empty Reference Graph.
func New() *Graph {
	return &Graph{
		children: make(map[NodeID]*collections.Set[NodeID]),
		parents:  make(map[NodeID]*collections.Set[NodeID]),
	}
}

// Link adds an edge parent→child. Multi-edges are disallowed: linking an
// already-present edge is a no-op. Tables may never be a child.
func (g *Graph) Link(parent, child NodeID) error {
	if child.Kind == KindTable {
		return fmt.Errorf("refgraph: table %s cannot be a child (graph must stay acyclic)", child)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.children[parent] == nil {
		g.children[parent] = collections.NewSet[NodeID]()
	}
	if g.parents[child] == nil {
		g.parents[child] = collections.NewSet[NodeID]()
	}
	g.children[parent].Add(child)
	g.parents[child].Add(parent)
	// Ensure the parent itself is a tracked node even with no inbound edge.
	if _, ok := g.parents[parent]; !ok {
		g.parents[parent] = collections.NewSet[NodeID]()
	}
	return nil
}

// Unlink removes the edge parent→child. Returns an error if the edge does
// not exist (spec §7, Graph errors).
func (g *Graph) Unlink(parent, child NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unlinkLocked(parent, child)
}

func (g *Graph) unlinkLocked(parent, child NodeID) error {
	kids := g.children[parent]
	if kids == nil || !kids.Contains(child) {
		return fmt.Errorf("refgraph: no edge %s -> %s", parent, child)
	}
	kids.Remove(child)
	if g.parents[child] != nil {
		g.parents[child].Remove(parent)
	}
	return nil
}

// UnlinkOne removes the single edge parent→child, leaving parent's own
// node tracking untouched (unlike UnlinkSubtree, which also deletes the
// root it is called on). If child's in-degree reaches zero, child is
// deleted from the graph and reclaimed is true — the caller is expected
// to release the corresponding Page Store backing. Used by Managed
// Column wholesale-replacement (slice/index assignment), where the
// column's own identity must survive even as its page list changes.
func (g *Graph) UnlinkOne(parent, child NodeID) (reclaimed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.unlinkLocked(parent, child); err != nil {
		return false, err
	}
	if g.inDegreeLocked(child) == 0 {
		delete(g.children, child)
		delete(g.parents, child)
		return true, nil
	}
	return false, nil
}

// InDegree returns the number of inbound edges to n. A Table's in-degree
// reaching zero means the user holds no handle to it; a Page's in-degree
// reaching zero means it is reclaimable.
func (g *Graph) InDegree(n NodeID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s := g.parents[n]; s != nil {
		return s.Size()
	}
	return 0
}

// OutEdges returns n's children.
func (g *Graph) OutEdges(n NodeID) []NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s := g.children[n]; s != nil {
		return s.ToSlice()
	}
	return nil
}

// UnlinkSubtree performs a breadth-first traversal from n: every edge from
// n to its children is removed, and for each child whose in-degree drops to
// zero, the node is deleted from the graph and its own children are
// enqueued for the same treatment. Pages that remain reachable through
// another owner survive. Returns the set of nodes actually deleted
// (typically consumed by the caller to release their Page Store backing).
func (g *Graph) UnlinkSubtree(n NodeID) []NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var deleted []NodeID
	queue := []NodeID{n}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		kids := g.children[cur]
		var kidList []NodeID
		if kids != nil {
			kidList = kids.ToSlice()
		}
		for _, child := range kidList {
			_ = g.unlinkLocked(cur, child)
			if g.inDegreeLocked(child) == 0 {
				queue = append(queue, child)
			}
		}

		// cur itself is only deleted if something other than the root
		// unlink drove its in-degree to zero, or it is the root being
		// explicitly removed.
		if cur == n || g.inDegreeLocked(cur) == 0 {
			delete(g.children, cur)
			delete(g.parents, cur)
			deleted = append(deleted, cur)
		}
	}
	return deleted
}

func (g *Graph) inDegreeLocked(n NodeID) int {
	if s := g.parents[n]; s != nil {
		return s.Size()
	}
	return 0
}
