package gridstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/lychee-technology/gridstore/internal/idgen"
	"github.com/lychee-technology/gridstore/internal/pagestore"
	"github.com/lychee-technology/gridstore/internal/refgraph"
)

// Table is an ordered collection of Managed Columns sharing a common
// length contract (spec §4.4). Column order is preserved independent of
// Go map iteration order, following the teacher's ordered-name-to-
// definition registry pattern.
type Table struct {
	ID string

	mu           sync.RWMutex
	orderedNames []string
	columns      map[string]*Column

	store *pagestore.Store
	graph *refgraph.Graph
}

// NewTable allocates an empty Table. No graph edge is made here: the table
// appears in graph once a column is linked under it.
func NewTable(store *pagestore.Store, graph *refgraph.Graph) *Table {
	return &Table{
		ID:           idgen.NewTableID(),
		orderedNames: nil,
		columns:      make(map[string]*Column),
		store:        store,
		graph:        graph,
	}
}

func (t *Table) node() refgraph.NodeID {
	return refgraph.NodeID{Kind: refgraph.KindTable, Key: t.ID}
}

// ColumnNames returns the table's column names in declaration order.
func (t *Table) ColumnNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.orderedNames))
	copy(out, t.orderedNames)
	return out
}

// Column returns the named column, or false if it does not exist.
func (t *Table) Column(name string) (*Column, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.columns[name]
	return c, ok
}

// AddColumn creates a Managed Column named name and extends it from
// source (spec §4.4 add_column). Fails if name already exists.
func (t *Table) AddColumn(name string, source any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.columns[name]; exists {
		return NewConfigurationError("column_exists", fmt.Sprintf("add_column: column %q already exists", name)).WithComponent("table")
	}

	col := NewColumn(t.store, t.graph)
	if err := t.graph.Link(t.node(), col.node()); err != nil {
		return NewGraphError("link_failed", err.Error()).WithComponent("table").WithCause(err)
	}
	if source != nil {
		if err := col.Extend(source); err != nil {
			return err
		}
	}

	t.columns[name] = col
	t.orderedNames = append(t.orderedNames, name)
	return nil
}

// DeleteColumn unlinks the named column from the table, triggering
// subtree reclamation for any pages it alone kept alive (spec §4.4
// delete_column).
func (t *Table) DeleteColumn(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	col, exists := t.columns[name]
	if !exists {
		return NewConfigurationError("column_missing", fmt.Sprintf("delete_column: no such column %q", name)).WithComponent("table")
	}

	if err := t.graph.Unlink(t.node(), col.node()); err != nil {
		return NewGraphError("unlink_failed", err.Error()).WithComponent("table").WithCause(err)
	}
	if err := col.unlink(ctx); err != nil {
		return err
	}

	delete(t.columns, name)
	t.orderedNames = removeName(t.orderedNames, name)
	return nil
}

func removeName(names []string, target string) []string {
	out := names[:0:0]
	for _, n := range names {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

// Copy creates a new Table whose columns each reference the source's page
// list, without copying element bytes (spec §4.4 copy).
func (t *Table) Copy() (*Table, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := NewTable(t.store, t.graph)
	for _, name := range t.orderedNames {
		src := t.columns[name]
		dst := NewColumn(t.store, t.graph)
		if err := t.graph.Link(out.node(), dst.node()); err != nil {
			return nil, NewGraphError("link_failed", err.Error()).WithComponent("table").WithCause(err)
		}
		if err := src.copyInto(dst); err != nil {
			return nil, err
		}
		out.columns[name] = dst
		out.orderedNames = append(out.orderedNames, name)
	}
	return out, nil
}

// CompatibilityCheck reports an error if t and other differ in column
// set, order, or element type (spec §4.4 compatibility_check).
func (t *Table) CompatibilityCheck(other *Table) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	if len(t.orderedNames) != len(other.orderedNames) {
		return NewConfigurationError("schema_mismatch",
			fmt.Sprintf("compatibility_check: column count %d != %d", len(t.orderedNames), len(other.orderedNames))).WithComponent("table")
	}
	for i, name := range t.orderedNames {
		otherName := other.orderedNames[i]
		if name != otherName {
			return NewConfigurationError("schema_mismatch",
				fmt.Sprintf("compatibility_check: column %d is %q, expected %q", i, otherName, name)).WithComponent("table")
		}
		a := t.columns[name]
		b := other.columns[name]
		if a.hasType && b.hasType && a.ElementType != b.ElementType {
			return NewTypeError("schema_mismatch",
				fmt.Sprintf("compatibility_check: column %q type %v != %v", name, a.ElementType, b.ElementType)).WithComponent("table")
		}
	}
	return nil
}

// Concat appends other's elements onto t's matching columns, after a
// compatibility check (spec §4.4 concat).
func (t *Table) Concat(other *Table) error {
	if err := t.CompatibilityCheck(other); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	for _, name := range t.orderedNames {
		if err := t.columns[name].Extend(other.columns[name]); err != nil {
			return err
		}
	}
	return nil
}

// Repeat returns a new table equivalent to k-1 self-concatenations
// following a copy (spec §4.4 repeat). Repeat(0) returns an empty table
// preserving t's schema (no rows, same column set and types).
func (t *Table) Repeat(k int) (*Table, error) {
	if k < 0 {
		return nil, NewConfigurationError("negative_repeat", fmt.Sprintf("repeat: k must be non-negative, got %d", k)).WithComponent("table")
	}

	out, err := t.Copy()
	if err != nil {
		return nil, err
	}

	if k == 0 {
		return out.emptiedSchemaCopy()
	}

	for i := 1; i < k; i++ {
		if err := out.Concat(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// emptiedSchemaCopy returns a table with the same columns (names, order,
// element types) as t but zero rows, used by Repeat(0).
func (t *Table) emptiedSchemaCopy() (*Table, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := NewTable(t.store, t.graph)
	for _, name := range t.orderedNames {
		col := NewColumn(t.store, t.graph)
		col.ElementType = t.columns[name].ElementType
		col.hasType = t.columns[name].hasType
		if err := t.graph.Link(out.node(), col.node()); err != nil {
			return nil, NewGraphError("link_failed", err.Error()).WithComponent("table").WithCause(err)
		}
		out.columns[name] = col
		out.orderedNames = append(out.orderedNames, name)
	}
	return out, nil
}

// Equals reports structural equality with other (spec §3: same column
// names, types, and element-wise values). Per spec §4.4, the matching
// page-fingerprint sequence is only a short-circuit optimization, not the
// sole path: columns built through different Extend histories can hold
// identical values over a different page layout (e.g. two Extend calls
// vs. one), so a fingerprint mismatch falls back to an element-wise
// comparison before returning false.
func (t *Table) Equals(ctx context.Context, other *Table) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	if len(t.orderedNames) != len(other.orderedNames) {
		return false
	}
	for i, name := range t.orderedNames {
		if other.orderedNames[i] != name {
			return false
		}
		if !columnsEqual(ctx, t.columns[name], other.columns[name]) {
			return false
		}
	}
	return true
}

// columnsEqual short-circuits when a and b share the same page-fingerprint
// sequence; otherwise it falls back to comparing every element by value,
// since differing page layouts can still hold identical data.
func columnsEqual(ctx context.Context, a, b *Column) bool {
	ap, bp := a.Pages(), b.Pages()
	if len(ap) == len(bp) {
		samePages := true
		for i := range ap {
			if ap[i].Fingerprint != bp[i].Fingerprint {
				samePages = false
				break
			}
		}
		if samePages {
			return true
		}
	}

	length := a.Length()
	if length != b.Length() {
		return false
	}
	if a.hasType != b.hasType || (a.hasType && a.ElementType != b.ElementType) {
		return false
	}
	for i := 0; i < length; i++ {
		av, err := a.Index(ctx, i)
		if err != nil {
			return false
		}
		bv, err := b.Index(ctx, i)
		if err != nil {
			return false
		}
		if !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}

// Clear replaces every column with a fresh, empty Managed Column of the
// same element type, reclaiming pages no longer referenced elsewhere.
// The schema (column names, order, element types) survives; only the
// data is discarded. Supplemented from the original tablite
// implementation's table.clear().
func (t *Table) Clear(ctx context.Context) error {
	t.mu.Lock()
	names := make([]string, len(t.orderedNames))
	copy(names, t.orderedNames)
	t.mu.Unlock()

	for _, name := range names {
		t.mu.Lock()
		old := t.columns[name]
		t.mu.Unlock()

		if err := t.graph.Unlink(t.node(), old.node()); err != nil {
			return NewGraphError("unlink_failed", err.Error()).WithComponent("table").WithCause(err)
		}
		if err := old.unlink(ctx); err != nil {
			return err
		}

		fresh := NewColumn(t.store, t.graph)
		fresh.ElementType = old.ElementType
		fresh.hasType = old.hasType
		if err := t.graph.Link(t.node(), fresh.node()); err != nil {
			return NewGraphError("link_failed", err.Error()).WithComponent("table").WithCause(err)
		}

		t.mu.Lock()
		t.columns[name] = fresh
		t.mu.Unlock()
	}
	return nil
}
