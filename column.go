package gridstore

import (
	"context"
	"fmt"

	"github.com/lychee-technology/gridstore/internal/idgen"
	"github.com/lychee-technology/gridstore/internal/pagestore"
	"github.com/lychee-technology/gridstore/internal/rangeset"
	"github.com/lychee-technology/gridstore/internal/refgraph"
)

// Column is a Managed Column (spec §4.3): an ordered list of Pages sharing
// a single element type, backed by the Page Store for content and the
// Reference Graph for ownership bookkeeping. A Column only ever grows, by
// extend, or is replaced wholesale by slice/copy -- it is never mutated in
// place.
type Column struct {
	ID          string
	ElementType pagestore.ElementType
	hasType     bool
	pages       []*pagestore.Page

	store *pagestore.Store
	graph *refgraph.Graph
}

// NewColumn allocates an empty Managed Column. No graph edge is made here:
// the column appears in graph once it is linked to a Page or under a
// Table. The element type is fixed by the first extend.
func NewColumn(store *pagestore.Store, graph *refgraph.Graph) *Column {
	return &Column{
		ID:    idgen.NewColumnID(),
		store: store,
		graph: graph,
	}
}

// node returns c's Reference Graph identity.
func (c *Column) node() refgraph.NodeID {
	return refgraph.NodeID{Kind: refgraph.KindColumn, Key: c.ID}
}

func pageNode(p *pagestore.Page) refgraph.NodeID {
	return refgraph.NodeID{Kind: refgraph.KindPage, Key: idgen.FingerprintHex(p.Fingerprint)}
}

// Length returns the sum of this column's page lengths.
func (c *Column) Length() int {
	n := 0
	for _, p := range c.pages {
		n += p.Length
	}
	return n
}

// Extend appends source's elements to c. source is either another *Column
// (its pages are appended by reference and linked into the Reference
// Graph) or a pagestore.Values raw array (interned via the Page Store and
// the resulting Page appended). Fails if source's element type does not
// match the column's type once that is fixed; an earlier extend fixes it
// even when it added no elements.
func (c *Column) Extend(source any) error {
	switch s := source.(type) {
	case *Column:
		return c.extendFromColumn(s)
	case pagestore.Values:
		return c.extendFromValues(s)
	default:
		return NewTypeError("extend_bad_source", fmt.Sprintf("extend: unsupported source type %T", source)).WithComponent("column")
	}
}

func (c *Column) extendFromColumn(src *Column) error {
	if src.hasType {
		if c.hasType && c.ElementType != src.ElementType {
			return c.typeMismatchError(src.ElementType)
		}
		c.ElementType = src.ElementType
		c.hasType = true
	}
	for _, p := range src.pages {
		if err := c.graph.Link(c.node(), pageNode(p)); err != nil {
			return NewGraphError("link_failed", err.Error()).WithComponent("column").WithCause(err)
		}
		c.pages = append(c.pages, p)
	}
	return nil
}

func (c *Column) extendFromValues(v pagestore.Values) error {
	if c.hasType && c.ElementType != v.Type {
		return c.typeMismatchError(v.Type)
	}
	if v.Len() == 0 {
		c.ElementType = v.Type
		c.hasType = true
		return nil
	}
	page, err := c.store.InternFromValues(v.Type, v)
	if err != nil {
		return NewResourceError("intern_failed", err.Error()).WithComponent("column").WithCause(err)
	}
	if err := c.graph.Link(c.node(), pageNode(page)); err != nil {
		return NewGraphError("link_failed", err.Error()).WithComponent("column").WithCause(err)
	}
	c.ElementType = v.Type
	c.hasType = true
	c.pages = append(c.pages, page)
	return nil
}

func (c *Column) typeMismatchError(got pagestore.ElementType) *GridError {
	return NewTypeError("extend_type_mismatch",
		fmt.Sprintf("extend: column element type %v does not match source type %v", c.ElementType, got)).
		WithComponent("column")
}

// Index returns the single element at position i (spec §4.3 index): it
// walks the ordered page list maintaining a running base offset and reads
// the element at i-base from the owning page.
func (c *Column) Index(ctx context.Context, i int) (pagestore.Values, error) {
	if i < 0 {
		return pagestore.Values{}, NewTypeError("index_out_of_range", fmt.Sprintf("index: negative index %d", i)).WithComponent("column")
	}
	base := 0
	for _, p := range c.pages {
		if i < base+p.Length {
			return c.store.Read(ctx, p, i-base, i-base+1)
		}
		base += p.Length
	}
	return pagestore.Values{}, NewTypeError("index_out_of_range",
		fmt.Sprintf("index: %d out of range for column of length %d", i, base)).WithComponent("column")
}

// Slice returns a new Managed Column holding the elements of the
// arithmetic progression [start, stop, step) (spec §4.3 slice). A page
// whose covered range is fully contained in the request, under step==1,
// is appended by reference with no copy; otherwise the Range Intersection
// Primitive selects the overlapping elements, which are materialized and
// interned as a new Page.
func (c *Column) Slice(ctx context.Context, start, stop, step int) (*Column, error) {
	if step == 0 {
		return nil, NewTypeError("slice_zero_step", "slice: step must not be zero").WithComponent("column")
	}
	if step < 0 {
		return nil, NewTypeError("slice_negative_step", "slice: negative step is not supported").WithComponent("column")
	}

	out := NewColumn(c.store, c.graph)
	out.ElementType = c.ElementType
	out.hasType = c.hasType

	requested := rangeset.Range{Start: start, Stop: stop, Step: step}
	if requested.Empty() {
		return out, nil
	}

	base := 0
	for _, p := range c.pages {
		pageRange := rangeset.Range{Start: base, Stop: base + p.Length, Step: 1}

		if step == 1 && pageRange.Start >= start && pageRange.Stop <= stop {
			if err := c.graph.Link(out.node(), pageNode(p)); err != nil {
				return nil, NewGraphError("link_failed", err.Error()).WithComponent("column").WithCause(err)
			}
			out.pages = append(out.pages, p)
			base += p.Length
			continue
		}

		hit := rangeset.Intersect(requested, pageRange)
		if !hit.Empty() {
			indices := make([]int, 0, hit.Len())
			for v := hit.Start; v < hit.Stop; v += hit.Step {
				indices = append(indices, v-base)
			}
			localValues, err := c.store.Read(ctx, p, 0, p.Length)
			if err != nil {
				return nil, NewIOError("page_read_failed", err.Error()).WithComponent("column").WithCause(err)
			}
			selected := localValues.Select(indices)
			if err := out.extendFromValues(selected); err != nil {
				return nil, err
			}
		}
		base += p.Length
	}
	return out, nil
}

// Iterate returns a lazy, restartable sequence over all elements,
// page-by-page (spec §4.3 iterate). Each call to next returns the next
// page's full values and true, or a zero Values and false once exhausted.
func (c *Column) Iterate(ctx context.Context) func() (pagestore.Values, bool, error) {
	idx := 0
	pages := c.pages
	return func() (pagestore.Values, bool, error) {
		if idx >= len(pages) {
			return pagestore.Values{}, false, nil
		}
		p := pages[idx]
		idx++
		v, err := c.store.Read(ctx, p, 0, p.Length)
		if err != nil {
			return pagestore.Values{}, false, NewIOError("page_read_failed", err.Error()).WithComponent("column").WithCause(err)
		}
		return v, true, nil
	}
}

// Pages returns the column's ordered page list. Callers must not mutate
// the returned slice.
func (c *Column) Pages() []*pagestore.Page {
	return c.pages
}

// copyInto links a fresh Column to the same page sequence as c, without
// copying element bytes (used by Table.Copy).
func (c *Column) copyInto(dst *Column) error {
	dst.ElementType = c.ElementType
	dst.hasType = c.hasType
	for _, p := range c.pages {
		if err := c.graph.Link(dst.node(), pageNode(p)); err != nil {
			return NewGraphError("link_failed", err.Error()).WithComponent("column").WithCause(err)
		}
		dst.pages = append(dst.pages, p)
	}
	return nil
}

// unlink removes c from the Reference Graph, triggering subtree
// reclamation for any pages whose in-degree reaches zero as a result.
func (c *Column) unlink(ctx context.Context) error {
	deleted := c.graph.UnlinkSubtree(c.node())
	for _, n := range deleted {
		if n.Kind != refgraph.KindPage {
			continue
		}
		page := c.findPageByFingerprintHex(n.Key)
		if page == nil {
			continue
		}
		if err := c.store.Release(ctx, page); err != nil {
			return NewIOError("release_failed", err.Error()).WithComponent("column").WithCause(err)
		}
	}
	return nil
}

func (c *Column) findPageByFingerprintHex(hex string) *pagestore.Page {
	for _, p := range c.pages {
		if idgen.FingerprintHex(p.Fingerprint) == hex {
			return p
		}
	}
	return nil
}

// SetIndex replaces the single element at position i with value (supplemented
// from the original tablite implementation's index assignment). Built on
// SetSlice, which is itself built on slice + extend + whole-column
// replacement: a Column is never mutated element-by-element in place.
func (c *Column) SetIndex(ctx context.Context, i int, value pagestore.Values) error {
	if value.Len() != 1 {
		return NewTypeError("update_bad_value", "set_index: value must hold exactly one element").WithComponent("column")
	}
	return c.SetSlice(ctx, i, i+1, 1, value)
}

// SetSlice replaces the elements in [start, stop) with source's elements,
// which may grow or shrink the column (supplemented from the original
// tablite implementation's slice assignment). The replaced region is
// reconstructed as before + source + after and spliced in as c's new page
// list; c's own Reference Graph identity, and its edge from the owning
// Table, survive the swap -- only UnlinkOne is used against c's old pages,
// never UnlinkSubtree, which would delete c itself.
func (c *Column) SetSlice(ctx context.Context, start, stop, step int, source any) error {
	if step != 1 {
		return NewTypeError("update_unsupported_step", "set_slice: only step == 1 is supported").WithComponent("column")
	}
	length := c.Length()
	if start < 0 || stop < start || stop > length {
		return NewTypeError("update_out_of_range",
			fmt.Sprintf("set_slice: [%d:%d) out of range for column of length %d", start, stop, length)).WithComponent("column")
	}

	before, err := c.Slice(ctx, 0, start, 1)
	if err != nil {
		return err
	}
	after, err := c.Slice(ctx, stop, length, 1)
	if err != nil {
		return err
	}

	replacement := NewColumn(c.store, c.graph)
	replacement.ElementType = c.ElementType
	replacement.hasType = c.hasType
	if source != nil {
		if err := replacement.Extend(source); err != nil {
			return err
		}
	}

	newPages := make([]*pagestore.Page, 0, len(before.pages)+len(replacement.pages)+len(after.pages))
	newPages = append(newPages, before.pages...)
	newPages = append(newPages, replacement.pages...)
	newPages = append(newPages, after.pages...)

	kept := make(map[pagestore.Fingerprint]bool, len(newPages))
	for _, p := range newPages {
		kept[p.Fingerprint] = true
		if err := c.graph.Link(c.node(), pageNode(p)); err != nil {
			return NewGraphError("link_failed", err.Error()).WithComponent("column").WithCause(err)
		}
	}

	oldPages := c.pages
	for _, p := range oldPages {
		if kept[p.Fingerprint] {
			continue
		}
		reclaimed, err := c.graph.UnlinkOne(c.node(), pageNode(p))
		if err != nil {
			return NewGraphError("unlink_failed", err.Error()).WithComponent("column").WithCause(err)
		}
		if reclaimed {
			if err := c.store.Release(ctx, p); err != nil {
				return NewIOError("release_failed", err.Error()).WithComponent("column").WithCause(err)
			}
		}
	}

	// The temporary before/replacement/after columns each hold their own
	// edge to every page now in newPages; c holds the same edges as of the
	// Link loop above, so dropping the temporaries' edges never reclaims a
	// page still needed by c.
	for _, temp := range []*Column{before, replacement, after} {
		for _, p := range temp.pages {
			if _, err := c.graph.UnlinkOne(temp.node(), pageNode(p)); err != nil {
				return NewGraphError("unlink_failed", err.Error()).WithComponent("column").WithCause(err)
			}
		}
	}

	c.pages = newPages
	return nil
}
