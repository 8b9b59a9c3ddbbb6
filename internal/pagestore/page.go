package pagestore

// ColdLocator identifies an on-disk dataset backing a cold Page: the
// scratch or imported DuckDB file, the schema ("group") it lives under,
// and the table name within that schema.
type ColdLocator struct {
	File   string // DuckDB file path
	Schema string // hierarchical "group" ("pages" for the Page Store's page_data table)
	Table  string // dataset ("in-file path")
}

// Page is an immutable, typed, fixed-length vector of scalar values. It is
// created once (from a freshly built value array, or bound to an existing
// cold dataset) and never mutated; a Page's fingerprint uniquely identifies
// its (element type, element bytes) tuple.
type Page struct {
	Fingerprint Fingerprint
	Length      int
	Type        ElementType
	Backing     Backing

	// hot
	hotName string // arena segment name; "" when not hot
	offsets []int32 // variable-length element boundaries; nil for fixed-width

	// cold
	cold ColdLocator

	// imported datasets must never have their cold storage deleted on
	// release, even though they are reclaimed from the Reference Graph
	// exactly like scratch pages.
	coldIsImported bool
}

// IsImported reports whether a cold Page's backing dataset belongs to an
// imported source file (and must survive release) rather than the
// engine's own scratch store.
func (p *Page) IsImported() bool {
	return p.Backing == Cold && p.coldIsImported
}
