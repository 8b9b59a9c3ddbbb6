package pagestore

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Store is the content-addressed Page Store: it deduplicates Pages by
// fingerprint and transparently backs them with either a hot arena segment
// or a cold DuckDB dataset (spec §4.1).
type Store struct {
	mu    sync.RWMutex
	pages map[Fingerprint]*Page

	arena *arena
	cold  *ColdDB
	lru   *lru

	log *zap.SugaredLogger
}

// NewStore constructs a Page Store backed by the given cold database. cold
// may be nil, in which case bind_cold/migrate-to-cold fail with
// ErrAllocationFailed-class errors — useful for tests that only exercise
// the hot path.
func NewStore(cold *ColdDB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{
		pages: make(map[Fingerprint]*Page),
		arena: newArena(),
		cold:  cold,
		lru:   newLRU(),
		log:   log,
	}
}

// InternFromValues computes the fingerprint over v's raw element bytes and
// returns the existing Page if one already carries that fingerprint,
// otherwise allocates a new hot Page backed by a freshly acquired arena
// segment (spec §4.1, intern_from_values).
func (s *Store) InternFromValues(t ElementType, v Values) (*Page, error) {
	fp := ComputeFingerprint(t, v)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pages[fp]; ok {
		return existing, nil
	}

	valueBytes, offsets := EncodeValues(t, v)
	seg := s.arena.create(valueBytes)
	if seg == nil {
		return nil, fmt.Errorf("%w: could not allocate %d bytes", ErrAllocationFailed, len(valueBytes))
	}

	page := &Page{
		Fingerprint: fp,
		Length:      v.Len(),
		Type:        t,
		Backing:     Hot,
		hotName:     seg.name,
		offsets:     offsets,
	}
	s.pages[fp] = page
	return page, nil
}

// BindCold registers a Page whose backing is an on-disk dataset previously
// written by the importer or consolidator (spec §4.1, bind_cold). Fails if
// the fingerprint's cold metadata is missing.
func (s *Store) BindCold(ctx context.Context, t ElementType, length int, locator ColdLocator, fp Fingerprint, imported bool) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pages[fp]; ok {
		return existing, nil
	}

	if s.cold == nil {
		return nil, fmt.Errorf("%w: no cold store configured", ErrAllocationFailed)
	}
	fpHex := hexFingerprint(fp)
	exists, err := s.cold.Exists(ctx, fpHex)
	if err != nil {
		return nil, fmt.Errorf("pagestore: bind_cold metadata lookup: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFingerprintMissing, fpHex)
	}

	page := &Page{
		Fingerprint:    fp,
		Length:         length,
		Type:           t,
		Backing:        Cold,
		cold:           locator,
		coldIsImported: imported,
	}
	s.pages[fp] = page
	return page, nil
}

// Migrate moves a Page between hot and cold backing, preserving its
// fingerprint. Idempotent: migrating to the backing a Page already has is
// a no-op.
func (s *Store) Migrate(ctx context.Context, p *Page, target Backing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Backing == target {
		return nil
	}

	switch target {
	case Cold:
		return s.migrateHotToCold(ctx, p)
	case Hot:
		return s.migrateColdToHot(ctx, p)
	default:
		return fmt.Errorf("pagestore: unknown backing target %v", target)
	}
}

func (s *Store) migrateHotToCold(ctx context.Context, p *Page) error {
	if s.cold == nil {
		return fmt.Errorf("%w: no cold store configured", ErrAllocationFailed)
	}
	seg, ok := s.arena.open(p.hotName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, p.hotName)
	}

	fpHex := hexFingerprint(p.Fingerprint)
	offsetBytes := EncodeOffsets(p.offsets)
	if err := s.cold.PutPageData(ctx, fpHex, p.Type, p.Length, seg.Bytes(), offsetBytes, false); err != nil {
		return fmt.Errorf("pagestore: migrate hot->cold write: %w", err)
	}

	s.arena.unlink(p.hotName)
	p.Backing = Cold
	p.cold = ColdLocator{File: s.cold.Path(), Schema: "pages", Table: "page_data"}
	p.coldIsImported = false
	p.hotName = ""
	return nil
}

func (s *Store) migrateColdToHot(ctx context.Context, p *Page) error {
	if s.cold == nil {
		return fmt.Errorf("%w: no cold store configured", ErrAllocationFailed)
	}
	fpHex := hexFingerprint(p.Fingerprint)
	_, _, valueBytes, offsetBytes, _, err := s.cold.GetPageData(ctx, fpHex)
	if err != nil {
		return fmt.Errorf("pagestore: migrate cold->hot read: %w", err)
	}

	seg := s.arena.create(valueBytes)
	if seg == nil {
		return fmt.Errorf("%w: could not materialize %d bytes", ErrAllocationFailed, len(valueBytes))
	}

	p.Backing = Hot
	p.hotName = seg.name
	p.offsets = DecodeOffsets(offsetBytes)
	p.cold = ColdLocator{}
	p.coldIsImported = false
	return nil
}

// Read returns the values in [start, stop) of the Page. For hot pages it
// decodes straight from the arena segment: variable-length elements are
// sub-slices of the segment's bytes, fixed-width elements are decoded into
// new typed slices. For cold pages it loads the full dataset and decodes
// the requested range.
func (s *Store) Read(ctx context.Context, p *Page, start, stop int) (Values, error) {
	if start < 0 || stop > p.Length || start > stop {
		return Values{}, fmt.Errorf("%w: [%d,%d) of length %d", ErrOutOfRange, start, stop, p.Length)
	}
	s.lru.touch(p.Fingerprint)

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch p.Backing {
	case Hot:
		seg, ok := s.arena.open(p.hotName)
		if !ok {
			return Values{}, fmt.Errorf("%w: %s", ErrUnknownPage, p.hotName)
		}
		return DecodeValues(p.Type, seg.Bytes(), p.offsets, start, stop)
	case Cold:
		if s.cold == nil {
			return Values{}, fmt.Errorf("%w: no cold store configured", ErrAllocationFailed)
		}
		fpHex := hexFingerprint(p.Fingerprint)
		_, _, valueBytes, offsetBytes, _, err := s.cold.GetPageData(ctx, fpHex)
		if err != nil {
			return Values{}, fmt.Errorf("pagestore: cold read: %w", err)
		}
		return DecodeValues(p.Type, valueBytes, DecodeOffsets(offsetBytes), start, stop)
	default:
		return Values{}, fmt.Errorf("pagestore: unknown backing %v", p.Backing)
	}
}

// Release unlinks a Page's backing: the shared-memory segment if hot, the
// scratch dataset if cold and not imported. Called by the owning Column
// once the Reference Graph has dropped the Page's last inbound edge.
func (s *Store) Release(ctx context.Context, p *Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lru.forget(p.Fingerprint)
	delete(s.pages, p.Fingerprint)

	switch p.Backing {
	case Hot:
		s.arena.unlink(p.hotName)
	case Cold:
		if p.coldIsImported {
			return nil
		}
		if s.cold == nil {
			return nil
		}
		return s.cold.DeletePageData(ctx, hexFingerprint(p.Fingerprint))
	}
	return nil
}

// Lookup returns the Page already interned for fp, if any.
func (s *Store) Lookup(fp Fingerprint) (*Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[fp]
	return p, ok
}

func hexFingerprint(fp Fingerprint) string {
	return fmt.Sprintf("%x", fp[:])
}

// EncodeOffsets renders a variable-length Page's element-boundary offsets
// as the flat byte buffer the cold store persists them in.
func EncodeOffsets(offsets []int32) []byte {
	if offsets == nil {
		return nil
	}
	buf := make([]byte, 4*len(offsets))
	for i, o := range offsets {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(o))
	}
	return buf
}

// DecodeOffsets reverses EncodeOffsets.
func DecodeOffsets(buf []byte) []int32 {
	if len(buf) == 0 {
		return nil
	}
	n := len(buf) / 4
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
