package pagestore

import (
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
)

// arena is the hot-backing registry: a process-local stand-in for the
// named POSIX shared-memory segments the original engine maps across
// worker processes (spec §9, "Shared-memory segment identity via OS-level
// name becomes an owned resource wrapper that unlinks on drop"). Segments
// are immutable once sealed, so concurrent readers never need the lock —
// it only guards the name→segment index itself.
type arena struct {
	mu       sync.RWMutex
	segments map[string]*segment
	alloc    memory.Allocator
}

type segment struct {
	name string
	buf  *memory.Buffer
}

func newArena() *arena {
	return &arena{
		segments: make(map[string]*segment),
		alloc:    memory.NewGoAllocator(),
	}
}

// create allocates a new named segment sized exactly to data's length and
// copies data in. Collisions on the generated name are retried with a
// fresh name, matching spec §4.1's "locator collisions are retried".
func (a *arena) create(data []byte) *segment {
	a.mu.Lock()
	defer a.mu.Unlock()

	var name string
	for {
		name = fmt.Sprintf("gridstore-hot-%s", uuid.New().String())
		if _, taken := a.segments[name]; !taken {
			break
		}
	}

	buf := memory.NewResizableBuffer(a.alloc)
	buf.Resize(len(data))
	copy(buf.Bytes(), data)

	s := &segment{name: name, buf: buf}
	a.segments[name] = s
	return s
}

// open re-opens an existing named segment for read-only access, modeling
// a cross-process re-open by name.
func (a *arena) open(name string) (*segment, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.segments[name]
	return s, ok
}

// unlink releases a segment's backing buffer and removes it from the
// registry. Idempotent.
func (a *arena) unlink(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.segments[name]
	if !ok {
		return
	}
	s.buf.Release()
	delete(a.segments, name)
}

func (s *segment) Bytes() []byte {
	return s.buf.Bytes()
}
