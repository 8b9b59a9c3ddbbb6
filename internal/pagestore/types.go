// Package pagestore implements the content-addressed, immutable page store:
// Pages are deduplicated by cryptographic fingerprint and transparently
// backed by either a hot (in-memory arena) or cold (DuckDB-backed
// hierarchical file) medium.
package pagestore

import "fmt"

// ElementType is the fixed set of scalar element codes a Page may hold
// (spec §6: "Page element-type codes").
type ElementType int

const (
	Int8 ElementType = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	Bytes    // variable-length raw bytes
	String   // variable-length UTF-8
	Date     // days since epoch, int32
	Time     // nanoseconds since midnight, int64
	Datetime // unix nanoseconds, int64
	Duration // nanoseconds, int64
)

func (t ElementType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Bytes:
		return "bytes"
	case String:
		return "string"
	case Date:
		return "date"
	case Time:
		return "time"
	case Datetime:
		return "datetime"
	case Duration:
		return "duration"
	default:
		return fmt.Sprintf("elementtype(%d)", int(t))
	}
}

// FixedWidth returns the native byte width of a fixed-length element type,
// and ok=false for variable-length types (Bytes, String).
func (t ElementType) FixedWidth() (width int, ok bool) {
	switch t {
	case Int8, Uint8, Bool:
		return 1, true
	case Int16, Uint16:
		return 2, true
	case Int32, Uint32, Float32, Date:
		return 4, true
	case Int64, Uint64, Float64, Time, Datetime, Duration:
		return 8, true
	default:
		return 0, false
	}
}

// IsVariableLength reports whether t is stored as offsets into a bytes
// buffer rather than as fixed-width native values.
func (t ElementType) IsVariableLength() bool {
	_, ok := t.FixedWidth()
	return !ok
}

// Backing identifies a Page's storage medium.
type Backing int

const (
	Hot Backing = iota
	Cold
)

func (b Backing) String() string {
	if b == Hot {
		return "hot"
	}
	return "cold"
}

// Fingerprint is the 32-byte cryptographic identity of a Page's
// (element_type, element_bytes) tuple.
type Fingerprint [32]byte

func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}
