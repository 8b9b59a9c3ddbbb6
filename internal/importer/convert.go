package importer

import (
	"strconv"
	"strings"

	"github.com/lychee-technology/gridstore/internal/pagestore"
)

// elementTypeFromName maps an import configuration's requested element
// type name (spec §6 Import Configuration table) to its pagestore code.
// Unrecognized names fall back to string, which always succeeds
// conversion and never triggers the raw-bytes downgrade.
func elementTypeFromName(name string) pagestore.ElementType {
	switch strings.ToLower(name) {
	case "int8":
		return pagestore.Int8
	case "int16":
		return pagestore.Int16
	case "int32":
		return pagestore.Int32
	case "int64", "int":
		return pagestore.Int64
	case "uint8":
		return pagestore.Uint8
	case "uint16":
		return pagestore.Uint16
	case "uint32":
		return pagestore.Uint32
	case "uint64":
		return pagestore.Uint64
	case "float32":
		return pagestore.Float32
	case "float64", "float":
		return pagestore.Float64
	case "bool", "boolean":
		return pagestore.Bool
	case "bytes":
		return pagestore.Bytes
	default:
		return pagestore.String
	}
}

// convertCells attempts to convert every cell to t, returning ok=false the
// moment any cell fails -- the caller then downgrades the entire shard's
// array for that column to raw bytes (spec §4.7 "Type policy").
func convertCells(t pagestore.ElementType, cells []string) (pagestore.Values, bool) {
	switch t {
	case pagestore.Int8, pagestore.Int16, pagestore.Int32, pagestore.Int64:
		out := make([]int64, len(cells))
		for i, c := range cells {
			v, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
			if err != nil {
				return pagestore.Values{}, false
			}
			out[i] = v
		}
		return narrowInts(t, out), true

	case pagestore.Uint8, pagestore.Uint16, pagestore.Uint32, pagestore.Uint64:
		out := make([]uint64, len(cells))
		for i, c := range cells {
			v, err := strconv.ParseUint(strings.TrimSpace(c), 10, 64)
			if err != nil {
				return pagestore.Values{}, false
			}
			out[i] = v
		}
		return narrowUints(t, out), true

	case pagestore.Float32, pagestore.Float64:
		out := make([]float64, len(cells))
		for i, c := range cells {
			v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if err != nil {
				return pagestore.Values{}, false
			}
			out[i] = v
		}
		if t == pagestore.Float32 {
			f32 := make([]float32, len(out))
			for i, v := range out {
				f32[i] = float32(v)
			}
			return pagestore.Values{Type: pagestore.Float32, Float32s: f32}, true
		}
		return pagestore.Values{Type: pagestore.Float64, Float64s: out}, true

	case pagestore.Bool:
		out := make([]bool, len(cells))
		for i, c := range cells {
			v, err := strconv.ParseBool(strings.TrimSpace(c))
			if err != nil {
				return pagestore.Values{}, false
			}
			out[i] = v
		}
		return pagestore.Values{Type: pagestore.Bool, Bools: out}, true

	default: // String, Bytes
		return stringValuesOf(cells), true
	}
}

func narrowInts(t pagestore.ElementType, v []int64) pagestore.Values {
	switch t {
	case pagestore.Int8:
		out := make([]int8, len(v))
		for i, x := range v {
			out[i] = int8(x)
		}
		return pagestore.Values{Type: t, Int8s: out}
	case pagestore.Int16:
		out := make([]int16, len(v))
		for i, x := range v {
			out[i] = int16(x)
		}
		return pagestore.Values{Type: t, Int16s: out}
	case pagestore.Int32:
		out := make([]int32, len(v))
		for i, x := range v {
			out[i] = int32(x)
		}
		return pagestore.Values{Type: t, Int32s: out}
	default:
		return pagestore.Values{Type: pagestore.Int64, Int64s: v}
	}
}

func narrowUints(t pagestore.ElementType, v []uint64) pagestore.Values {
	switch t {
	case pagestore.Uint8:
		out := make([]uint8, len(v))
		for i, x := range v {
			out[i] = uint8(x)
		}
		return pagestore.Values{Type: t, Uint8s: out}
	case pagestore.Uint16:
		out := make([]uint16, len(v))
		for i, x := range v {
			out[i] = uint16(x)
		}
		return pagestore.Values{Type: t, Uint16s: out}
	case pagestore.Uint32:
		out := make([]uint32, len(v))
		for i, x := range v {
			out[i] = uint32(x)
		}
		return pagestore.Values{Type: t, Uint32s: out}
	default:
		return pagestore.Values{Type: pagestore.Uint64, Uint64s: v}
	}
}
