package pagestore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

func int32BitsToFloat32(bits uint32) float32 { return math.Float32frombits(bits) }
func int64BitsToFloat64(bits uint64) float64 { return math.Float64frombits(bits) }

// EncodeValues renders v as the raw bytes a Page's backing stores: a flat
// native-width buffer for fixed-length types, or a concatenated-bytes
// buffer plus a parallel offsets array (n+1 entries) for variable-length
// types. Offsets are never fingerprinted (spec §4.1): they are metadata
// that lets us reconstruct element boundaries, not identity-bearing bytes.
func EncodeValues(t ElementType, v Values) (valueBytes []byte, offsets []int32) {
	if !t.IsVariableLength() {
		var buf bytes.Buffer
		writeElementBytes(&buf, t, v)
		return buf.Bytes(), nil
	}

	offsets = make([]int32, len(v.ByteSlices)+1)
	var buf bytes.Buffer
	var cursor int32
	for i, b := range v.ByteSlices {
		offsets[i] = cursor
		buf.Write(b)
		cursor += int32(len(b))
	}
	offsets[len(v.ByteSlices)] = cursor
	return buf.Bytes(), offsets
}

// DecodeValues reconstructs the [start, stop) sub-range of a Page's values
// from its raw backing bytes.
func DecodeValues(t ElementType, raw []byte, offsets []int32, start, stop int) (Values, error) {
	if !t.IsVariableLength() {
		width, _ := t.FixedWidth()
		sub := raw[start*width : stop*width]
		return decodeFixedWidth(t, sub, stop-start)
	}

	n := stop - start
	out := Values{Type: t, ByteSlices: make([][]byte, n)}
	for i := 0; i < n; i++ {
		lo, hi := offsets[start+i], offsets[start+i+1]
		out.ByteSlices[i] = raw[lo:hi]
	}
	return out, nil
}

func decodeFixedWidth(t ElementType, raw []byte, n int) (Values, error) {
	out := Values{Type: t}
	switch t {
	case Int8:
		out.Int8s = make([]int8, n)
		for i := 0; i < n; i++ {
			out.Int8s[i] = int8(raw[i])
		}
	case Uint8:
		out.Uint8s = append([]byte{}, raw[:n]...)
	case Bool:
		out.Bools = make([]bool, n)
		for i := 0; i < n; i++ {
			out.Bools[i] = raw[i] != 0
		}
	case Int16:
		out.Int16s = make([]int16, n)
		for i := 0; i < n; i++ {
			out.Int16s[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
		}
	case Uint16:
		out.Uint16s = make([]uint16, n)
		for i := 0; i < n; i++ {
			out.Uint16s[i] = binary.LittleEndian.Uint16(raw[i*2:])
		}
	case Int32:
		out.Int32s = make([]int32, n)
		for i := 0; i < n; i++ {
			out.Int32s[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case Uint32:
		out.Uint32s = make([]uint32, n)
		for i := 0; i < n; i++ {
			out.Uint32s[i] = binary.LittleEndian.Uint32(raw[i*4:])
		}
	case Float32:
		out.Float32s = make([]float32, n)
		for i := 0; i < n; i++ {
			out.Float32s[i] = int32BitsToFloat32(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case Date:
		out.Int32Temporal = make([]int32, n)
		for i := 0; i < n; i++ {
			out.Int32Temporal[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case Int64:
		out.Int64s = make([]int64, n)
		for i := 0; i < n; i++ {
			out.Int64s[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	case Uint64:
		out.Uint64s = make([]uint64, n)
		for i := 0; i < n; i++ {
			out.Uint64s[i] = binary.LittleEndian.Uint64(raw[i*8:])
		}
	case Float64:
		out.Float64s = make([]float64, n)
		for i := 0; i < n; i++ {
			out.Float64s[i] = int64BitsToFloat64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	case Time, Datetime, Duration:
		out.Int64Temporal = make([]int64, n)
		for i := 0; i < n; i++ {
			out.Int64Temporal[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	default:
		return Values{}, fmt.Errorf("pagestore: unsupported fixed-width decode for %s", t)
	}
	return out, nil
}
