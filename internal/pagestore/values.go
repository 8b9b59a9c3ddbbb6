package pagestore

// Values is a typed, freshly built value array: the input to
// Store.InternFromValues and the output of Store.Read, for hot and cold
// pages alike. Exactly one of the typed fields is populated, selected by
// Type.
type Values struct {
	Type ElementType

	Int8s    []int8
	Int16s   []int16
	Int32s   []int32
	Int64s   []int64
	Uint8s   []uint8
	Uint16s  []uint16
	Uint32s  []uint32
	Uint64s  []uint64
	Float32s []float32
	Float64s []float64
	Bools    []bool

	// Bytes/String elements share the same representation: an ordered list
	// of byte slices. Dates are int32 epoch-unit encodings held in
	// Int32Temporal; Times/Datetimes/Durations are int64 encodings held in
	// Int64Temporal.
	ByteSlices [][]byte

	Int64Temporal []int64 // Time/Datetime/Duration
	Int32Temporal []int32 // Date
}

// Len returns the number of elements in the populated slice.
func (v Values) Len() int {
	switch v.Type {
	case Int8:
		return len(v.Int8s)
	case Int16:
		return len(v.Int16s)
	case Int32:
		return len(v.Int32s)
	case Int64:
		return len(v.Int64s)
	case Uint8:
		return len(v.Uint8s)
	case Uint16:
		return len(v.Uint16s)
	case Uint32:
		return len(v.Uint32s)
	case Uint64:
		return len(v.Uint64s)
	case Float32:
		return len(v.Float32s)
	case Float64:
		return len(v.Float64s)
	case Bool:
		return len(v.Bools)
	case Bytes, String:
		return len(v.ByteSlices)
	case Date:
		return len(v.Int32Temporal)
	case Time, Datetime, Duration:
		return len(v.Int64Temporal)
	default:
		return 0
	}
}

// Slice returns a new Values holding the sub-range [start, stop) of v. The
// underlying Go slice is re-sliced, not copied; callers that persist the
// result across a mutation of the source should copy explicitly.
func (v Values) Slice(start, stop int) Values {
	out := Values{Type: v.Type}
	switch v.Type {
	case Int8:
		out.Int8s = v.Int8s[start:stop]
	case Int16:
		out.Int16s = v.Int16s[start:stop]
	case Int32:
		out.Int32s = v.Int32s[start:stop]
	case Int64:
		out.Int64s = v.Int64s[start:stop]
	case Uint8:
		out.Uint8s = v.Uint8s[start:stop]
	case Uint16:
		out.Uint16s = v.Uint16s[start:stop]
	case Uint32:
		out.Uint32s = v.Uint32s[start:stop]
	case Uint64:
		out.Uint64s = v.Uint64s[start:stop]
	case Float32:
		out.Float32s = v.Float32s[start:stop]
	case Float64:
		out.Float64s = v.Float64s[start:stop]
	case Bool:
		out.Bools = v.Bools[start:stop]
	case Bytes, String:
		out.ByteSlices = v.ByteSlices[start:stop]
	case Date:
		out.Int32Temporal = v.Int32Temporal[start:stop]
	case Time, Datetime, Duration:
		out.Int64Temporal = v.Int64Temporal[start:stop]
	}
	return out
}

// Select returns a new Values containing the elements at the given indices,
// in order. Used when materializing a strided or non-contiguous slice.
func (v Values) Select(indices []int) Values {
	out := Values{Type: v.Type}
	n := len(indices)
	switch v.Type {
	case Int8:
		out.Int8s = make([]int8, n)
		for i, idx := range indices {
			out.Int8s[i] = v.Int8s[idx]
		}
	case Int16:
		out.Int16s = make([]int16, n)
		for i, idx := range indices {
			out.Int16s[i] = v.Int16s[idx]
		}
	case Int32:
		out.Int32s = make([]int32, n)
		for i, idx := range indices {
			out.Int32s[i] = v.Int32s[idx]
		}
	case Int64:
		out.Int64s = make([]int64, n)
		for i, idx := range indices {
			out.Int64s[i] = v.Int64s[idx]
		}
	case Uint8:
		out.Uint8s = make([]uint8, n)
		for i, idx := range indices {
			out.Uint8s[i] = v.Uint8s[idx]
		}
	case Uint16:
		out.Uint16s = make([]uint16, n)
		for i, idx := range indices {
			out.Uint16s[i] = v.Uint16s[idx]
		}
	case Uint32:
		out.Uint32s = make([]uint32, n)
		for i, idx := range indices {
			out.Uint32s[i] = v.Uint32s[idx]
		}
	case Uint64:
		out.Uint64s = make([]uint64, n)
		for i, idx := range indices {
			out.Uint64s[i] = v.Uint64s[idx]
		}
	case Float32:
		out.Float32s = make([]float32, n)
		for i, idx := range indices {
			out.Float32s[i] = v.Float32s[idx]
		}
	case Float64:
		out.Float64s = make([]float64, n)
		for i, idx := range indices {
			out.Float64s[i] = v.Float64s[idx]
		}
	case Bool:
		out.Bools = make([]bool, n)
		for i, idx := range indices {
			out.Bools[i] = v.Bools[idx]
		}
	case Bytes, String:
		out.ByteSlices = make([][]byte, n)
		for i, idx := range indices {
			out.ByteSlices[i] = v.ByteSlices[idx]
		}
	case Date:
		out.Int32Temporal = make([]int32, n)
		for i, idx := range indices {
			out.Int32Temporal[i] = v.Int32Temporal[idx]
		}
	case Time, Datetime, Duration:
		out.Int64Temporal = make([]int64, n)
		for i, idx := range indices {
			out.Int64Temporal[i] = v.Int64Temporal[idx]
		}
	}
	return out
}

// Concat appends b's elements after a's, returning a new Values. a and b
// must share the same Type.
func Concat(a, b Values) Values {
	out := Values{Type: a.Type}
	switch a.Type {
	case Int8:
		out.Int8s = append(append([]int8{}, a.Int8s...), b.Int8s...)
	case Int16:
		out.Int16s = append(append([]int16{}, a.Int16s...), b.Int16s...)
	case Int32:
		out.Int32s = append(append([]int32{}, a.Int32s...), b.Int32s...)
	case Int64:
		out.Int64s = append(append([]int64{}, a.Int64s...), b.Int64s...)
	case Uint8:
		out.Uint8s = append(append([]uint8{}, a.Uint8s...), b.Uint8s...)
	case Uint16:
		out.Uint16s = append(append([]uint16{}, a.Uint16s...), b.Uint16s...)
	case Uint32:
		out.Uint32s = append(append([]uint32{}, a.Uint32s...), b.Uint32s...)
	case Uint64:
		out.Uint64s = append(append([]uint64{}, a.Uint64s...), b.Uint64s...)
	case Float32:
		out.Float32s = append(append([]float32{}, a.Float32s...), b.Float32s...)
	case Float64:
		out.Float64s = append(append([]float64{}, a.Float64s...), b.Float64s...)
	case Bool:
		out.Bools = append(append([]bool{}, a.Bools...), b.Bools...)
	case Bytes, String:
		out.ByteSlices = append(append([][]byte{}, a.ByteSlices...), b.ByteSlices...)
	case Date:
		out.Int32Temporal = append(append([]int32{}, a.Int32Temporal...), b.Int32Temporal...)
	case Time, Datetime, Duration:
		out.Int64Temporal = append(append([]int64{}, a.Int64Temporal...), b.Int64Temporal...)
	}
	return out
}
