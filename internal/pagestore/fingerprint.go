package pagestore

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// ComputeFingerprint hashes the element type code and the element count,
// then the raw element bytes of v in index order. Fixed-length elements
// contribute their native-width little-endian encoding; variable-length
// elements (Bytes/String) contribute their raw bytes with no per-element
// length framing — the hashed element type and page length disambiguate,
// per spec §4.1. Equal bytes under different element types therefore
// never share a fingerprint.
func ComputeFingerprint(t ElementType, v Values) Fingerprint {
	h := sha256.New()
	var header [16]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(t))
	binary.LittleEndian.PutUint64(header[8:], uint64(v.Len()))
	h.Write(header[:])
	writeElementBytes(h, t, v)
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func writeElementBytes(w byteWriter, t ElementType, v Values) {
	var buf [8]byte
	switch t {
	case Int8:
		for _, x := range v.Int8s {
			buf[0] = byte(x)
			w.Write(buf[:1])
		}
	case Uint8:
		w.Write(v.Uint8s)
	case Bool:
		for _, x := range v.Bools {
			if x {
				buf[0] = 1
			} else {
				buf[0] = 0
			}
			w.Write(buf[:1])
		}
	case Int16:
		for _, x := range v.Int16s {
			binary.LittleEndian.PutUint16(buf[:2], uint16(x))
			w.Write(buf[:2])
		}
	case Uint16:
		for _, x := range v.Uint16s {
			binary.LittleEndian.PutUint16(buf[:2], x)
			w.Write(buf[:2])
		}
	case Int32:
		for _, x := range v.Int32s {
			binary.LittleEndian.PutUint32(buf[:4], uint32(x))
			w.Write(buf[:4])
		}
	case Uint32:
		for _, x := range v.Uint32s {
			binary.LittleEndian.PutUint32(buf[:4], x)
			w.Write(buf[:4])
		}
	case Float32:
		for _, x := range v.Float32s {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(x))
			w.Write(buf[:4])
		}
	case Date:
		for _, x := range v.Int32Temporal {
			binary.LittleEndian.PutUint32(buf[:4], uint32(x))
			w.Write(buf[:4])
		}
	case Int64:
		for _, x := range v.Int64s {
			binary.LittleEndian.PutUint64(buf[:8], uint64(x))
			w.Write(buf[:8])
		}
	case Uint64:
		for _, x := range v.Uint64s {
			binary.LittleEndian.PutUint64(buf[:8], x)
			w.Write(buf[:8])
		}
	case Float64:
		for _, x := range v.Float64s {
			binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(x))
			w.Write(buf[:8])
		}
	case Time, Datetime, Duration:
		for _, x := range v.Int64Temporal {
			binary.LittleEndian.PutUint64(buf[:8], uint64(x))
			w.Write(buf[:8])
		}
	case Bytes, String:
		for _, b := range v.ByteSlices {
			w.Write(b)
		}
	}
}
