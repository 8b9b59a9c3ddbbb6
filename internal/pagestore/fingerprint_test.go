package pagestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFingerprintIdentityForIdenticalBytes(t *testing.T) {
	a := Values{Type: Int32, Int32s: []int32{1, 2, 3}}
	b := Values{Type: Int32, Int32s: []int32{1, 2, 3}}
	assert.Equal(t, ComputeFingerprint(Int32, a), ComputeFingerprint(Int32, b))
}

func TestComputeFingerprintDiffersOnElementType(t *testing.T) {
	same := []byte{1, 0, 0, 0}
	a := Values{Type: Int32, Int32s: []int32{1}}
	b := Values{Type: Uint8, Uint8s: same}
	assert.NotEqual(t, ComputeFingerprint(Int32, a), ComputeFingerprint(Uint8, b))
}

func TestComputeFingerprintVariableLengthIgnoresBoundaries(t *testing.T) {
	// "ab","c" and "a","bc" hash the same raw bytes when framing is
	// ignored -- this is the documented spec §4.1 tradeoff: identity
	// relies on (type, length, bytes), not on offsets.
	a := Values{Type: String, ByteSlices: [][]byte{[]byte("ab"), []byte("c")}}
	b := Values{Type: String, ByteSlices: [][]byte{[]byte("a"), []byte("bc")}}
	assert.Equal(t, ComputeFingerprint(String, a), ComputeFingerprint(String, b))
}
