package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/gridstore/internal/pagestore"
)

func openTestShardStore(t *testing.T) *ShardStore {
	t.Helper()
	s, err := OpenShardStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteAndReadShardsOrdersByStart(t *testing.T) {
	s := openTestShardStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteShard(ctx, DefaultRetryPolicy, "root1", "age", 100, pagestore.Int64, 1, []byte{5, 0, 0, 0, 0, 0, 0, 0}, nil))
	require.NoError(t, s.WriteShard(ctx, DefaultRetryPolicy, "root1", "age", 0, pagestore.Int64, 1, []byte{1, 0, 0, 0, 0, 0, 0, 0}, nil))

	rows, err := s.ReadShards(ctx, "root1", "age")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(0), rows[0].start)
	assert.Equal(t, int64(100), rows[1].start)
}

func TestConsolidateFixedWidthConcatenatesInOrder(t *testing.T) {
	rows := []shardRow{
		{start: 0, elementType: pagestore.Int64, length: 2, valueBytes: []byte{1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0}},
		{start: 1, elementType: pagestore.Int64, length: 1, valueBytes: []byte{3, 0, 0, 0, 0, 0, 0, 0}},
	}
	col, err := Consolidate("n", rows)
	require.NoError(t, err)
	assert.Equal(t, pagestore.Int64, col.ElementType)
	assert.Equal(t, 3, col.Length)
	assert.Len(t, col.ValueBytes, 24)
}

func TestConsolidateVariableLengthRebasesOffsets(t *testing.T) {
	// shard 0: "ab","c" -> value bytes "abc", offsets [0,2,3]
	// shard 1: "de" -> value bytes "de", offsets [0,2]
	rows := []shardRow{
		{start: 0, elementType: pagestore.String, length: 2, valueBytes: []byte("abc"), offsetBytes: pagestore.EncodeOffsets([]int32{0, 2, 3})},
		{start: 1, elementType: pagestore.String, length: 1, valueBytes: []byte("de"), offsetBytes: pagestore.EncodeOffsets([]int32{0, 2})},
	}
	col, err := Consolidate("s", rows)
	require.NoError(t, err)
	assert.Equal(t, pagestore.String, col.ElementType)
	assert.Equal(t, 3, col.Length)
	assert.Equal(t, []byte("abcde"), col.ValueBytes)
	assert.Equal(t, []int32{0, 2, 3, 5}, pagestore.DecodeOffsets(col.OffsetBytes))
}

func TestConsolidateDowngradesToRawBytesOnTypeMismatch(t *testing.T) {
	rows := []shardRow{
		{start: 0, elementType: pagestore.Int64, length: 1, valueBytes: []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{start: 1, elementType: pagestore.String, length: 1, valueBytes: []byte("x"), offsetBytes: pagestore.EncodeOffsets([]int32{0, 1})},
	}
	col, err := Consolidate("mixed", rows)
	require.NoError(t, err)
	assert.Equal(t, pagestore.Bytes, col.ElementType)
	assert.Equal(t, 2, col.Length)
}

func TestConsolidateFailsOnNoShards(t *testing.T) {
	_, err := Consolidate("empty", nil)
	assert.Error(t, err)
}

func TestStreamFingerprintMatchesAcrossStepBoundaries(t *testing.T) {
	small := make([]byte, 10)
	large := make([]byte, StreamStepSize+10)
	for i := range large {
		large[i] = byte(i)
	}
	// same content, hashed in one vs multiple steps, must match a direct
	// non-streamed sha256 (sanity: streaming must not alter the digest).
	assert.Len(t, StreamFingerprint(small), 64)
	assert.NotEqual(t, StreamFingerprint(small), StreamFingerprint(large))
	direct := sha256.Sum256(large)
	assert.Equal(t, hex.EncodeToString(direct[:]), StreamFingerprint(large))
}

func TestColumnAttributeRoundTrips(t *testing.T) {
	s := openTestShardStore(t)
	ctx := context.Background()
	col := ConsolidatedColumn{Name: "age", SHA256Sum: "deadbeef"}
	require.NoError(t, s.RecordSHA256Sum(ctx, "root1", col))

	got, ok, err := s.ColumnAttribute(ctx, "root1", "age", "sha256sum")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "deadbeef", got)
}

func TestColumnAttributeMissingReturnsNotOK(t *testing.T) {
	s := openTestShardStore(t)
	_, ok, err := s.ColumnAttribute(context.Background(), "root1", "missing", "sha256sum")
	require.NoError(t, err)
	assert.False(t, ok)
}
