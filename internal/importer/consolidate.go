package importer

import (
	"context"
	"fmt"

	"github.com/lychee-technology/gridstore/internal/idgen"
	"github.com/lychee-technology/gridstore/internal/pagestore"
)

// ConsolidatedColumn is the per-column result of assembling a virtual
// dataset out of ascending-start shards (spec §4.7 step 5).
type ConsolidatedColumn struct {
	Name        string
	ElementType pagestore.ElementType
	Length      int
	ValueBytes  []byte
	OffsetBytes []byte
	SHA256Sum   string
}

// Consolidate assembles every shard written for column (already returned
// in ascending-start order by ReadShards) into one virtual dataset: value
// bytes and, for variable-length types, offsets are concatenated with
// each shard's offsets rebased onto the running byte total. If shards
// disagree on element type the consolidated type downgrades to raw bytes
// (pagestore.Bytes), matching the dirty-input policy in spec §4.7's "Type
// policy".
func Consolidate(column string, shards []shardRow) (ConsolidatedColumn, error) {
	if len(shards) == 0 {
		return ConsolidatedColumn{}, fmt.Errorf("importer: no shards for column %s", column)
	}

	elementType := shards[0].elementType
	consistent := true
	for _, sh := range shards[1:] {
		if sh.elementType != elementType {
			consistent = false
			break
		}
	}
	if !consistent {
		elementType = pagestore.Bytes
	}

	var valueBytes []byte
	length := 0

	for _, sh := range shards {
		valueBytes = append(valueBytes, sh.valueBytes...)
		length += sh.length
	}

	out := ConsolidatedColumn{
		Name:        column,
		ElementType: elementType,
		Length:      length,
		ValueBytes:  valueBytes,
	}
	switch {
	case consistent && elementType.IsVariableLength():
		out.OffsetBytes = pagestore.EncodeOffsets(rebuildBoundaryOffsets(shards))
	case !consistent:
		// Dirty input: shards disagree on type, so there is no single
		// native width to decode by. Each shard's own element boundaries
		// (its per-shard offsets for variable-length shards, or its
		// uniform native width for fixed-length shards) become the raw
		// "Bytes" element boundaries in the consolidated dataset.
		out.OffsetBytes = pagestore.EncodeOffsets(rebuildRawByteOffsets(shards))
	}
	return out, nil
}

// rebuildRawByteOffsets treats every shard's elements -- whatever their
// original type -- as a sequence of raw byte items, for the downgrade
// path where a column's shards disagree on element type.
func rebuildRawByteOffsets(shards []shardRow) []int32 {
	offsets := []int32{0}
	var base int32
	for _, sh := range shards {
		if sh.elementType.IsVariableLength() {
			shardOffsets := pagestore.DecodeOffsets(sh.offsetBytes)
			for _, o := range shardOffsets[1:] {
				offsets = append(offsets, base+o)
			}
			if len(shardOffsets) > 0 {
				base += shardOffsets[len(shardOffsets)-1]
			}
			continue
		}
		width, _ := sh.elementType.FixedWidth()
		for i := 0; i < sh.length; i++ {
			base += int32(width)
			offsets = append(offsets, base)
		}
	}
	return offsets
}

// rebuildBoundaryOffsets reconstructs the single n+1-entry offsets array
// spanning every shard, where n is the total element count.
func rebuildBoundaryOffsets(shards []shardRow) []int32 {
	offsets := []int32{0}
	var base int32
	for _, sh := range shards {
		shardOffsets := pagestore.DecodeOffsets(sh.offsetBytes)
		if len(shardOffsets) == 0 {
			continue
		}
		for _, o := range shardOffsets[1:] {
			offsets = append(offsets, base+o)
		}
		base += shardOffsets[len(shardOffsets)-1]
	}
	return offsets
}

// Publish writes a consolidated column's bytes into the Page Store's cold
// tier as an imported dataset and binds it as a Page (spec §4.7 step 7).
func Publish(ctx context.Context, cold *pagestore.ColdDB, store *pagestore.Store, locatorFile string, col ConsolidatedColumn) (*pagestore.Page, error) {
	fp := pagestore.ComputeFingerprint(col.ElementType, decodeForFingerprint(col))
	fpHex := idgen.FingerprintHex(fp)

	exists, err := cold.Exists(ctx, fpHex)
	if err != nil {
		return nil, fmt.Errorf("importer: check existing page for column %s: %w", col.Name, err)
	}
	if !exists {
		if err := cold.PutPageData(ctx, fpHex, col.ElementType, col.Length, col.ValueBytes, col.OffsetBytes, true); err != nil {
			return nil, fmt.Errorf("importer: publish column %s: %w", col.Name, err)
		}
	}

	locator := pagestore.ColdLocator{File: locatorFile, Schema: "pages", Table: "page_data"}
	return store.BindCold(ctx, col.ElementType, col.Length, locator, fp, true)
}

// decodeForFingerprint reconstructs the Values view ComputeFingerprint
// expects, directly from a consolidated column's raw bytes.
func decodeForFingerprint(col ConsolidatedColumn) pagestore.Values {
	v, err := pagestore.DecodeValues(col.ElementType, col.ValueBytes, pagestore.DecodeOffsets(col.OffsetBytes), 0, col.Length)
	if err != nil {
		// Consolidated bytes are always well-formed (written by WriteShard
		// from a prior EncodeValues); a decode failure here means the
		// shard-writing path itself is broken, not an input-data problem.
		panic(fmt.Sprintf("importer: consolidated column %s failed to decode: %v", col.Name, err))
	}
	return v
}
