package importer

import "fmt"

// Plan describes the byte-range shards a parallel import splits into.
type Plan struct {
	ChunkSize int64
	Shards    []Shard
}

// Shard is one worker's byte range assignment: [Start, Start+Length).
type Shard struct {
	Start  int64
	Length int64
}

// ChunkOverhead is the calibration constant spec §4.7 step 3 calls for:
// chunk = M / (W * overhead). A value > 1 leaves headroom for per-row
// allocation overhead beyond the raw byte size of a shard.
const ChunkOverhead = 4

// BuildPlan computes chunk size and shard boundaries for a file of size
// fileSize, given workingMemory bytes and workerCount workers.
func BuildPlan(fileSize, workingMemory int64, workerCount int) (Plan, error) {
	if fileSize < 0 {
		return Plan{}, fmt.Errorf("importer: negative file size %d", fileSize)
	}
	if workingMemory <= 0 {
		return Plan{}, fmt.Errorf("importer: working memory must be positive, got %d", workingMemory)
	}
	if workerCount <= 0 {
		return Plan{}, fmt.Errorf("importer: worker count must be positive, got %d", workerCount)
	}

	chunk := workingMemory / (int64(workerCount) * ChunkOverhead)
	if chunk <= 0 {
		chunk = 1
	}

	if fileSize == 0 {
		return Plan{ChunkSize: chunk, Shards: []Shard{{Start: 0, Length: 0}}}, nil
	}

	n := (fileSize + chunk - 1) / chunk
	shards := make([]Shard, 0, n)
	for start := int64(0); start < fileSize; start += chunk {
		length := chunk
		if start+length > fileSize {
			length = fileSize - start
		}
		shards = append(shards, Shard{Start: start, Length: length})
	}
	return Plan{ChunkSize: chunk, Shards: shards}, nil
}
