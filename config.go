package gridstore

import (
	"time"
)

// EngineConfig groups the Engine's settings: a memory budget, worker pool
// sizing, the cold-storage backing (DuckDB file plus S3 settings), import
// retry settings, and logging. Some fields are only checked by Validate;
// the per-section comments say which.
type EngineConfig struct {
	Memory    MemoryConfig    `json:"memory"`
	Workers   WorkersConfig   `json:"workers"`
	ColdStore ColdStoreConfig `json:"coldStore"`
	Import    ImportConfig    `json:"import"`
	Logging   LoggingConfig   `json:"logging"`
}

// MemoryConfig describes a working-memory budget for import chunk sizes
// (chunk = M / (W * overhead)). Validate checks it, but neither Engine nor
// the importer reads it: importer.BuildPlan takes M from
// importer.Config.WorkingMemory and uses the fixed importer.ChunkOverhead.
type MemoryConfig struct {
	// WorkingMemoryBytes is the total memory the importer may use across all
	// workers at once. Zero means "use a conservative built-in default".
	WorkingMemoryBytes int64 `json:"workingMemoryBytes"`
	// OverheadFactor is the calibration constant >= 1 applied to the naive
	// chunk size to account for parsing and per-row overhead.
	OverheadFactor float64 `json:"overheadFactor"`
}

// WorkersConfig sizes the Task Runner goroutine pool.
type WorkersConfig struct {
	Count int `json:"count"`
}

// ColdStoreConfig points at the DuckDB file used as the engine's scratch
// hierarchical store, plus S3 settings mirrored from the teacher's
// DuckDBConfig S3 pragmas. Open passes the region, endpoint and keys to
// the cold store's httpfs setup; S3Bucket is only checked by Validate and
// S3Prefix is not read, so no archival upload takes place.
type ColdStoreConfig struct {
	DBPath         string        `json:"dbPath"`
	MaxConnections int           `json:"maxConnections"`
	ConnectTimeout time.Duration `json:"connectTimeout"`

	EnableS3    bool   `json:"enableS3"`
	S3Bucket    string `json:"s3Bucket"`
	S3Prefix    string `json:"s3Prefix"`
	S3Region    string `json:"s3Region"`
	S3Endpoint  string `json:"s3Endpoint"`
	S3AccessKey string `json:"s3AccessKey"`
	S3SecretKey string `json:"s3SecretKey"`
}

// ImportConfig controls the parallel importer's shard-write retry policy.
// SniffSampleBytes is not read: the importer always samples
// importer.SampleSize bytes.
type ImportConfig struct {
	MaxShardWriteAttempts int           `json:"maxShardWriteAttempts"`
	BackoffBase           time.Duration `json:"backoffBase"`
	BackoffMax            time.Duration `json:"backoffMax"`
	SniffSampleBytes      int           `json:"sniffSampleBytes"`
}

// LoggingConfig configures the engine's zap logger.
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// DefaultEngineConfig returns a conservative, ready-to-use configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Memory: MemoryConfig{
			WorkingMemoryBytes: 256 << 20, // 256 MiB
			OverheadFactor:     1.5,
		},
		Workers: WorkersConfig{
			Count: 4,
		},
		ColdStore: ColdStoreConfig{
			DBPath:         "",
			MaxConnections: 1,
			ConnectTimeout: 5 * time.Second,
		},
		Import: ImportConfig{
			MaxShardWriteAttempts: 8,
			BackoffBase:           10 * time.Millisecond,
			BackoffMax:            500 * time.Millisecond,
			SniffSampleBytes:      64 << 10, // 64 KiB
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for obviously inconsistent values,
// surfacing a configuration-class GridError rather than failing deep inside
// the importer or page store.
func (c EngineConfig) Validate() error {
	if c.Memory.OverheadFactor < 1 {
		return NewConfigurationError("bad_overhead_factor", "memory.overheadFactor must be >= 1").
			WithComponent("config")
	}
	if c.Workers.Count <= 0 {
		return NewConfigurationError("bad_worker_count", "workers.count must be > 0").
			WithComponent("config")
	}
	if c.ColdStore.EnableS3 {
		if c.ColdStore.S3Bucket == "" {
			return NewConfigurationError("missing_s3_bucket", "coldStore.enableS3=true requires coldStore.s3Bucket").
				WithComponent("config")
		}
	}
	if c.Import.MaxShardWriteAttempts <= 0 {
		return NewConfigurationError("bad_retry_budget", "import.maxShardWriteAttempts must be > 0").
			WithComponent("config")
	}
	return nil
}
