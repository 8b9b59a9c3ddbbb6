package importer

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// Config is the full import configuration recorded as a destination-file
// attribute for idempotence. When an import's Config matches the one
// recorded for its import root, the shard stage is skipped and the later
// stages run again from the stored shards.
type Config struct {
	SourcePath    string            `json:"source_path"`
	SourceSize    int64             `json:"source_size"`
	Delimiter     string            `json:"delimiter"`
	Newline       string            `json:"newline"`
	Quote         string            `json:"quote,omitempty"`
	Brackets      string            `json:"brackets,omitempty"` // consecutive open/close pairs, e.g. "(){}[]"
	HasHeader     bool              `json:"has_header"`
	Columns       []ColumnSelection `json:"columns"`
	WorkerCount   int               `json:"worker_count"`
	WorkingMemory int64             `json:"working_memory"`
}

// ColumnSelection names or indexes one column to import, and the type to
// attempt conversion into (spec §4.7 "Type policy").
type ColumnSelection struct {
	Name        string `json:"name,omitempty"`
	Index       int    `json:"index,omitempty"`
	ElementType string `json:"element_type"`
}

// configSchemaJSON is the JSON Schema describing Config's on-disk shape.
// Grounded on the teacher's transformer.go marshal-through-jsonschema.Schema
// pattern; repurposed here to describe import configs rather than entity
// transform schemas.
const configSchemaJSON = `{
  "type": "object",
  "required": ["source_path", "source_size", "delimiter", "newline", "has_header", "columns", "worker_count", "working_memory"],
  "properties": {
    "source_path": {"type": "string", "minLength": 1},
    "source_size": {"type": "integer", "minimum": 0},
    "delimiter": {"type": "string", "minLength": 1},
    "newline": {"type": "string", "minLength": 1},
    "quote": {"type": "string"},
    "brackets": {"type": "string"},
    "has_header": {"type": "boolean"},
    "worker_count": {"type": "integer", "minimum": 1},
    "working_memory": {"type": "integer", "minimum": 1},
    "columns": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["element_type"],
        "properties": {
          "name": {"type": "string"},
          "index": {"type": "integer", "minimum": 0},
          "element_type": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// Validate checks cfg against the import-configuration JSON Schema. The
// schema is parsed once per call (configs are validated a handful of
// times per import run, not in a hot loop) mirroring the teacher's
// marshal-then-Resolve sequence in transformer.go.
func (c Config) Validate() error {
	var schema jsonschema.Schema
	if err := json.Unmarshal([]byte(configSchemaJSON), &schema); err != nil {
		return fmt.Errorf("importer: unmarshal config schema: %w", err)
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("importer: resolve config schema: %w", err)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("importer: marshal config for validation: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("importer: unmarshal config for validation: %w", err)
	}

	if err := resolved.Validate(data); err != nil {
		return fmt.Errorf("importer: config validation failed: %w", err)
	}
	return nil
}

// Equal reports whether c and other describe the same import, field by
// field. Import's reuse check does not call it: it compares the recorded
// JSON rendering of the configuration (configDigest).
func (c Config) Equal(other Config) bool {
	return reflect.DeepEqual(c, other)
}
