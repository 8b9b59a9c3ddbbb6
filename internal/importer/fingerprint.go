package importer

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// StreamStepSize bounds how much of a consolidated column's value bytes
// are hashed per step, so fingerprinting a large column never requires
// holding a second full copy of it in memory beyond what ValueBytes
// already occupies.
const StreamStepSize = 1 << 20

// StreamFingerprint hashes data in fixed-size steps and returns the hex
// digest, stored as a dataset's `sha256sum` attribute (spec §4.7 step 6).
// This is distinct from a Page's content fingerprint (spec §4.1): that one
// identifies (element_type, element_bytes) for deduplication, this one is
// a published attribute of the `/<column>` dataset for downstream
// integrity checks.
func StreamFingerprint(data []byte) string {
	h := sha256.New()
	for i := 0; i < len(data); i += StreamStepSize {
		end := i + StreamStepSize
		if end > len(data) {
			end = len(data)
		}
		h.Write(data[i:end])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ensureColumnAttrs creates the column_attrs table on first use, so that
// reading an attribute before any was recorded reports "not found" rather
// than a missing-table error.
func (s *ShardStore) ensureColumnAttrs(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS import_shards.column_attrs (
			import_root VARCHAR NOT NULL,
			column_name VARCHAR NOT NULL,
			attr_key    VARCHAR NOT NULL,
			attr_value  VARCHAR NOT NULL,
			PRIMARY KEY (import_root, column_name, attr_key)
		);
	`); err != nil {
		return fmt.Errorf("importer: create column_attrs table: %w", err)
	}
	return nil
}

// recordColumnAttribute persists one key/value attribute of a column,
// keyed by import root. It stores each column's sha256sum, and the import
// configuration under the reserved "__import__" column, which a later
// import with the same root compares to decide whether to reuse shards.
func (s *ShardStore) recordColumnAttribute(ctx context.Context, importRoot, column, key, value string) error {
	if err := s.ensureColumnAttrs(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_shards.column_attrs (import_root, column_name, attr_key, attr_value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (import_root, column_name, attr_key) DO UPDATE SET attr_value = excluded.attr_value;
	`, importRoot, column, key, value)
	return err
}

// ColumnAttribute reads back a previously recorded column attribute.
func (s *ShardStore) ColumnAttribute(ctx context.Context, importRoot, column, key string) (string, bool, error) {
	if err := s.ensureColumnAttrs(ctx); err != nil {
		return "", false, err
	}
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT attr_value FROM import_shards.column_attrs
		WHERE import_root = ? AND column_name = ? AND attr_key = ?;
	`, importRoot, column, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// RecordSHA256Sum stores col's streamed hash as its sha256sum attribute.
func (s *ShardStore) RecordSHA256Sum(ctx context.Context, importRoot string, col ConsolidatedColumn) error {
	return s.recordColumnAttribute(ctx, importRoot, col.Name, "sha256sum", col.SHA256Sum)
}
