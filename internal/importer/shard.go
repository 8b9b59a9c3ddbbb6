package importer

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/lychee-technology/gridstore/internal/pagestore"
)

// ShardStore is the "shared hierarchical file" spec §4.7 step 4 describes:
// a single DuckDB file under which every worker writes
// `/<import-root>/<column>/<start>` datasets. Grounded on
// internal/pagestore/colddb.go's connection-setup shape, generalized from
// one-row-per-fingerprint to one-row-per-shard.
type ShardStore struct {
	db *sql.DB
}

// OpenShardStore opens (creating if necessary) the DuckDB file backing an
// import run's shards.
func OpenShardStore(path string) (*ShardStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("importer: open shard store: %w", err)
	}
	if _, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS import_shards;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("importer: create import_shards schema: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS import_shards.shard_data (
			import_root  VARCHAR NOT NULL,
			column_name  VARCHAR NOT NULL,
			shard_start  BIGINT NOT NULL,
			element_type INTEGER NOT NULL,
			length       INTEGER NOT NULL,
			value_bytes  BLOB NOT NULL,
			offset_bytes BLOB,
			PRIMARY KEY (import_root, column_name, shard_start)
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("importer: create shard_data table: %w", err)
	}
	return &ShardStore{db: db}, nil
}

func (s *ShardStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteShard persists one worker's per-column typed array under
// `/<importRoot>/<column>/<start>`. Contending writers retry per policy
// (spec §4.7 step 4: "each worker retries with randomized backoff up to a
// bounded number of attempts before failing").
func (s *ShardStore) WriteShard(ctx context.Context, policy RetryPolicy, importRoot, column string, start int64, t pagestore.ElementType, length int, valueBytes, offsetBytes []byte) error {
	return policy.Retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO import_shards.shard_data
				(import_root, column_name, shard_start, element_type, length, value_bytes, offset_bytes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (import_root, column_name, shard_start) DO UPDATE SET
				element_type = excluded.element_type,
				length = excluded.length,
				value_bytes = excluded.value_bytes,
				offset_bytes = excluded.offset_bytes;
		`, importRoot, column, start, int(t), length, valueBytes, offsetBytes)
		return err
	})
}

// shardRow is one persisted shard, as read back during consolidation.
type shardRow struct {
	start       int64
	elementType pagestore.ElementType
	length      int
	valueBytes  []byte
	offsetBytes []byte
}

// ReadShards returns every shard written for column under importRoot,
// ordered by ascending start (spec §4.7 step 5: "group shards per column
// in ascending start order").
func (s *ShardStore) ReadShards(ctx context.Context, importRoot, column string) ([]shardRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT shard_start, element_type, length, value_bytes, offset_bytes
		FROM import_shards.shard_data
		WHERE import_root = ? AND column_name = ?
		ORDER BY shard_start ASC;
	`, importRoot, column)
	if err != nil {
		return nil, fmt.Errorf("importer: read shards for column %s: %w", column, err)
	}
	defer rows.Close()

	var out []shardRow
	for rows.Next() {
		var r shardRow
		var et int
		if err := rows.Scan(&r.start, &et, &r.length, &r.valueBytes, &r.offsetBytes); err != nil {
			return nil, fmt.Errorf("importer: scan shard row: %w", err)
		}
		r.elementType = pagestore.ElementType(et)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out, rows.Err()
}

// ColumnNames returns the distinct column names with shards under
// importRoot.
func (s *ShardStore) ColumnNames(ctx context.Context, importRoot string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT column_name FROM import_shards.shard_data WHERE import_root = ?;
	`, importRoot)
	if err != nil {
		return nil, fmt.Errorf("importer: list import columns: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
