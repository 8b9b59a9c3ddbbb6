package pagestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"
)

// ColdDB wraps the DuckDB connection backing cold Pages. DuckDB schemas
// stand in for the hierarchical-file "groups" the original engine builds
// on HDF5; tables stand in for datasets. Grounded on the teacher's
// internal/duckdb_conn.go connection-setup routine (extension loading,
// S3 PRAGMA configuration); generalized here from an EAV/query backend
// into the Page Store's cold tier.
type ColdDB struct {
	db   *sql.DB
	path string
}

// ColdDBOptions configures connection setup, including optional S3 access
// for an httpfs-backed remote archive (spec §5, "no swap-to-cold is
// automatic"; this only configures read/write capability, not policy).
type ColdDBOptions struct {
	Path           string
	MaxConnections int
	ConnectTimeout time.Duration

	EnableS3    bool
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// OpenColdDB opens (creating if necessary) the DuckDB file backing a Page
// Store's cold tier.
func OpenColdDB(opts ColdDBOptions) (*ColdDB, error) {
	dsn := opts.Path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	maxConns := opts.MaxConnections
	if maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	if opts.EnableS3 {
		if _, err := db.ExecContext(ctx, "INSTALL httpfs;"); err == nil {
			if _, err := db.ExecContext(ctx, "LOAD httpfs;"); err != nil {
				zap.S().Warnw("coldstore: load httpfs failed", "err", err)
			}
		} else {
			zap.S().Warnw("coldstore: install httpfs failed", "err", err)
		}
		if opts.S3AccessKey != "" {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA s3_access_key='%s';", opts.S3AccessKey)); err != nil {
				zap.S().Warnw("coldstore: set s3_access_key failed", "err", err)
			}
		}
		if opts.S3SecretKey != "" {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA s3_secret_key='%s';", opts.S3SecretKey)); err != nil {
				zap.S().Warnw("coldstore: set s3_secret_key failed", "err", err)
			}
		}
		if opts.S3Region != "" {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA s3_region='%s';", opts.S3Region)); err != nil {
				zap.S().Warnw("coldstore: set s3_region failed", "err", err)
			}
		}
		if opts.S3Endpoint != "" {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA s3_endpoint='%s';", opts.S3Endpoint)); err != nil {
				zap.S().Warnw("coldstore: set s3_endpoint failed", "err", err)
			}
		}
	}

	if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS pages;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create pages schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pages.page_data (
			fingerprint VARCHAR PRIMARY KEY,
			element_type INTEGER NOT NULL,
			length INTEGER NOT NULL,
			value_bytes BLOB NOT NULL,
			offset_bytes BLOB,
			imported BOOLEAN NOT NULL DEFAULT FALSE
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create page_data table: %w", err)
	}

	return &ColdDB{db: db, path: dsn}, nil
}

func (c *ColdDB) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the DuckDB file path this cold store is backed by.
func (c *ColdDB) Path() string {
	return c.path
}

// HealthCheck validates the DuckDB connection is usable.
func (c *ColdDB) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil {
		return fmt.Errorf("coldstore: not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var v int
	if err := c.db.QueryRowContext(ctx, "SELECT 1;").Scan(&v); err != nil {
		return fmt.Errorf("coldstore health query failed: %w", err)
	}
	return nil
}

// PutPageData writes a page's raw bytes to the cold table, keyed by
// fingerprint hex. imported marks a dataset as belonging to a source file
// (never deleted on release) rather than the engine's scratch store.
func (c *ColdDB) PutPageData(ctx context.Context, fpHex string, elementType ElementType, length int, valueBytes, offsetBytes []byte, imported bool) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pages.page_data (fingerprint, element_type, length, value_bytes, offset_bytes, imported)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO NOTHING;
	`, fpHex, int(elementType), length, valueBytes, offsetBytes, imported)
	return err
}

// GetPageData reads a page's raw bytes back from the cold table.
func (c *ColdDB) GetPageData(ctx context.Context, fpHex string) (elementType ElementType, length int, valueBytes, offsetBytes []byte, imported bool, err error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT element_type, length, value_bytes, offset_bytes, imported
		FROM pages.page_data WHERE fingerprint = ?;
	`, fpHex)
	var et int
	if err = row.Scan(&et, &length, &valueBytes, &offsetBytes, &imported); err != nil {
		return 0, 0, nil, nil, false, err
	}
	return ElementType(et), length, valueBytes, offsetBytes, imported, nil
}

// DeletePageData removes a page's row from the cold table. Only called for
// scratch-store pages (IsImported()==false) on release.
func (c *ColdDB) DeletePageData(ctx context.Context, fpHex string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM pages.page_data WHERE fingerprint = ?;`, fpHex)
	return err
}

// Exists reports whether a fingerprint already has cold metadata, used by
// BindCold to fail fast on a missing dataset (spec §4.1).
func (c *ColdDB) Exists(ctx context.Context, fpHex string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages.page_data WHERE fingerprint = ?;`, fpHex).Scan(&n)
	return n > 0, err
}
