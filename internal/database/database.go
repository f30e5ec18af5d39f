// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/reelhouse/internal/config"
	"github.com/tomtom215/reelhouse/internal/logging"
)

// DB wraps the DuckDB connection and implements the catalog, attempt and
// plan change stores.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// Per-invoice locks serializing batch scheduling
	invoiceLocks sync.Map
}

// New opens (creating if needed) the database at cfg.Path and applies
// pending migrations. ":memory:" opens a private in-memory database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d", path, numThreads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	db.configureConnectionPool()

	if err := db.runMigrations(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Database ready")
	return db, nil
}

// configureConnectionPool sets connection pool parameters. An in-memory
// database lives in a single connector, so all pooled connections share
// it.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn returns the underlying SQL connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Checkpoint flushes the WAL into the database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "CHECKPOINT")
	return err
}

// Close checkpoints and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint before close failed")
	}
	cancel()
	return db.conn.Close()
}

// lockInvoice serializes writers for one invoice.
func (db *DB) lockInvoice(invoiceID string) *sync.Mutex {
	v, _ := db.invoiceLocks.LoadOrStore(invoiceID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}
