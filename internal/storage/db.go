// Package storage persists the campus dataset in SQLite: the building
// catalog with its aliases and the embedded knowledge base.
//
// Writes go through a single-connection pool and reads through a separate
// pool, so WAL readers never queue behind an ingestion transaction.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql

	"github.com/campusnav/campus-navigator-go/internal/config"
)

const memoryPath = ":memory:"

// DB wraps the SQLite writer and reader pools.
type DB struct {
	writer *sql.DB
	reader *sql.DB
	path   string
}

// New opens dbPath, creating its directory when needed, and initializes
// the schema. ":memory:" opens a private in-memory database.
func New(ctx context.Context, dbPath string) (*DB, error) {
	if dbPath != memoryPath {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	writer, err := openPool(ctx, dsn(dbPath, false))
	if err != nil {
		return nil, fmt.Errorf("failed to open writer: %w", err)
	}
	// One writer connection serializes writes instead of bouncing off SQLITE_BUSY.
	writer.SetMaxOpenConns(1)

	db := &DB{writer: writer, reader: writer, path: dbPath}

	if err := InitSchema(ctx, writer); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Each :memory: connection is its own database, so reads share the writer.
	if dbPath != memoryPath {
		reader, err := openPool(ctx, dsn(dbPath, true))
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("failed to open reader: %w", err)
		}
		reader.SetMaxOpenConns(8)
		reader.SetMaxIdleConns(4)
		db.reader = reader
	}

	return db, nil
}

// dsn builds a modernc.org/sqlite DSN. Pragmas in the DSN are applied to
// every pooled connection, not only the first one.
func dsn(path string, readOnly bool) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.DatabaseBusyTimeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if path != memoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	if readOnly {
		q.Add("_pragma", "query_only(1)")
	}
	return "file:" + path + "?" + q.Encode()
}

func openPool(ctx context.Context, dsn string) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetConnMaxLifetime(config.DatabaseConnMaxLifetime)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// NewTestDB creates an in-memory database for tests.
func NewTestDB() (*DB, error) {
	return New(context.Background(), memoryPath)
}

// Close closes both pools.
func (db *DB) Close() error {
	var err error
	if db.reader != nil && db.reader != db.writer {
		err = db.reader.Close()
	}
	if db.writer != nil {
		if werr := db.writer.Close(); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// Ping checks both pools.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	if err := db.reader.PingContext(ctx); err != nil {
		return fmt.Errorf("reader: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Reader returns the read pool.
func (db *DB) Reader() *sql.DB {
	return db.reader
}

// Writer returns the single-connection write pool.
func (db *DB) Writer() *sql.DB {
	return db.writer
}

// WithTx runs fn inside a write transaction, committing when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// VacuumInto writes a compacted, self-contained copy of the database to
// dest. dest must not exist. The copy is consistent even while readers are
// active, which makes it the unit of snapshot publishing.
func (db *DB) VacuumInto(ctx context.Context, dest string) error {
	if db.path == memoryPath {
		return fmt.Errorf("vacuum into: in-memory database")
	}
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("vacuum into: %s already exists", dest)
	}

	start := time.Now()
	if _, err := db.writer.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	logSlow(ctx, "VacuumInto", start)
	return nil
}
