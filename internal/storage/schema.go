package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all tables and indexes. It is idempotent.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createBuildingsTable(ctx, db); err != nil {
		return err
	}
	if err := createAliasesTable(ctx, db); err != nil {
		return err
	}
	return createKnowledgeBaseTable(ctx, db)
}

func createBuildingsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		description TEXT
	);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create buildings table: %w", err)
	}
	return nil
}

func createAliasesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS aliases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		building_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		FOREIGN KEY (building_id) REFERENCES buildings (id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_aliases_building_id ON aliases(building_id);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create aliases table: %w", err)
	}
	return nil
}

// knowledge_base keeps the embedding as a JSON array so the database stays
// readable with the sqlite3 shell.
func createKnowledgeBaseTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS knowledge_base (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		embedding TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_base_source ON knowledge_base(source);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create knowledge_base table: %w", err)
	}
	return nil
}
