package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
)

// slowQueryThreshold is when a database operation gets a warning log.
const slowQueryThreshold = 100 * time.Millisecond

func logSlow(ctx context.Context, operation string, start time.Time, attrs ...any) {
	if duration := time.Since(start); duration > slowQueryThreshold {
		args := append([]any{"operation", operation, "duration_ms", duration.Milliseconds()}, attrs...)
		slog.WarnContext(ctx, "slow database operation", args...)
	}
}

// LoadEntities returns every building in id order, aliases in insertion order.
func (db *DB) LoadEntities(ctx context.Context) ([]catalog.Entity, error) {
	start := time.Now()

	rows, err := db.reader.QueryContext(ctx, `
		SELECT b.id, b.name, b.lat, b.lng, COALESCE(b.description, ''), a.name
		FROM buildings b
		LEFT JOIN aliases a ON a.building_id = b.id
		ORDER BY b.id, a.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		entities []catalog.Entity
		lastID   int64 = -1
	)
	for rows.Next() {
		var (
			id    int64
			b     Building
			alias sql.NullString
		)
		if err := rows.Scan(&id, &b.Name, &b.Lat, &b.Lng, &b.Description, &alias); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		if id != lastID {
			entities = append(entities, b.Entity())
			lastID = id
		}
		if alias.Valid {
			last := &entities[len(entities)-1]
			last.Aliases = append(last.Aliases, alias.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buildings: %w", err)
	}

	logSlow(ctx, "LoadEntities", start, "count", len(entities))
	return entities, nil
}

// ReplaceCatalog clears buildings and aliases and inserts entities in order.
// Each building also gets its lowercased name as an alias.
func (db *DB) ReplaceCatalog(ctx context.Context, entities []catalog.Entity) error {
	start := time.Now()

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM aliases",
			"DELETE FROM buildings",
			"DELETE FROM sqlite_sequence WHERE name IN ('buildings', 'aliases')",
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to clear catalog: %w", err)
			}
		}

		insertBuilding, err := tx.PrepareContext(ctx,
			`INSERT INTO buildings (name, lat, lng, description) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare building insert: %w", err)
		}
		defer func() { _ = insertBuilding.Close() }()

		insertAlias, err := tx.PrepareContext(ctx, `INSERT INTO aliases (building_id, name) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare alias insert: %w", err)
		}
		defer func() { _ = insertAlias.Close() }()

		for _, e := range entities {
			res, err := insertBuilding.ExecContext(ctx, e.Name, e.Lat, e.Lng, e.Description)
			if err != nil {
				return fmt.Errorf("failed to insert building %q: %w", e.Name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read building id: %w", err)
			}

			seen := make(map[string]struct{}, len(e.Aliases)+1)
			for _, alias := range append(slices.Clone(e.Aliases), strings.ToLower(e.Name)) {
				if _, dup := seen[alias]; dup || strings.TrimSpace(alias) == "" {
					continue
				}
				seen[alias] = struct{}{}
				if _, err := insertAlias.ExecContext(ctx, id, alias); err != nil {
					return fmt.Errorf("failed to insert alias %q: %w", alias, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to replace catalog", "error", err)
		return err
	}

	logSlow(ctx, "ReplaceCatalog", start, "count", len(entities))
	return nil
}

// CountBuildings returns the number of buildings.
func (db *DB) CountBuildings(ctx context.Context) (int, error) {
	var count int
	if err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM buildings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count buildings: %w", err)
	}
	return count, nil
}
