package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/campusnav/campus-navigator-go/internal/rag"
)

// LoadChunks returns every chunk in id order. Rows with an unreadable
// embedding are skipped with a warning rather than failing the load.
func (db *DB) LoadChunks(ctx context.Context) ([]rag.Chunk, error) {
	start := time.Now()

	rows, err := db.reader.QueryContext(ctx, `SELECT id, content, source, embedding FROM knowledge_base ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge base: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		chunks  []rag.Chunk
		skipped int
	)
	for rows.Next() {
		var (
			k   KnowledgeChunk
			raw string
		)
		if err := rows.Scan(&k.ID, &k.Content, &k.Source, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &k.Embedding); err != nil || len(k.Embedding) == 0 {
			skipped++
			continue
		}
		chunks = append(chunks, k.Chunk())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate knowledge base: %w", err)
	}

	if skipped > 0 {
		slog.WarnContext(ctx, "skipped knowledge chunks with invalid embeddings", "skipped", skipped)
	}
	logSlow(ctx, "LoadChunks", start, "count", len(chunks))
	return chunks, nil
}

// SaveChunksBatch appends chunks in one transaction. IDs are returned in
// input order.
func (db *DB) SaveChunksBatch(ctx context.Context, chunks []KnowledgeChunk) ([]int64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	start := time.Now()
	var ids []int64
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		ids, err = insertChunks(ctx, tx, chunks)
		return err
	})
	if err != nil {
		return nil, err
	}

	logSlow(ctx, "SaveChunksBatch", start, "count", len(chunks))
	return ids, nil
}

// ReplaceChunks swaps the whole knowledge base for chunks in one
// transaction. On any error the previous chunks are kept.
func (db *DB) ReplaceChunks(ctx context.Context, chunks []KnowledgeChunk) error {
	start := time.Now()

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM knowledge_base",
			"DELETE FROM sqlite_sequence WHERE name = 'knowledge_base'",
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to clear knowledge base: %w", err)
			}
		}
		_, err := insertChunks(ctx, tx, chunks)
		return err
	})
	if err != nil {
		return err
	}

	logSlow(ctx, "ReplaceChunks", start, "count", len(chunks))
	return nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []KnowledgeChunk) ([]int64, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO knowledge_base (content, source, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ids := make([]int64, 0, len(chunks))
	for _, c := range chunks {
		embedding, err := json.Marshal(c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to encode embedding: %w", err)
		}
		res, err := stmt.ExecContext(ctx, c.Content, c.Source, string(embedding))
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CountChunks returns the number of stored chunks.
func (db *DB) CountChunks(ctx context.Context) (int, error) {
	var count int
	if err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_base`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}
