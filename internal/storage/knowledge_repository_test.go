package storage

import (
	"context"
	"math"
	"testing"
)

func TestSaveChunksBatch_LoadChunks(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	ids, err := db.SaveChunksBatch(ctx, []KnowledgeChunk{
		{Content: "The library opens at 8.", Source: "library.txt", Embedding: []float32{0.5, -0.25}},
		{Content: "The mess serves lunch at 12.", Source: "mess.txt", Embedding: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("SaveChunksBatch() error = %v", err)
	}
	if len(ids) != 2 || ids[0] >= ids[1] {
		t.Fatalf("ids = %v, want two increasing ids", ids)
	}

	chunks, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	first := chunks[0]
	if first.ID != ids[0] || first.Source != "library.txt" || first.Content != "The library opens at 8." {
		t.Errorf("chunks[0] = %+v", first)
	}
	if len(first.Embedding) != 2 || first.Embedding[0] != 0.5 || first.Embedding[1] != -0.25 {
		t.Errorf("embedding = %v", first.Embedding)
	}
}

func TestLoadChunks_SkipsInvalidEmbeddings(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveChunksBatch(ctx, []KnowledgeChunk{{Content: "good", Embedding: []float32{1}}}); err != nil {
		t.Fatal(err)
	}
	for _, raw := range []string{"not json", "[]"} {
		if _, err := db.Writer().ExecContext(ctx,
			"INSERT INTO knowledge_base (content, embedding) VALUES (?, ?)", "bad", raw); err != nil {
			t.Fatal(err)
		}
	}

	chunks, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatalf("LoadChunks() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "good" {
		t.Errorf("LoadChunks() = %+v", chunks)
	}
}

func TestReplaceChunks_EmptyClears(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveChunksBatch(ctx, []KnowledgeChunk{{Content: "a", Embedding: []float32{1}}}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceChunks(ctx, nil); err != nil {
		t.Fatalf("ReplaceChunks(nil) error = %v", err)
	}
	if n, err := db.CountChunks(ctx); err != nil || n != 0 {
		t.Errorf("CountChunks() = %d, %v; want 0", n, err)
	}
}

func TestSaveChunksBatch_Empty(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ids, err := db.SaveChunksBatch(context.Background(), nil)
	if err != nil || ids != nil {
		t.Errorf("SaveChunksBatch(nil) = %v, %v", ids, err)
	}
}

func TestReplaceChunks(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveChunksBatch(ctx, []KnowledgeChunk{
		{Content: "old one", Embedding: []float32{1}},
		{Content: "old two", Embedding: []float32{1}},
	}); err != nil {
		t.Fatal(err)
	}

	err := db.ReplaceChunks(ctx, []KnowledgeChunk{{Content: "new", Source: "about.txt", Embedding: []float32{0, 1}}})
	if err != nil {
		t.Fatalf("ReplaceChunks() error = %v", err)
	}

	chunks, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Content != "new" {
		t.Fatalf("LoadChunks() = %+v", chunks)
	}
	if chunks[0].ID != 1 {
		t.Errorf("id = %d, want ids restarted at 1", chunks[0].ID)
	}
}

func TestReplaceChunks_FailedInsertKeepsPrevious(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveChunksBatch(ctx, []KnowledgeChunk{{Content: "kept", Embedding: []float32{1}}}); err != nil {
		t.Fatal(err)
	}

	// NaN cannot be encoded as JSON, so the second insert fails after the delete.
	err := db.ReplaceChunks(ctx, []KnowledgeChunk{
		{Content: "fine", Embedding: []float32{1}},
		{Content: "broken", Embedding: []float32{float32(math.NaN())}},
	})
	if err == nil {
		t.Fatal("ReplaceChunks() error = nil, want encode failure")
	}

	chunks, err := db.LoadChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Content != "kept" {
		t.Errorf("LoadChunks() = %+v, want the previous chunk only", chunks)
	}
}

func TestReplaceChunks_CanceledContextKeepsPrevious(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	if _, err := db.SaveChunksBatch(context.Background(), []KnowledgeChunk{{Content: "kept", Embedding: []float32{1}}}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := db.ReplaceChunks(ctx, []KnowledgeChunk{{Content: "new", Embedding: []float32{1}}}); err == nil {
		t.Fatal("ReplaceChunks() error = nil with canceled context")
	}
	if n, err := db.CountChunks(context.Background()); err != nil || n != 1 {
		t.Errorf("CountChunks() = %d, %v; want 1", n, err)
	}
}
