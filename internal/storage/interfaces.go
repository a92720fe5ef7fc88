package storage

import (
	"context"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
	"github.com/campusnav/campus-navigator-go/internal/rag"
)

// CatalogRepository reads and replaces the building catalog.
type CatalogRepository interface {
	// LoadEntities returns every building with its aliases in insertion order.
	LoadEntities(ctx context.Context) ([]catalog.Entity, error)
	// ReplaceCatalog clears buildings and aliases and inserts entities in one transaction.
	ReplaceCatalog(ctx context.Context, entities []catalog.Entity) error
	CountBuildings(ctx context.Context) (int, error)
}

// KnowledgeRepository reads and replaces the embedded knowledge base.
type KnowledgeRepository interface {
	// LoadChunks returns every chunk in storage order.
	LoadChunks(ctx context.Context) ([]rag.Chunk, error)
	// SaveChunksBatch appends chunks in one transaction and returns their IDs.
	SaveChunksBatch(ctx context.Context, chunks []KnowledgeChunk) ([]int64, error)
	// ReplaceChunks clears the table and inserts chunks in one transaction.
	ReplaceChunks(ctx context.Context, chunks []KnowledgeChunk) error
	CountChunks(ctx context.Context) (int, error)
}

var (
	_ CatalogRepository   = (*DB)(nil)
	_ KnowledgeRepository = (*DB)(nil)
)
