package storage

import (
	"github.com/campusnav/campus-navigator-go/internal/catalog"
	"github.com/campusnav/campus-navigator-go/internal/rag"
)

// Building is a row of the buildings table with its aliases.
type Building struct {
	ID          int64
	Name        string
	Lat         float64
	Lng         float64
	Description string
	Aliases     []string
}

// Entity converts b to a catalog entity.
func (b Building) Entity() catalog.Entity {
	return catalog.Entity{
		Name:        b.Name,
		Lat:         b.Lat,
		Lng:         b.Lng,
		Description: b.Description,
		Aliases:     b.Aliases,
	}
}

// KnowledgeChunk is a row of the knowledge_base table.
type KnowledgeChunk struct {
	ID        int64
	Content   string
	Source    string
	Embedding []float32
}

// Chunk converts k to a retrieval chunk.
func (k KnowledgeChunk) Chunk() rag.Chunk {
	return rag.Chunk{ID: k.ID, Content: k.Content, Source: k.Source, Embedding: k.Embedding}
}
