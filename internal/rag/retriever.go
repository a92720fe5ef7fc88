// Package rag provides the retrieval half of retrieval-augmented
// generation: ranking a small in-memory corpus of sentence chunks against
// a query embedding by cosine similarity.
package rag

import (
	"cmp"
	"math"
	"slices"
)

// DefaultTopK is used when a non-positive k is requested.
const DefaultTopK = 3

// Chunk is a sentence-level fragment of reference text with its embedding.
type Chunk struct {
	ID        int64
	Content   string
	Source    string // originating file name, informational only
	Embedding []float32
}

// Scored is a chunk with its similarity to the query.
type Scored struct {
	Chunk
	Similarity float64
}

// CosineSimilarity returns the cosine of the angle between a and b.
// A length mismatch or a zero-magnitude vector scores 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, aMag, bMag float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		aMag += x * x
		bMag += y * y
	}
	if aMag == 0 || bMag == 0 {
		return 0
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag))
}

// Retrieve scores every chunk against query and returns at most k results,
// highest similarity first. Equal scores keep corpus order, so the result is
// deterministic for a fixed corpus. An empty corpus yields an empty slice.
func Retrieve(query []float32, corpus []Chunk, k int) []Scored {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(corpus) == 0 || len(query) == 0 {
		return []Scored{}
	}

	scored := make([]Scored, len(corpus))
	for i, c := range corpus {
		scored[i] = Scored{Chunk: c, Similarity: CosineSimilarity(query, c.Embedding)}
	}
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Contents returns the text of each scored chunk in order.
func Contents(results []Scored) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Content
	}
	return out
}

// Corpus is an immutable chunk collection, shared read-only by concurrent queries.
type Corpus struct {
	chunks []Chunk
	dims   int
}

// NewCorpus copies chunks into a corpus. dims is taken from the first
// chunk with a non-empty embedding.
func NewCorpus(chunks []Chunk) *Corpus {
	c := &Corpus{chunks: slices.Clone(chunks)}
	for _, ch := range c.chunks {
		if len(ch.Embedding) > 0 {
			c.dims = len(ch.Embedding)
			break
		}
	}
	return c
}

// Retrieve ranks the corpus against query. A nil corpus behaves as empty.
func (c *Corpus) Retrieve(query []float32, k int) []Scored {
	if c == nil {
		return Retrieve(query, nil, k)
	}
	return Retrieve(query, c.chunks, k)
}

// Len returns the number of chunks.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.chunks)
}

// Dimensions returns the embedding width, or 0 for an empty corpus.
func (c *Corpus) Dimensions() int {
	if c == nil {
		return 0
	}
	return c.dims
}
