package rag

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled", []float32{1, 1}, []float32{5, 5}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func corpus() []Chunk {
	return []Chunk{
		{ID: 1, Content: "The director is Prof. Moorthy.", Embedding: []float32{1, 0, 0}},
		{ID: 2, Content: "The library opens at 8 AM.", Embedding: []float32{0, 1, 0}},
		{ID: 3, Content: "Hostels are on the east side.", Embedding: []float32{0, 0, 1}},
		{ID: 4, Content: "The director's office is in the admin block.", Embedding: []float32{0.9, 0.1, 0}},
		{ID: 5, Content: "Duplicate of chunk two.", Embedding: []float32{0, 2, 0}},
	}
}

func TestRetrieve_OrdersBySimilarity(t *testing.T) {
	got := Retrieve([]float32{1, 0, 0}, corpus(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
	assert.GreaterOrEqual(t, got[0].Similarity, got[1].Similarity)
}

func TestRetrieve_TiesKeepCorpusOrder(t *testing.T) {
	for range 10 {
		got := Retrieve([]float32{0, 1, 0}, corpus(), 2)
		require.Len(t, got, 2)
		assert.Equal(t, []int64{2, 5}, []int64{got[0].ID, got[1].ID})
	}
}

func TestRetrieve_DefaultK(t *testing.T) {
	assert.Len(t, Retrieve([]float32{1, 1, 1}, corpus(), 0), DefaultTopK)
	assert.Len(t, Retrieve([]float32{1, 1, 1}, corpus(), -4), DefaultTopK)
}

func TestRetrieve_KLargerThanCorpus(t *testing.T) {
	assert.Len(t, Retrieve([]float32{1, 1, 1}, corpus(), 50), len(corpus()))
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	got := Retrieve([]float32{1, 0}, nil, 3)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRetrieve_DoesNotReorderInput(t *testing.T) {
	in := corpus()
	Retrieve([]float32{0, 0, 1}, in, 3)
	assert.Equal(t, corpus(), in)
}

func TestCorpus(t *testing.T) {
	c := NewCorpus(corpus())
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, 3, c.Dimensions())
	assert.Equal(t,
		[]string{"Hostels are on the east side."},
		Contents(c.Retrieve([]float32{0, 0, 1}, 1)))

	var nilCorpus *Corpus
	assert.Zero(t, nilCorpus.Len())
	assert.Empty(t, nilCorpus.Retrieve([]float32{1}, 3))
}

func TestRetrieve_MismatchedDimensionsScoreZero(t *testing.T) {
	chunks := []Chunk{
		{ID: 1, Content: "old model", Embedding: []float32{1, 0}},
		{ID: 2, Content: "new model", Embedding: []float32{1, 0, 0}},
	}
	got := Retrieve([]float32{1, 0, 0}, chunks, 2)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.False(t, math.IsNaN(got[1].Similarity))
	assert.Zero(t, got[1].Similarity)
}
