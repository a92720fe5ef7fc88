package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/campusnav/campus-navigator-go/internal/cache"
	domerrors "github.com/campusnav/campus-navigator-go/internal/errors"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
)

type countingEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(context.Context, string) ([]float32, error) {
	c.calls++
	return c.vec, c.err
}

func TestCachedEmbedder_HitAfterMiss(t *testing.T) {
	mem := cache.NewMemoryClient(16)
	defer mem.Close()

	next := &countingEmbedder{vec: []float32{0.25, -1, 3.5}}
	reg := prometheus.NewRegistry()
	e := NewCachedEmbedder(next, mem, "model-a", 0, time.Minute, metrics.New(reg))

	first, err := e.Embed(context.Background(), "Where is the Library?")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	// Case and spacing differences share one entry.
	second, err := e.Embed(context.Background(), "  where is   the library? ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if next.calls != 1 {
		t.Errorf("underlying calls = %d, want 1", next.calls)
	}
	if len(second) != len(first) {
		t.Fatalf("cached vector length = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("cached[%d] = %v, want %v", i, second[i], first[i])
		}
	}
}

func TestCachedEmbedder_ModelScopesKeys(t *testing.T) {
	mem := cache.NewMemoryClient(16)
	defer mem.Close()

	next := &countingEmbedder{vec: []float32{1}}
	a := NewCachedEmbedder(next, mem, "model-a", 0, time.Minute, nil)
	b := NewCachedEmbedder(next, mem, "model-b", 0, time.Minute, nil)

	_, _ = a.Embed(context.Background(), "canteen")
	_, _ = b.Embed(context.Background(), "canteen")

	if next.calls != 2 {
		t.Errorf("underlying calls = %d, want 2", next.calls)
	}
	if mem.Len() != 2 {
		t.Errorf("cache entries = %d, want 2", mem.Len())
	}
}

func TestCachedEmbedder_WidthScopesKeys(t *testing.T) {
	mem := cache.NewMemoryClient(16)
	defer mem.Close()

	wide := &countingEmbedder{vec: []float32{1, 2, 3}}
	narrow := &countingEmbedder{vec: []float32{1, 2}}
	a := NewCachedEmbedder(wide, mem, "model-a", 3, time.Minute, nil)
	b := NewCachedEmbedder(narrow, mem, "model-a", 2, time.Minute, nil)

	if _, err := a.Embed(context.Background(), "canteen"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	got, err := b.Embed(context.Background(), "canteen")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("vector width = %d, want 2", len(got))
	}
	if narrow.calls != 1 {
		t.Errorf("narrow calls = %d, want 1", narrow.calls)
	}
}

func TestCachedEmbedder_WrongWidthEntryIsMiss(t *testing.T) {
	mem := cache.NewMemoryClient(16)
	defer mem.Close()

	next := &countingEmbedder{vec: []float32{1, 2}}
	e := NewCachedEmbedder(next, mem, "m", 2, time.Minute, nil)
	_ = mem.Set(context.Background(), e.key("gym"), encodeVector([]float32{1, 2, 3}), time.Minute)

	got, err := e.Embed(context.Background(), "gym")
	if err != nil || len(got) != 2 {
		t.Fatalf("Embed() = %v, %v", got, err)
	}
	if next.calls != 1 {
		t.Errorf("underlying calls = %d, want 1", next.calls)
	}
}

func TestCachedEmbedder_ErrorsAreNotCached(t *testing.T) {
	mem := cache.NewMemoryClient(16)
	defer mem.Close()

	next := &countingEmbedder{err: domerrors.ErrEmbedding}
	e := NewCachedEmbedder(next, mem, "m", 0, time.Minute, nil)

	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, domerrors.ErrEmbedding) {
		t.Fatalf("error = %v, want ErrEmbedding", err)
	}
	if mem.Len() != 0 {
		t.Errorf("cache entries = %d, want 0", mem.Len())
	}
}

func TestCachedEmbedder_CorruptEntryIsMiss(t *testing.T) {
	mem := cache.NewMemoryClient(16)
	defer mem.Close()

	next := &countingEmbedder{vec: []float32{2}}
	e := NewCachedEmbedder(next, mem, "m", 0, time.Minute, nil)
	_ = mem.Set(context.Background(), e.key("gym"), []byte{1, 2, 3}, time.Minute)

	got, err := e.Embed(context.Background(), "gym")
	if err != nil || len(got) != 1 || got[0] != 2 {
		t.Fatalf("Embed() = %v, %v", got, err)
	}
	if next.calls != 1 {
		t.Errorf("underlying calls = %d, want 1", next.calls)
	}
}

func TestVectorEncoding(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 1e-7}
	out, ok := decodeVector(encodeVector(in))
	if !ok {
		t.Fatal("decodeVector() rejected its own encoding")
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}

	if _, ok := decodeVector(nil); ok {
		t.Error("decodeVector(nil) ok")
	}
	if _, ok := decodeVector([]byte{1, 2, 3, 4, 5}); ok {
		t.Error("decodeVector accepted a partial float")
	}
}

func TestGeminiEmbedder_Validation(t *testing.T) {
	if _, err := NewGeminiEmbedder(context.Background(), "", "", 0); !errors.Is(err, domerrors.ErrEmbedding) {
		t.Errorf("NewGeminiEmbedder without key error = %v", err)
	}

	e := &GeminiEmbedder{model: DefaultEmbeddingModel, dims: 768, chain: newChain(nil)}
	if _, err := e.Embed(context.Background(), "   "); !errors.Is(err, domerrors.ErrEmbedding) {
		t.Errorf("Embed(blank) error = %v, want ErrEmbedding", err)
	}
	if e.Dimensions() != 768 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}

	cfg := e.config(taskRetrievalDocument, "Library")
	if cfg.TaskType != taskRetrievalDocument || cfg.Title != "Library" {
		t.Errorf("config() = %+v", cfg)
	}
	if cfg.OutputDimensionality == nil || *cfg.OutputDimensionality != 768 {
		t.Error("config() did not set output dimensionality")
	}
}
