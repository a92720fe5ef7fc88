package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusnav/campus-navigator-go/internal/logger"
)

// fakeEmbedder returns [len(text)] per text and fails batches containing
// any sentence in failOn.
type fakeEmbedder struct {
	failOn   string
	inflight atomic.Int32
	peak     atomic.Int32

	mu     sync.Mutex
	titles []string
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, title string, texts []string) ([][]float32, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.titles = append(f.titles, title)
	f.mu.Unlock()

	if f.failOn != "" && slices.Contains(texts, f.failOn) {
		return nil, errors.New("quota exceeded")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", &strings.Builder{})
}

func TestEmbedFile_PreservesOrder(t *testing.T) {
	f := sourceFile{name: "library.txt", sentences: []string{"a", "bb", "ccc", "dddd", "eeeee"}}
	emb := &fakeEmbedder{}

	chunks := embedFile(context.Background(), emb, f, 2, 3, testLogger(), nil)

	require.Len(t, chunks, 5)
	for i, c := range chunks {
		assert.Equal(t, f.sentences[i], c.Content)
		assert.Equal(t, "library.txt", c.Source)
		assert.Equal(t, []float32{float32(i + 1)}, c.Embedding)
	}
	for _, title := range emb.titles {
		assert.Equal(t, "Content from library.txt", title)
	}
	assert.Len(t, emb.titles, 3)
}

func TestEmbedFile_SkipsFailedBatch(t *testing.T) {
	f := sourceFile{name: "hostel.txt", sentences: []string{"one", "two", "three", "four"}}
	emb := &fakeEmbedder{failOn: "three"}

	chunks := embedFile(context.Background(), emb, f, 2, 2, testLogger(), nil)

	require.Len(t, chunks, 2)
	assert.Equal(t, "one", chunks[0].Content)
	assert.Equal(t, "two", chunks[1].Content)
}

func TestEmbedFile_BoundsConcurrency(t *testing.T) {
	sentences := make([]string, 40)
	for i := range sentences {
		sentences[i] = strings.Repeat("x", i+1)
	}
	emb := &fakeEmbedder{}

	chunks := embedFile(context.Background(), emb, sourceFile{name: "f.txt", sentences: sentences}, 1, 3, testLogger(), nil)

	assert.Len(t, chunks, 40)
	assert.LessOrEqual(t, emb.peak.Load(), int32(3))
}

func TestReadSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("The library opens at 9 AM. It closes at 11 PM."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("The mess serves lunch from noon."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	files, err := readSources(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].name)
	assert.Equal(t, "b.txt", files[1].name)
	assert.Len(t, files[1].sentences, 2)
}

func TestReadSources_Empty(t *testing.T) {
	_, err := readSources(t.TempDir())
	assert.Error(t, err)
}
