package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
	"github.com/campusnav/campus-navigator-go/internal/composer"
	"github.com/campusnav/campus-navigator-go/internal/intent"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
	"github.com/campusnav/campus-navigator-go/internal/rag"
)

// stubEmbedder maps known texts to fixed vectors and everything else to fallback.
type stubEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return s.fallback, nil
}

// stubGenerator echoes a fixed reply and records prompts.
type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func (s *stubGenerator) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type stubClassifier struct {
	label intent.Label
	err   error
}

func (s stubClassifier) Classify(context.Context, string) (intent.Label, error) {
	return s.label, s.err
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Entity{
		{Name: "Library", Lat: 8.6826, Lng: 76.9010, Description: "Central library.", Aliases: []string{"library"}},
		{Name: "Lecture Hall Complex", Lat: 8.6830, Lng: 76.9021, Description: "Lecture halls.", Aliases: []string{"lhc", "lecture hall"}},
		{Name: "I-Cafe", Lat: 8.6815, Lng: 76.9002, Description: "Campus cafe.", Aliases: []string{"i cafe", "icafe"}},
	})
	require.NoError(t, err)
	return cat
}

func testCorpus() []rag.Chunk {
	return []rag.Chunk{
		{ID: 1, Content: "The director is Prof. Example.", Source: "people.txt", Embedding: []float32{1, 0, 0}},
		{ID: 2, Content: "The mess serves breakfast at 7 am.", Source: "mess.txt", Embedding: []float32{0, 1, 0}},
		{ID: 3, Content: "The institute was founded in 2008.", Source: "about.txt", Embedding: []float32{0.9, 0.1, 0}},
		{ID: 4, Content: "Hostels are on the north side.", Source: "hostel.txt", Embedding: []float32{0, 0, 1}},
	}
}

func newTestResolver(t *testing.T, chunks []rag.Chunk, emb Embedder, gen TextGenerator, opts ...Option) *Resolver {
	t.Helper()
	store := NewStore(NewSnapshot(testCatalog(t), chunks, "test"))
	r, err := New(DefaultConfig(), store, emb, gen, opts...)
	require.NoError(t, err)
	return r
}

func TestResolve_Location(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{reply: "A lovely place to read."}
	r := newTestResolver(t, nil, nil, gen)

	res := r.Resolve(context.Background(), "is the library open")

	require.Equal(t, composer.TypeLocation, res.Type)
	assert.Equal(t, "Library", res.Name)
	assert.Equal(t, "A lovely place to read.", res.Description)
}

func TestResolve_Route(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{reply: "unused"}
	r := newTestResolver(t, nil, nil, gen)

	res := r.Resolve(context.Background(), "walking from library to lhc")

	require.Equal(t, composer.TypeRoute, res.Type)
	assert.Equal(t, "Library", res.From.Name)
	assert.Equal(t, "Lecture Hall Complex", res.To.Name)
	assert.Equal(t, "Central library.", res.From.Description)
	assert.Zero(t, gen.count(), "routes are not enriched")
}

func TestResolve_RouteOrderFollowsQuery(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, nil, nil, nil)

	res := r.Resolve(context.Background(), "lecture hall to the library")

	require.Equal(t, composer.TypeRoute, res.Type)
	assert.Equal(t, "Lecture Hall Complex", res.From.Name)
	assert.Equal(t, "Library", res.To.Name)
}

func TestResolve_TwoPlacesWithoutConnectiveIsLocation(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, nil, nil, nil)

	res := r.Resolve(context.Background(), "library or lhc, which is bigger")

	require.Equal(t, composer.TypeLocation, res.Type)
	assert.Equal(t, "Library", res.Name)
}

func TestResolve_CaseAndHyphenInsensitive(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, nil, nil, nil)

	for _, q := range []string{"I-Cafe", "i cafe", "I CAFE", "where is the i-cafe?"} {
		res := r.Resolve(context.Background(), q)
		require.Equal(t, composer.TypeLocation, res.Type, "query %q", q)
		assert.Equal(t, "I-Cafe", res.Name, "query %q", q)
	}
}

func TestResolve_EnrichmentFailureKeepsDescription(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{err: errors.New("quota exhausted")}
	r := newTestResolver(t, nil, nil, gen)

	res := r.Resolve(context.Background(), "where is the library")

	require.Equal(t, composer.TypeLocation, res.Type)
	assert.Equal(t, "Central library.", res.Description)
}

func TestResolve_Greeting(t *testing.T) {
	t.Parallel()
	emb := &stubEmbedder{fallback: []float32{1, 0, 0}}
	gen := &stubGenerator{reply: "unused"}
	r := newTestResolver(t, testCorpus(), emb, gen)

	res := r.Resolve(context.Background(), "Hello!")

	assert.Equal(t, composer.TypeGreeting, res.Type)
	assert.NotEmpty(t, res.Message)
	assert.Zero(t, emb.calls)
	assert.Zero(t, gen.count())
}

func TestResolve_AnswerFromRetrievedContext(t *testing.T) {
	t.Parallel()
	emb := &stubEmbedder{vectors: map[string][]float32{"who is the director": {1, 0, 0}}}
	gen := &stubGenerator{reply: "The director is Prof. Example."}
	r := newTestResolver(t, testCorpus(), emb, gen)

	res := r.Resolve(context.Background(), "who is the director")

	require.Equal(t, composer.TypeAnswer, res.Type)
	assert.Equal(t, "The director is Prof. Example.", res.Message)
	require.Equal(t, 1, gen.count())
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "The director is Prof. Example.")
	assert.Contains(t, prompt, "founded in 2008")
	assert.NotContains(t, prompt, "Hostels are on the north side.", "only top 3 chunks are sent")
}

func TestResolve_EmptyCorpusGivesNoInformation(t *testing.T) {
	t.Parallel()
	emb := &stubEmbedder{fallback: []float32{1, 0, 0}}
	gen := &stubGenerator{reply: "unused"}
	r := newTestResolver(t, nil, emb, gen)

	res := r.Resolve(context.Background(), "who is the director")

	assert.Equal(t, composer.TypeAnswer, res.Type)
	assert.Equal(t, composer.NoInformationMessage, res.Message)
	assert.Zero(t, gen.count())
}

func TestResolve_EmbeddingFailureGivesNoInformation(t *testing.T) {
	t.Parallel()
	emb := &stubEmbedder{err: errors.New("network down")}
	gen := &stubGenerator{reply: "unused"}
	r := newTestResolver(t, testCorpus(), emb, gen)

	res := r.Resolve(context.Background(), "who is the director")

	assert.Equal(t, composer.TypeAnswer, res.Type)
	assert.Equal(t, composer.NoInformationMessage, res.Message)
	assert.Zero(t, gen.count())
}

func TestResolve_MismatchedEmbeddingWidthGivesNoInformation(t *testing.T) {
	t.Parallel()
	emb := &stubEmbedder{fallback: []float32{1, 0}}
	gen := &stubGenerator{reply: "made up"}
	r := newTestResolver(t, testCorpus(), emb, gen)

	res := r.Resolve(context.Background(), "who is the director")

	assert.Equal(t, composer.TypeAnswer, res.Type)
	assert.Equal(t, composer.NoInformationMessage, res.Message)
	assert.Zero(t, gen.count(), "no chunks may reach the generator")
}

func TestResolve_GenerationFailureGivesFallback(t *testing.T) {
	t.Parallel()
	emb := &stubEmbedder{fallback: []float32{0, 1, 0}}
	gen := &stubGenerator{err: errors.New("internal: stack trace here")}
	r := newTestResolver(t, testCorpus(), emb, gen)

	res := r.Resolve(context.Background(), "when is breakfast")

	assert.Equal(t, composer.TypeAnswer, res.Type)
	assert.Equal(t, composer.AnswerFallback, res.Message)
}

func TestResolve_SemanticClassifier(t *testing.T) {
	t.Parallel()

	t.Run("location search steers the prompt", func(t *testing.T) {
		t.Parallel()
		emb := &stubEmbedder{fallback: []float32{0, 0, 1}}
		gen := &stubGenerator{reply: "North side."}
		r := newTestResolver(t, testCorpus(), emb, gen,
			WithSemanticClassifier(stubClassifier{label: intent.LabelLocationSearch}))

		res := r.Resolve(context.Background(), "where do first years stay")

		assert.Equal(t, composer.TypeAnswer, res.Type)
		require.Equal(t, 1, gen.count())
		assert.Contains(t, gen.prompts[0], "looking for a place")
	})

	t.Run("failure falls back to information", func(t *testing.T) {
		t.Parallel()
		emb := &stubEmbedder{fallback: []float32{1, 0, 0}}
		gen := &stubGenerator{reply: "ok"}
		r := newTestResolver(t, testCorpus(), emb, gen,
			WithSemanticClassifier(stubClassifier{err: errors.New("timeout")}))

		res := r.Resolve(context.Background(), "who runs this place")

		assert.Equal(t, composer.TypeAnswer, res.Type)
		assert.Equal(t, "ok", res.Message)
		assert.NotContains(t, gen.prompts[0], "looking for a place")
	})
}

func TestResolve_EmptyQuery(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t, nil, nil, nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		res := r.Resolve(context.Background(), q)
		assert.Equal(t, composer.TypeError, res.Type)
		assert.Equal(t, composer.ClarifyMessage, res.Message)
	}
}

func TestResolve_NoSnapshot(t *testing.T) {
	t.Parallel()
	r, err := New(DefaultConfig(), NewStore(nil), nil, nil)
	require.NoError(t, err)

	res := r.Resolve(context.Background(), "library")

	assert.Equal(t, composer.TypeError, res.Type)
	assert.Equal(t, NotReadyMessage, res.Message)
}

func TestResolve_EmptyCatalog(t *testing.T) {
	t.Parallel()
	r, err := New(DefaultConfig(), NewStore(NewSnapshot(nil, nil, "empty")), nil, nil)
	require.NoError(t, err)

	res := r.Resolve(context.Background(), "where is the library")

	assert.Equal(t, composer.TypeAnswer, res.Type)
	assert.Equal(t, composer.NoInformationMessage, res.Message)
}

func TestResolve_SnapshotSwap(t *testing.T) {
	t.Parallel()
	store := NewStore(NewSnapshot(nil, nil, "v1"))
	r, err := New(DefaultConfig(), store, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, composer.TypeAnswer, r.Resolve(context.Background(), "library").Type)

	old := store.Swap(NewSnapshot(testCatalog(t), nil, "v2"))
	require.NotNil(t, old)
	assert.Equal(t, "v1", old.Version)

	res := r.Resolve(context.Background(), "library")
	assert.Equal(t, composer.TypeLocation, res.Type)
	assert.Equal(t, "v2", r.Store().Load().Version)
}

func TestResolve_ConcurrentWithSwaps(t *testing.T) {
	t.Parallel()
	cat := testCatalog(t)
	store := NewStore(NewSnapshot(cat, testCorpus(), "v0"))
	emb := &stubEmbedder{fallback: []float32{1, 0, 0}}
	r, err := New(DefaultConfig(), store, emb, &stubGenerator{reply: "ok"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			for range 20 {
				res := r.Resolve(context.Background(), "from library to lhc")
				assert.Equal(t, composer.TypeRoute, res.Type)
			}
		})
		if i%5 == 0 {
			store.Swap(NewSnapshot(cat, testCorpus(), "v"))
		}
	}
	wg.Wait()
}

func TestResolve_RecordsMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	r := newTestResolver(t, nil, nil, nil, WithMetrics(metrics.New(reg)))

	r.Resolve(context.Background(), "hi")
	r.Resolve(context.Background(), "library")

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() == "campus_queries_total" {
			for _, m := range f.GetMetric() {
				total += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, total)
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()
	store := NewStore(nil)

	_, err := New(DefaultConfig(), nil, nil, nil)
	require.Error(t, err)

	cfg := DefaultConfig()
	cfg.TopK = 0
	cfg.EmbedTimeout = -time.Second
	_, err = New(cfg, store, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TopK")
	assert.Contains(t, err.Error(), "EmbedTimeout")
}
