// Package resolver answers a free-text campus query with a tagged Result.
//
// Resolve matches catalog aliases in the query, classifies the intent and
// then either returns catalog records (location, route) or retrieves
// knowledge chunks and has them summarized (answer). External calls are
// optional and bounded by timeouts; every failure has a fixed fallback, so
// Resolve itself never fails.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/campusnav/campus-navigator-go/internal/composer"
	"github.com/campusnav/campus-navigator-go/internal/ctxutil"
	domerrors "github.com/campusnav/campus-navigator-go/internal/errors"
	"github.com/campusnav/campus-navigator-go/internal/intent"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
	"github.com/campusnav/campus-navigator-go/internal/rag"
)

// Result is the tagged outcome of a query.
type Result = composer.Result

// NotReadyMessage is returned while no dataset has been loaded.
const NotReadyMessage = "The campus map is still loading. Please try again in a moment."

// Embedder turns query text into a vector in the corpus's embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds pipeline settings. All fields are required.
type Config struct {
	CampusName      string
	TopK            int
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
	ClassifyTimeout time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		CampusName:      composer.DefaultCampusName,
		TopK:            rag.DefaultTopK,
		EmbedTimeout:    10 * time.Second,
		GenerateTimeout: 30 * time.Second,
		ClassifyTimeout: 5 * time.Second,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.TopK <= 0 {
		errs = append(errs, domerrors.NewValidationError("TopK", "must be positive"))
	}
	if c.EmbedTimeout <= 0 {
		errs = append(errs, domerrors.NewValidationError("EmbedTimeout", "must be positive"))
	}
	if c.GenerateTimeout <= 0 {
		errs = append(errs, domerrors.NewValidationError("GenerateTimeout", "must be positive"))
	}
	if c.ClassifyTimeout <= 0 {
		errs = append(errs, domerrors.NewValidationError("ClassifyTimeout", "must be positive"))
	}
	return errors.Join(errs...)
}

// Resolver is safe for concurrent use.
type Resolver struct {
	cfg        Config
	store      *Store
	embedder   Embedder
	classifier *intent.Classifier
	composer   *composer.Composer
	metrics    *metrics.Metrics
	logger     *slog.Logger

	semantic intent.SemanticClassifier
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSemanticClassifier consults sc for queries naming no known place.
func WithSemanticClassifier(sc intent.SemanticClassifier) Option {
	return func(r *Resolver) { r.semantic = sc }
}

// WithMetrics records query outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver. emb and gen may be nil: without an embedder every
// information query gets the no-information answer, and without a generator
// descriptions stay as stored and answers use the fixed fallback.
func New(cfg Config, store *Store, emb Embedder, gen TextGenerator, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, domerrors.NewValidationError("store", "must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Resolver{
		cfg:      cfg,
		store:    store,
		embedder: emb,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	var intentOpts []intent.Option
	intentOpts = append(intentOpts, intent.WithLogger(r.logger))
	if r.semantic != nil {
		intentOpts = append(intentOpts, intent.WithSemanticClassifier(r.semantic, cfg.ClassifyTimeout))
	}
	r.classifier = intent.New(intentOpts...)

	r.composer = composer.New(gen,
		composer.WithCampusName(cfg.CampusName),
		composer.WithTimeout(cfg.GenerateTimeout),
		composer.WithLogger(r.logger))

	return r, nil
}

// Store returns the snapshot store queries read from.
func (r *Resolver) Store() *Store {
	return r.store
}

// Resolve answers query against the current snapshot. It never fails:
// problems surface as an error Result or a degraded answer.
func (r *Resolver) Resolve(ctx context.Context, query string) Result {
	start := time.Now()
	result, source := r.resolve(ctx, query)
	r.metrics.RecordQuery(string(result.Type), string(source), time.Since(start).Seconds())
	return result
}

func (r *Resolver) resolve(ctx context.Context, query string) (Result, intent.Source) {
	if strings.TrimSpace(query) == "" {
		return r.composer.Clarify(), intent.SourceDefault
	}

	snap := r.store.Load()
	if snap == nil {
		r.logger.WarnContext(ctx, "Query received before dataset was loaded")
		return r.composer.Error(NotReadyMessage), intent.SourceDefault
	}
	ctx = ctxutil.WithDatasetVersion(ctx, snap.Version)

	decision := r.classifier.Classify(ctx, snap.Matcher, query)
	r.logger.DebugContext(ctx, "Query classified",
		"kind", decision.Kind,
		"source", decision.Source,
		"label", decision.Label,
		"entities", len(decision.Entities))

	switch decision.Kind {
	case intent.KindGreeting:
		return r.composer.Greeting(), decision.Source
	case intent.KindRoute:
		return r.composer.Route(decision.Entities[0], decision.Entities[1]), decision.Source
	case intent.KindLocation:
		return r.composer.Location(ctx, decision.Entities[0]), decision.Source
	default:
		chunks := r.retrieve(ctx, snap.Corpus, query)
		if decision.Label == intent.LabelLocationSearch {
			return r.composer.AnswerPlace(ctx, query, chunks), decision.Source
		}
		return r.composer.Answer(ctx, query, chunks), decision.Source
	}
}

// retrieve returns the top chunk texts for query. An empty corpus, a
// missing embedder, an embedding failure or a vector whose width differs
// from the corpus all yield no chunks.
func (r *Resolver) retrieve(ctx context.Context, corpus *rag.Corpus, query string) []string {
	if corpus.Len() == 0 || r.embedder == nil {
		return nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.cfg.EmbedTimeout)
	defer cancel()

	vec, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		r.logger.WarnContext(ctx, "Query embedding failed, answering without context", "error", err)
		return nil
	}
	if len(vec) != corpus.Dimensions() {
		r.logger.WarnContext(ctx, "Query embedding width does not match corpus, answering without context",
			"got", len(vec),
			"want", corpus.Dimensions())
		return nil
	}

	results := corpus.Retrieve(vec, r.cfg.TopK)
	if len(results) > 0 {
		r.metrics.RecordRetrieval(results[0].Similarity)
	}
	return rag.Contents(results)
}
