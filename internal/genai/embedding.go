package genai

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/campusnav/campus-navigator-go/internal/cache"
	domerrors "github.com/campusnav/campus-navigator-go/internal/errors"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
)

const (
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"

	// embedBatchSize is the most contents sent in one EmbedContent call.
	embedBatchSize = 100
)

// GeminiEmbedder turns text into vectors with the Gemini embedding API.
// Queries use RETRIEVAL_QUERY and corpus sentences RETRIEVAL_DOCUMENT.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	dims   int
	chain  *chain
}

// NewGeminiEmbedder creates an embedder. dims <= 0 keeps the model's full size.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dims int, opts ...ChainOption) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini API key not configured", domerrors.ErrEmbedding)
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	client, err := newGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return &GeminiEmbedder{client: client, model: model, dims: dims, chain: newChain(opts)}, nil
}

func (e *GeminiEmbedder) Provider() Provider { return ProviderGemini }
func (e *GeminiEmbedder) Model() string      { return e.model }

// Dimensions returns the configured output size, 0 meaning the model default.
func (e *GeminiEmbedder) Dimensions() int { return e.dims }

func (e *GeminiEmbedder) config(task, title string) *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: task, Title: title}
	if e.dims > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(e.dims))
	}
	return cfg
}

// Embed returns the query embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", domerrors.ErrEmbedding)
	}
	vectors, err := run(ctx, e.chain, OpEmbed, domerrors.ErrEmbedding, []*GeminiEmbedder{e},
		func(ctx context.Context, e *GeminiEmbedder) ([][]float32, error) {
			return e.embed(ctx, []string{text}, e.config(taskRetrievalQuery, ""))
		})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds corpus sentences from one source in batches. The
// result is index-aligned with texts.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, title string, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	cfg := e.config(taskRetrievalDocument, title)
	for start := 0; start < len(texts); start += embedBatchSize {
		batch := texts[start:min(start+embedBatchSize, len(texts))]
		vectors, err := run(ctx, e.chain, OpEmbed, domerrors.ErrEmbedding, []*GeminiEmbedder{e},
			func(ctx context.Context, e *GeminiEmbedder) ([][]float32, error) {
				return e.embed(ctx, batch, cfg)
			})
		if err != nil {
			return nil, fmt.Errorf("batch at %d: %w", start, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *GeminiEmbedder) embed(ctx context.Context, texts []string, cfg *genai.EmbedContentConfig) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, WrapError(fmt.Errorf("embed content: %w", err), ProviderGemini, 0)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, WrapError(errEmptyResponse, ProviderGemini, 0)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, WrapError(errEmptyResponse, ProviderGemini, 0)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// QueryEmbedder is the part of an embedder CachedEmbedder wraps.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CachedEmbedder memoizes query embeddings keyed by model, output width and
// normalized text. Cache failures are logged and never fail the call.
type CachedEmbedder struct {
	next    QueryEmbedder
	cache   cache.Client
	model   string
	dims    int
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCachedEmbedder wraps next. dims is the configured output width, 0
// meaning the model default. Entries written under another model or width
// are never read back.
func NewCachedEmbedder(next QueryEmbedder, c cache.Client, model string, dims int, ttl time.Duration, m *metrics.Metrics) *CachedEmbedder {
	return &CachedEmbedder{
		next:    next,
		cache:   c,
		model:   model,
		dims:    dims,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("module", "embedding_cache"),
	}
}

// Embed implements QueryEmbedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		if vec, ok := decodeVector(raw); ok && (c.dims <= 0 || len(vec) == c.dims) {
			c.metrics.RecordCacheHit("embedding")
			return vec, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.WarnContext(ctx, "embedding cache read failed", "error", err)
	}
	c.metrics.RecordCacheMiss("embedding")

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.WarnContext(ctx, "embedding cache write failed", "error", err)
	}
	return vec, nil
}

func (c *CachedEmbedder) key(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return cache.Key("emb", c.model, strconv.Itoa(c.dims), hex.EncodeToString(sum[:16]))
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, true
}
