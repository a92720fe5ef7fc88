package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/campusnav/campus-navigator-go/internal/errors"
	"github.com/campusnav/campus-navigator-go/internal/intent"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
	"github.com/campusnav/campus-navigator-go/internal/ratelimit"
)

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() Provider
	Model() string
}

// Classifier labels a query that names no known place.
type Classifier interface {
	Classify(ctx context.Context, query string) (intent.Label, error)
	Provider() Provider
	Model() string
}

type member interface {
	Provider() Provider
	Model() string
}

var (
	errLimited       = fmt.Errorf("%w: outbound llm budget exhausted", domerrors.ErrRateLimitExceeded)
	errNoProvider    = errors.New("no llm provider configured")
	errEmptyResponse = errors.New("empty response from model")
	errMalformed     = errors.New("malformed model output")
)

// chain holds what every multi-provider call shares.
type chain struct {
	retry   RetryConfig
	limiter *ratelimit.Limiter
	block   bool
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// ChainOption configures retries, rate limiting and observability.
type ChainOption func(*chain)

// WithRetryConfig sets per-model retries.
func WithRetryConfig(cfg RetryConfig) ChainOption {
	return func(c *chain) { c.retry = cfg }
}

// WithLimiter makes every call take a token first. An empty bucket fails
// the call at once instead of queueing.
func WithLimiter(l *ratelimit.Limiter) ChainOption {
	return func(c *chain) {
		c.limiter = l
		c.block = false
	}
}

// WithBlockingLimiter makes every call wait for a token from l. Batch jobs
// use it so a long run is paced by the bucket instead of failing past the
// burst.
func WithBlockingLimiter(l *ratelimit.Limiter) ChainOption {
	return func(c *chain) {
		c.limiter = l
		c.block = true
	}
}

// WithMetrics records call outcomes.
func WithMetrics(m *metrics.Metrics) ChainOption {
	return func(c *chain) { c.metrics = m }
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *chain) { c.logger = l }
}

func newChain(opts []ChainOption) *chain {
	c := &chain{retry: DefaultRetryConfig()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// acquire takes a token for one member call. A blocking chain waits for
// it; otherwise an empty bucket returns errLimited.
func (c *chain) acquire(ctx context.Context, m member, op string) error {
	if c.limiter == nil {
		return nil
	}
	if c.block {
		start := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		c.metrics.RecordRateLimiterWait("llm", time.Since(start).Seconds())
		return nil
	}
	if !c.limiter.Allow() {
		c.metrics.RecordRateLimiterDrop("llm")
		c.metrics.RecordLLM(string(m.Provider()), op, statusLabel(errLimited), 0)
		return errLimited
	}
	return nil
}

// run tries members in order. Each member is retried on transient errors;
// permanent errors and cancellation stop the chain. The returned error
// wraps sentinel.
func run[M member, T any](ctx context.Context, c *chain, op string, sentinel error, members []M, call func(context.Context, M) (T, error)) (T, error) {
	var zero T
	if len(members) == 0 {
		return zero, fmt.Errorf("%w: %w", sentinel, errNoProvider)
	}

	start := time.Now()
	var lastErr error
	for i, m := range members {
		if err := c.acquire(ctx, m, op); err != nil {
			return zero, fmt.Errorf("%w: %w", sentinel, err)
		}

		callStart := time.Now()
		var out T
		err := WithRetry(ctx, c.retry, func(attempt int, err error) {
			c.logger.DebugContext(ctx, "retrying llm call",
				"provider", m.Provider(),
				"model", m.Model(),
				"operation", op,
				"attempt", attempt,
				"error", err)
		}, func() error {
			var callErr error
			out, callErr = call(ctx, m)
			return callErr
		})
		c.metrics.RecordLLM(string(m.Provider()), op, statusLabel(err), time.Since(callStart).Seconds())

		if err == nil {
			if i > 0 {
				c.metrics.RecordLLMFallback(string(members[0].Provider()), string(m.Provider()), op, time.Since(start).Seconds())
				c.logger.InfoContext(ctx, "llm fallback succeeded",
					"operation", op,
					"provider", m.Provider(),
					"model", m.Model(),
					"position", i)
			}
			return out, nil
		}

		lastErr = err
		action := ClassifyError(err)
		c.logger.WarnContext(ctx, "llm call failed",
			"provider", m.Provider(),
			"model", m.Model(),
			"operation", op,
			"action", action,
			"duration", time.Since(callStart),
			"error", err)
		if action == ActionFail || ctx.Err() != nil {
			break
		}
	}
	return zero, fmt.Errorf("%w: %s failed after %v: %w", sentinel, op, time.Since(start).Round(time.Millisecond), lastErr)
}

// FallbackGenerator tries each Generator in order. A nil *FallbackGenerator
// is valid and always fails, which callers treat like any provider outage.
type FallbackGenerator struct {
	chain   *chain
	members []Generator
}

// NewFallbackGenerator builds a generator chain.
func NewFallbackGenerator(members []Generator, opts ...ChainOption) *FallbackGenerator {
	return &FallbackGenerator{chain: newChain(opts), members: members}
}

// Generate returns trimmed, non-empty text or an error wrapping ErrGeneration.
func (f *FallbackGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if f == nil {
		return "", fmt.Errorf("%w: %w", domerrors.ErrGeneration, errNoProvider)
	}
	return run(ctx, f.chain, OpGenerate, domerrors.ErrGeneration, f.members,
		func(ctx context.Context, g Generator) (string, error) {
			return g.Generate(ctx, prompt)
		})
}

// Len returns the number of chain members.
func (f *FallbackGenerator) Len() int {
	if f == nil {
		return 0
	}
	return len(f.members)
}

// FallbackClassifier tries each Classifier in order. A nil
// *FallbackClassifier always fails.
type FallbackClassifier struct {
	chain   *chain
	members []Classifier
}

// NewFallbackClassifier builds a classifier chain.
func NewFallbackClassifier(members []Classifier, opts ...ChainOption) *FallbackClassifier {
	return &FallbackClassifier{chain: newChain(opts), members: members}
}

// Classify returns a valid label or an error wrapping ErrClassification.
func (f *FallbackClassifier) Classify(ctx context.Context, query string) (intent.Label, error) {
	if f == nil {
		return "", fmt.Errorf("%w: %w", domerrors.ErrClassification, errNoProvider)
	}
	return run(ctx, f.chain, OpClassify, domerrors.ErrClassification, f.members,
		func(ctx context.Context, c Classifier) (intent.Label, error) {
			return c.Classify(ctx, query)
		})
}

// Len returns the number of chain members.
func (f *FallbackClassifier) Len() int {
	if f == nil {
		return 0
	}
	return len(f.members)
}
