// Package intent decides what a query is asking for: a greeting, a single
// location, a route between two locations, or general information.
package intent

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
	"github.com/campusnav/campus-navigator-go/internal/matcher"
)

// Kind is the classified purpose of a query.
type Kind string

const (
	KindGreeting    Kind = "greeting"
	KindLocation    Kind = "location"
	KindRoute       Kind = "route"
	KindInformation Kind = "information"
)

// Label is the output of a semantic classifier.
type Label string

const (
	LabelLocationSearch     Label = "location_search"
	LabelInformationRequest Label = "information_request"
)

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	return l == LabelLocationSearch || l == LabelInformationRequest
}

// Source records which step produced a decision.
type Source string

const (
	SourceGreeting  Source = "greeting"
	SourceHeuristic Source = "heuristic"
	SourceSemantic  Source = "semantic"
	SourceDefault   Source = "default"
)

// SemanticClassifier labels a query that mentions no known entity.
type SemanticClassifier interface {
	Classify(ctx context.Context, query string) (Label, error)
}

// Decision is the result of Classify.
// Entities holds one entity for KindLocation and origin, destination for KindRoute.
type Decision struct {
	Kind     Kind
	Entities []catalog.Entity
	Label    Label
	Source   Source
}

// DefaultGreetings are matched against the whole normalized query.
var DefaultGreetings = []string{
	"hi", "hii", "hello", "hey", "hey there", "hello there", "hi there",
	"good morning", "good afternoon", "good evening", "namaste",
	"thanks", "thank you", "thank you so much", "thanks a lot", "thx", "ty",
	"bye", "goodbye", "ok thanks", "okay thanks",
}

var connectives = []string{"to", "from"}

// Classifier is stateless apart from its configuration.
type Classifier struct {
	greetings map[string]struct{}
	semantic  SemanticClassifier
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSemanticClassifier consults sc, bounded by timeout, when no entity matched.
func WithSemanticClassifier(sc SemanticClassifier, timeout time.Duration) Option {
	return func(c *Classifier) {
		c.semantic = sc
		c.timeout = timeout
	}
}

// WithGreetings replaces the greeting phrase set.
func WithGreetings(phrases []string) Option {
	return func(c *Classifier) {
		c.greetings = greetingSet(phrases)
	}
}

// WithLogger sets the logger used for classifier fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		greetings: greetingSet(DefaultGreetings),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func greetingSet(phrases []string) map[string]struct{} {
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		if n := normalizeGreeting(p); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func normalizeGreeting(s string) string {
	s = matcher.Normalize(s)
	s = strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return s
}

// IsGreeting reports whether the whole query is a greeting or thanks phrase.
func (c *Classifier) IsGreeting(query string) bool {
	_, ok := c.greetings[normalizeGreeting(query)]
	return ok
}

// Classify resolves the intent of query against the entities known to m.
// It never fails: a semantic classifier error falls back to KindInformation.
func (c *Classifier) Classify(ctx context.Context, m *matcher.Matcher, query string) Decision {
	if c.IsGreeting(query) {
		return Decision{Kind: KindGreeting, Source: SourceGreeting}
	}

	mentioned := m.Match(query)

	if len(mentioned) >= 2 && hasConnective(query) {
		return Decision{
			Kind:     KindRoute,
			Entities: []catalog.Entity{mentioned[0].Entity, mentioned[1].Entity},
			Source:   SourceHeuristic,
		}
	}
	if len(mentioned) >= 1 {
		return Decision{
			Kind:     KindLocation,
			Entities: []catalog.Entity{mentioned[0].Entity},
			Source:   SourceHeuristic,
		}
	}

	return c.classifyUnmatched(ctx, query)
}

func (c *Classifier) classifyUnmatched(ctx context.Context, query string) Decision {
	d := Decision{Kind: KindInformation, Label: LabelInformationRequest, Source: SourceDefault}
	if c.semantic == nil {
		return d
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	label, err := c.semantic.Classify(ctx, query)
	if err != nil {
		c.logger.WarnContext(ctx, "Semantic classification failed, using default intent", "error", err)
		return d
	}
	if !label.Valid() {
		c.logger.WarnContext(ctx, "Semantic classifier returned unknown label", "label", string(label))
		return d
	}

	d.Label = label
	d.Source = SourceSemantic
	return d
}

func hasConnective(query string) bool {
	for _, w := range connectives {
		if matcher.ContainsWord(query, w) {
			return true
		}
	}
	return false
}
