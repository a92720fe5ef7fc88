// Package composer turns a classified query into the Result returned to
// the client. Text generation is optional: every generated field has a
// fixed fallback, so a missing or failing generator never fails a query.
package composer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
)

// Fixed user-facing messages.
const (
	GreetingMessage      = "Hello! Ask me where a place is on campus, how to get from one building to another, or anything about campus life."
	NoInformationMessage = "I couldn't find any information about that on campus."
	AnswerFallback       = "Sorry, I'm having trouble answering that right now. Please try again later."
	ClarifyMessage       = "Please ask for a single location ('where is the library?') or a route ('hostel to academic block')."
)

// DefaultCampusName names the campus in generation prompts.
const DefaultCampusName = "IISER Thiruvananthapuram"

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Composer builds results. It holds no per-query state.
type Composer struct {
	gen     TextGenerator
	campus  string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithCampusName overrides DefaultCampusName.
func WithCampusName(name string) Option {
	return func(c *Composer) {
		if name != "" {
			c.campus = name
		}
	}
}

// WithTimeout bounds each generation call. Zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Composer) { c.timeout = d }
}

// WithLogger sets the logger for generation fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Composer. gen may be nil, in which case every generated
// field takes its fallback.
func New(gen TextGenerator, opts ...Option) *Composer {
	c := &Composer{
		gen:    gen,
		campus: DefaultCampusName,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Greeting returns the welcome reply.
func (c *Composer) Greeting() Result {
	return messageResult(TypeGreeting, GreetingMessage)
}

// Clarify returns the error result asking the user to rephrase.
func (c *Composer) Clarify() Result {
	return messageResult(TypeError, ClarifyMessage)
}

// Error returns an error result carrying msg.
func (c *Composer) Error(msg string) Result {
	return messageResult(TypeError, msg)
}

// Location returns e with a generated description, or the stored one when
// generation fails or comes back blank.
func (c *Composer) Location(ctx context.Context, e catalog.Entity) Result {
	place := PlaceOf(e)
	if text, ok := c.generate(ctx, "location", enrichmentPrompt(e.Name, c.campus)); ok {
		place.Description = text
	}
	return Result{Type: TypeLocation, Place: &place}
}

// Route returns both endpoints unmodified.
func (c *Composer) Route(from, to catalog.Entity) Result {
	f, t := PlaceOf(from), PlaceOf(to)
	return Result{Type: TypeRoute, From: &f, To: &t}
}

// Answer answers query from chunks only. No chunks yields
// NoInformationMessage and no generation call.
func (c *Composer) Answer(ctx context.Context, query string, chunks []string) Result {
	return c.answer(ctx, query, chunks, answerInstruction)
}

// AnswerPlace is Answer for a query the classifier judged to be about a
// place the catalog does not know. The prompt asks for location details.
func (c *Composer) AnswerPlace(ctx context.Context, query string, chunks []string) Result {
	return c.answer(ctx, query, chunks, placeInstruction)
}

func (c *Composer) answer(ctx context.Context, query string, chunks []string, instruction string) Result {
	if len(chunks) == 0 {
		return messageResult(TypeAnswer, NoInformationMessage)
	}
	text, ok := c.generate(ctx, "answer", answerPrompt(c.campus, instruction, query, chunks))
	if !ok {
		return messageResult(TypeAnswer, AnswerFallback)
	}
	return messageResult(TypeAnswer, text)
}

// generate returns trimmed non-empty output and true, or false on any
// failure. Errors are logged, never returned.
func (c *Composer) generate(ctx context.Context, purpose, prompt string) (string, bool) {
	if c.gen == nil {
		return "", false
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		c.logger.WarnContext(ctx, "Text generation failed, using fallback",
			"purpose", purpose,
			"duration", time.Since(start),
			"error", err)
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.logger.WarnContext(ctx, "Text generation returned blank output, using fallback",
			"purpose", purpose)
		return "", false
	}
	return text, true
}

func enrichmentPrompt(name, campus string) string {
	return fmt.Sprintf("Provide a short, engaging description for '%s' at the %s campus. "+
		"Focus on what a student might do there. Keep it conversational and brief.", name, campus)
}

const (
	answerInstruction = "Answer the question using only the context below. " +
		"If the context does not contain the answer, say that you don't know."
	placeInstruction = "The user is looking for a place. Using only the context below, " +
		"say where it is or what is nearby. If the context does not say, say that you don't know."
)

func answerPrompt(campus, instruction, query string, chunks []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant for the %s campus. %s\n\n", campus, instruction)
	b.WriteString("Context:\n")
	for _, chunk := range chunks {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(chunk))
		b.WriteByte('\n')
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(strings.TrimSpace(query))
	return b.String()
}
