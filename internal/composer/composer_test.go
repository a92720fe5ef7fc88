package composer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
)

type stubGenerator struct {
	text    string
	err     error
	delay   time.Duration
	prompts []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

var library = catalog.Entity{
	Name:        "Library",
	Lat:         8.6826,
	Lng:         76.9010,
	Description: "Central library with reading halls.",
}

var hostel = catalog.Entity{
	Name:        "Hostel",
	Lat:         8.6810,
	Lng:         76.8995,
	Description: "Student residences.",
}

func TestLocation(t *testing.T) {
	t.Parallel()

	t.Run("uses generated description", func(t *testing.T) {
		t.Parallel()
		gen := &stubGenerator{text: "  A quiet place to study.  "}
		r := New(gen).Location(context.Background(), library)

		require.Equal(t, TypeLocation, r.Type)
		require.NotNil(t, r.Place)
		assert.Equal(t, "Library", r.Name)
		assert.Equal(t, 8.6826, r.Lat)
		assert.Equal(t, "A quiet place to study.", r.Description)
		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], "'Library'")
		assert.Contains(t, gen.prompts[0], DefaultCampusName)
	})

	t.Run("falls back on error", func(t *testing.T) {
		t.Parallel()
		r := New(&stubGenerator{err: errors.New("quota")}).Location(context.Background(), library)
		assert.Equal(t, library.Description, r.Description)
	})

	t.Run("falls back on blank output", func(t *testing.T) {
		t.Parallel()
		r := New(&stubGenerator{text: " \n"}).Location(context.Background(), library)
		assert.Equal(t, library.Description, r.Description)
	})

	t.Run("falls back on timeout", func(t *testing.T) {
		t.Parallel()
		gen := &stubGenerator{text: "late", delay: time.Second}
		start := time.Now()
		r := New(gen, WithTimeout(20*time.Millisecond)).Location(context.Background(), library)
		assert.Equal(t, library.Description, r.Description)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("nil generator", func(t *testing.T) {
		t.Parallel()
		r := New(nil).Location(context.Background(), library)
		assert.Equal(t, library.Description, r.Description)
	})

	t.Run("campus name option", func(t *testing.T) {
		t.Parallel()
		gen := &stubGenerator{text: "x"}
		New(gen, WithCampusName("Test Campus")).Location(context.Background(), library)
		assert.Contains(t, gen.prompts[0], "Test Campus campus")
	})
}

func TestRoute(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{text: "should not be used"}
	r := New(gen).Route(hostel, library)

	require.Equal(t, TypeRoute, r.Type)
	assert.Equal(t, PlaceOf(hostel), *r.From)
	assert.Equal(t, PlaceOf(library), *r.To)
	assert.Nil(t, r.Place)
	assert.Empty(t, gen.prompts)
}

func TestAnswer(t *testing.T) {
	t.Parallel()

	t.Run("no chunks skips generation", func(t *testing.T) {
		t.Parallel()
		gen := &stubGenerator{text: "unused"}
		r := New(gen).Answer(context.Background(), "mess timings?", nil)
		assert.Equal(t, TypeAnswer, r.Type)
		assert.Equal(t, NoInformationMessage, r.Message)
		assert.Empty(t, gen.prompts)
	})

	t.Run("prompt holds context and question", func(t *testing.T) {
		t.Parallel()
		gen := &stubGenerator{text: "Breakfast is at 7."}
		r := New(gen).Answer(context.Background(), " mess timings? ", []string{"Breakfast is served at 7 am.", "Dinner at 8 pm."})

		assert.Equal(t, "Breakfast is at 7.", r.Message)
		require.Len(t, gen.prompts, 1)
		p := gen.prompts[0]
		assert.Contains(t, p, "- Breakfast is served at 7 am.\n- Dinner at 8 pm.\n")
		assert.True(t, strings.HasSuffix(p, "Question: mess timings?"))
		assert.Contains(t, p, "only the context")
	})

	t.Run("failure gives fixed fallback", func(t *testing.T) {
		t.Parallel()
		err := errors.New("upstream exploded: secret detail")
		r := New(&stubGenerator{err: err}).Answer(context.Background(), "q", []string{"c"})
		assert.Equal(t, AnswerFallback, r.Message)
		assert.NotContains(t, r.Message, "secret detail")
	})

	t.Run("nil generator gives fixed fallback", func(t *testing.T) {
		t.Parallel()
		r := New(nil).Answer(context.Background(), "q", []string{"c"})
		assert.Equal(t, AnswerFallback, r.Message)
	})

	t.Run("place variant", func(t *testing.T) {
		t.Parallel()
		gen := &stubGenerator{text: "Near the gate."}
		r := New(gen).AnswerPlace(context.Background(), "where is the atm", []string{"The ATM is near the main gate."})
		assert.Equal(t, "Near the gate.", r.Message)
		assert.Contains(t, gen.prompts[0], "looking for a place")
	})
}

func TestHelpers(t *testing.T) {
	t.Parallel()
	c := New(nil)

	assert.Equal(t, Result{Type: TypeGreeting, Message: GreetingMessage}, c.Greeting())
	assert.True(t, c.Clarify().IsError())
	assert.Equal(t, ClarifyMessage, c.Clarify().Message)
	assert.Equal(t, "boom", c.Error("boom").Message)
}

func TestResultJSON(t *testing.T) {
	t.Parallel()
	c := New(nil)

	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name:   "location is flat",
			result: c.Location(context.Background(), library),
			want:   `{"type":"location","name":"Library","lat":8.6826,"lng":76.901,"description":"Central library with reading halls."}`,
		},
		{
			name:   "route nests endpoints",
			result: c.Route(hostel, library),
			want: `{"type":"route",` +
				`"from":{"name":"Hostel","lat":8.681,"lng":76.8995,"description":"Student residences."},` +
				`"to":{"name":"Library","lat":8.6826,"lng":76.901,"description":"Central library with reading halls."}}`,
		},
		{
			name:   "error carries message",
			result: c.Clarify(),
			want:   `{"type":"error","message":"` + ClarifyMessage + `"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := json.Marshal(tt.result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
