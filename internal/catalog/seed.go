package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed/iiser_tvm.yaml
var defaultSeed []byte

// Seed is the on-disk YAML form of a catalog.
type Seed struct {
	Campus    string   `yaml:"campus"`
	Buildings []Entity `yaml:"buildings"`
}

// ParseSeed decodes a YAML seed. Unknown keys are rejected so typos in
// hand-edited files surface at load time.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Seed
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &s, nil
}

// DefaultSeed returns the embedded IISER Thiruvananthapuram catalog.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(bytes.NewReader(defaultSeed))
}

// LoadSeed reads a seed from path, or the embedded default when path is empty.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseSeed(f)
}

// Catalog validates the seed and builds a catalog from it.
func (s *Seed) Catalog() (*Catalog, error) {
	return New(s.Buildings)
}
