// Package catalog holds the immutable set of campus entities (buildings,
// facilities, landmarks) and the alias strings that may refer to them.
package catalog

import (
	"fmt"
	"strings"

	"github.com/campusnav/campus-navigator-go/internal/errors"
	"github.com/campusnav/campus-navigator-go/internal/sliceutil"
)

// Entity is a named campus place.
type Entity struct {
	Name        string   `json:"name" yaml:"name"`
	Lat         float64  `json:"lat" yaml:"lat"`
	Lng         float64  `json:"lng" yaml:"lng"`
	Description string   `json:"description" yaml:"description"`
	Aliases     []string `json:"-" yaml:"aliases"`
}

// AliasPair ties one alias to the entity owning it.
// Index is the entity's insertion position in the catalog.
type AliasPair struct {
	Index int
	Alias string
}

// Catalog is an ordered, read-only entity snapshot. It is safe for
// concurrent use because nothing mutates it after New returns.
type Catalog struct {
	entities []Entity
	byName   map[string]int
}

// New validates entities and builds a catalog preserving their order.
// Aliases are lowercased and deduplicated, and the lowercased canonical
// name is always included.
func New(entities []Entity) (*Catalog, error) {
	c := &Catalog{
		entities: make([]Entity, 0, len(entities)),
		byName:   make(map[string]int, len(entities)),
	}

	for i, e := range entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("entities[%d].name", i), "name is empty")
		}
		if _, dup := c.byName[name]; dup {
			return nil, errors.NewValidationError(fmt.Sprintf("entities[%d].name", i), fmt.Sprintf("duplicate name %q", name))
		}

		e.Name = name
		e.Aliases = normalizeAliases(name, e.Aliases)
		c.byName[name] = len(c.entities)
		c.entities = append(c.entities, e)
	}

	return c, nil
}

func normalizeAliases(name string, aliases []string) []string {
	out := make([]string, 0, len(aliases)+1)
	for _, a := range aliases {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			out = append(out, a)
		}
	}
	out = append(out, strings.ToLower(name))
	return sliceutil.Deduplicate(out, func(s string) string { return s })
}

// LookupByName returns the entity with the exact canonical name.
func (c *Catalog) LookupByName(name string) (Entity, error) {
	i, ok := c.byName[name]
	if !ok {
		return Entity{}, fmt.Errorf("entity %q: %w", name, errors.ErrNotFound)
	}
	return c.entities[i].clone(), nil
}

// At returns the entity at insertion position i.
func (c *Catalog) At(i int) Entity {
	return c.entities[i].clone()
}

// Entities returns a copy of all entities in insertion order.
func (c *Catalog) Entities() []Entity {
	out := make([]Entity, len(c.entities))
	for i, e := range c.entities {
		out[i] = e.clone()
	}
	return out
}

// AliasPairs enumerates every (entity, alias) pair in catalog order.
func (c *Catalog) AliasPairs() []AliasPair {
	var pairs []AliasPair
	for i, e := range c.entities {
		for _, a := range e.Aliases {
			pairs = append(pairs, AliasPair{Index: i, Alias: a})
		}
	}
	return pairs
}

// Len returns the number of entities.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entities)
}

func (e Entity) clone() Entity {
	e.Aliases = append([]string(nil), e.Aliases...)
	return e
}
