package resolver

import (
	"sync/atomic"
	"time"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
	"github.com/campusnav/campus-navigator-go/internal/matcher"
	"github.com/campusnav/campus-navigator-go/internal/rag"
)

// Snapshot is one immutable dataset: a catalog, the matcher built over it,
// and the knowledge corpus. Queries share it without locking.
type Snapshot struct {
	Catalog  *catalog.Catalog
	Matcher  *matcher.Matcher
	Corpus   *rag.Corpus
	Version  string
	LoadedAt time.Time
}

// NewSnapshot builds the matcher for cat and freezes chunks into a corpus.
// A nil cat is treated as an empty catalog.
func NewSnapshot(cat *catalog.Catalog, chunks []rag.Chunk, version string) *Snapshot {
	if cat == nil {
		cat, _ = catalog.New(nil)
	}
	return &Snapshot{
		Catalog:  cat,
		Matcher:  matcher.New(cat),
		Corpus:   rag.NewCorpus(chunks),
		Version:  version,
		LoadedAt: time.Now(),
	}
}

// Store holds the current snapshot. Swap replaces it atomically, so a
// query sees either the old dataset or the new one, never a mix.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store holding initial, which may be nil.
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	if initial != nil {
		s.current.Store(initial)
	}
	return s
}

// Load returns the current snapshot, or nil before the first Swap.
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// Swap installs next and returns the previous snapshot.
func (s *Store) Swap(next *Snapshot) *Snapshot {
	return s.current.Swap(next)
}

// Ready reports whether a snapshot has been installed.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}
