// Package warmup loads the campus dataset from storage into an immutable
// resolver snapshot and tracks whether the service has one to serve.
package warmup

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
	"github.com/campusnav/campus-navigator-go/internal/logger"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
	"github.com/campusnav/campus-navigator-go/internal/rag"
	"github.com/campusnav/campus-navigator-go/internal/resolver"
	"github.com/campusnav/campus-navigator-go/internal/storage"
)

// Load origins, used as metric labels.
const (
	OriginStartup = "startup"
	OriginPoll    = "poll"
	OriginManual  = "manual"
)

// Source is a dataset a snapshot can be built from. *storage.DB satisfies it.
type Source interface {
	LoadEntities(ctx context.Context) ([]catalog.Entity, error)
	LoadChunks(ctx context.Context) ([]rag.Chunk, error)
}

// Build reads the catalog and the knowledge corpus concurrently and
// returns a snapshot tagged with version.
func Build(ctx context.Context, src Source, version string) (*resolver.Snapshot, error) {
	var (
		entities []catalog.Entity
		chunks   []rag.Chunk
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if entities, err = src.LoadEntities(gctx); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if chunks, err = src.LoadChunks(gctx); err != nil {
			return fmt.Errorf("load knowledge: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat, err := catalog.New(entities)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return resolver.NewSnapshot(cat, chunks, version), nil
}

// Loader builds snapshots and installs them in a resolver store.
type Loader struct {
	store     *resolver.Store
	readiness *Readiness
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewLoader returns a loader for store. readiness and m may be nil.
func NewLoader(store *resolver.Store, readiness *Readiness, m *metrics.Metrics, log *logger.Logger) *Loader {
	if readiness == nil {
		readiness = NewReadiness()
	}
	return &Loader{store: store, readiness: readiness, metrics: m, log: log.WithModule("warmup")}
}

// Readiness returns the gate this loader updates.
func (l *Loader) Readiness() *Readiness { return l.readiness }

// Load builds a snapshot from src and swaps it in. On failure the current
// snapshot stays in place.
func (l *Loader) Load(ctx context.Context, src Source, origin, version string) (*resolver.Snapshot, error) {
	start := time.Now()

	snap, err := Build(ctx, src, version)
	if err != nil {
		l.metrics.RecordSnapshotLoad(origin, "error", 0)
		l.readiness.MarkFailed(err)
		l.log.WithError(err).WithField("origin", origin).Error("Dataset load failed")
		return nil, err
	}

	l.store.Swap(snap)
	l.readiness.MarkLoaded(snap)

	elapsed := time.Since(start)
	l.metrics.RecordSnapshotLoad(origin, "success", elapsed.Seconds())
	l.metrics.SetSnapshotSize(snap.Catalog.Len(), snap.Corpus.Len())
	l.log.WithFields(map[string]any{
		"origin":      origin,
		"version":     version,
		"entities":    snap.Catalog.Len(),
		"chunks":      snap.Corpus.Len(),
		"duration_ms": elapsed.Milliseconds(),
	}).Info("Dataset loaded")

	return snap, nil
}

// EnsureSeeded writes seed into repo when the catalog table is empty and
// reports whether it did.
func EnsureSeeded(ctx context.Context, repo storage.CatalogRepository, seed *catalog.Seed) (bool, error) {
	n, err := repo.CountBuildings(ctx)
	if err != nil {
		return false, fmt.Errorf("count buildings: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	// Validate before writing so a bad seed never reaches the database.
	if _, err := seed.Catalog(); err != nil {
		return false, fmt.Errorf("invalid seed: %w", err)
	}
	if err := repo.ReplaceCatalog(ctx, seed.Buildings); err != nil {
		return false, fmt.Errorf("write seed: %w", err)
	}
	return true, nil
}
