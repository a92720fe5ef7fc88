package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
	"github.com/campusnav/campus-navigator-go/internal/config"
	"github.com/campusnav/campus-navigator-go/internal/r2client"
	"github.com/campusnav/campus-navigator-go/internal/sentry"
	"github.com/campusnav/campus-navigator-go/internal/snapshot"
	"github.com/campusnav/campus-navigator-go/internal/storage"
	"github.com/campusnav/campus-navigator-go/internal/warmup"
)

const localVersion = "local"

// openDataset prepares the database and installs the first snapshot.
//
// With R2 enabled and no local file, the published snapshot is downloaded
// first. A database that is still empty afterwards is seeded from the
// catalog seed so the service can answer location queries out of the box.
func (a *Application) openDataset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.StartupLoadTimeout)
	defer cancel()

	path := a.cfg.SQLitePath()
	if err := os.MkdirAll(a.cfg.Data.DataDir, 0o755); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	var objects *r2client.Client
	version := localVersion
	if a.cfg.R2.Enabled {
		var err error
		objects, err = r2client.New(ctx, r2client.Config{
			Endpoint:    a.cfg.R2Endpoint(),
			AccessKeyID: a.cfg.R2.AccessKeyID,
			SecretKey:   a.cfg.R2.SecretAccessKey,
			Bucket:      a.cfg.R2.BucketName,
		})
		if err != nil {
			return fmt.Errorf("r2: %w", err)
		}
		if etag, err := a.downloadIfMissing(ctx, objects, path); err != nil {
			a.logger.WithError(err).Warn("Snapshot download failed, continuing with local data")
		} else if etag != "" {
			version = etag
		}
	}

	db, err := storage.NewHotSwapDB(ctx, path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	a.db = db
	a.logger.WithField("path", path).Info("Database connected")

	seed, err := catalog.LoadSeed(a.cfg.Data.SeedFile)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if seeded, err := warmup.EnsureSeeded(ctx, db.DB(), seed); err != nil {
		return fmt.Errorf("seed: %w", err)
	} else if seeded {
		a.logger.WithField("buildings", len(seed.Buildings)).Info("Empty catalog seeded")
	}

	if _, err := a.loader.Load(ctx, db.DB(), warmup.OriginStartup, version); err != nil {
		if objects == nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		// The poller may still install a good snapshot.
		a.logger.WithError(err).Error("Starting without a dataset")
		sentry.Capture(ctx, err, map[string]string{"component": "dataset", "origin": warmup.OriginStartup})
	}

	if objects != nil {
		a.snapshots = snapshot.NewManager(objects, db, a.loader, snapshot.Config{
			Key:          a.cfg.R2.SnapshotKey,
			PollInterval: a.cfg.R2.PollInterval,
			DataDir:      a.cfg.Data.DataDir,
		}, a.metrics, a.logger)
		if version != localVersion {
			a.snapshots.SetETag(version)
		}
	}
	return nil
}

// downloadIfMissing fetches the published snapshot to path when no local
// database exists. It returns the downloaded ETag, or "" when nothing was
// downloaded.
func (a *Application) downloadIfMissing(ctx context.Context, objects snapshot.ObjectStore, path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	obj, err := snapshot.Download(ctx, objects, a.cfg.R2.SnapshotKey, path)
	if errors.Is(err, snapshot.ErrNotFound) {
		a.logger.Info("No published snapshot yet")
		return "", nil
	}
	if err != nil {
		return "", err
	}
	a.logger.WithFields(map[string]any{"etag": obj.ETag, "bytes": obj.Size}).Info("Snapshot downloaded")
	return obj.ETag, nil
}

func (a *Application) startBackgroundJobs(ctx context.Context) {
	if a.snapshots != nil {
		a.wg.Go(func() { a.snapshots.Run(ctx) })
	}
	a.wg.Go(func() { a.updateDatasetMetrics(ctx) })
}

// updateDatasetMetrics refreshes gauges that are not updated on their own.
func (a *Application) updateDatasetMetrics(ctx context.Context) {
	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if snap := a.store.Load(); snap != nil {
				a.metrics.SetSnapshotSize(snap.Catalog.Len(), snap.Corpus.Len())
			}
			if a.limiter != nil {
				a.metrics.SetRateLimiterActive("client", a.limiter.GetActiveCount())
			}
		}
	}
}
