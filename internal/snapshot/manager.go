// Package snapshot distributes the campus dataset through R2. Operators
// publish a compressed SQLite copy; servers poll the object's ETag,
// download new versions, hot-swap the database and reload the resolver.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/campusnav/campus-navigator-go/internal/config"
	"github.com/campusnav/campus-navigator-go/internal/logger"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
	"github.com/campusnav/campus-navigator-go/internal/r2client"
	"github.com/campusnav/campus-navigator-go/internal/sentry"
	"github.com/campusnav/campus-navigator-go/internal/storage"
	"github.com/campusnav/campus-navigator-go/internal/warmup"
)

// ErrNotFound indicates no snapshot has been published.
var ErrNotFound = errors.New("snapshot: not found")

const contentType = "application/zstd"

// ObjectStore is the subset of *r2client.Client used here.
type ObjectStore interface {
	Stat(ctx context.Context, key string) (r2client.Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, r2client.Object, error)
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// Config holds manager settings.
type Config struct {
	Key          string        // Object key, e.g. snapshots/campus.db.zst
	PollInterval time.Duration // How often the ETag is checked
	DataDir      string        // Where downloaded databases are written
}

// Manager keeps the local dataset in step with the published snapshot.
type Manager struct {
	objects ObjectStore
	db      *storage.HotSwapDB
	loader  *warmup.Loader
	cfg     Config
	metrics *metrics.Metrics
	log     *logger.Logger

	group singleflight.Group

	mu   sync.RWMutex
	etag string
}

// NewManager returns a manager that swaps downloads into db and reloads
// them through loader.
func NewManager(objects ObjectStore, db *storage.HotSwapDB, loader *warmup.Loader, cfg Config, m *metrics.Metrics, log *logger.Logger) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = config.SnapshotPollDefault
	}
	return &Manager{
		objects: objects,
		db:      db,
		loader:  loader,
		cfg:     cfg,
		metrics: m,
		log:     log.WithModule("snapshot"),
	}
}

// ETag returns the version of the dataset currently loaded from R2.
func (m *Manager) ETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.etag
}

// SetETag records the version of a dataset loaded outside Refresh, such as
// the startup download.
func (m *Manager) SetETag(etag string) {
	m.mu.Lock()
	m.etag = etag
	m.mu.Unlock()
}

// Download fetches the published snapshot into dst.
func Download(ctx context.Context, objects ObjectStore, key, dst string) (r2client.Object, error) {
	body, obj, err := objects.Get(ctx, key)
	if errors.Is(err, r2client.ErrNotFound) {
		return r2client.Object{}, ErrNotFound
	}
	if err != nil {
		return r2client.Object{}, fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	if err := r2client.DecompressTo(body, dst); err != nil {
		return r2client.Object{}, fmt.Errorf("download snapshot: %w", err)
	}
	return obj, nil
}

// Refresh installs the published snapshot when its ETag differs from the
// loaded one and reports whether it did. Concurrent calls share one run.
func (m *Manager) Refresh(ctx context.Context, origin string) (bool, error) {
	v, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.refresh(ctx, origin)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (m *Manager) refresh(ctx context.Context, origin string) (bool, error) {
	remote, err := m.objects.Stat(ctx, m.cfg.Key)
	if errors.Is(err, r2client.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat snapshot: %w", err)
	}
	if remote.ETag == m.ETag() {
		return false, nil
	}

	m.log.WithFields(map[string]any{
		"old_etag": m.ETag(),
		"new_etag": remote.ETag,
	}).Info("New snapshot detected")

	path := filepath.Join(m.cfg.DataDir, fmt.Sprintf("campus_%d.db", time.Now().UnixNano()))
	obj, err := Download(ctx, m.objects, m.cfg.Key, path)
	if err != nil {
		m.metrics.RecordSnapshotLoad(origin, "error", 0)
		return false, err
	}

	if err := m.db.Swap(ctx, path); err != nil {
		m.metrics.RecordSnapshotLoad(origin, "error", 0)
		removeDB(path)
		return false, fmt.Errorf("swap database: %w", err)
	}

	if _, err := m.loader.Load(ctx, m.db.DB(), origin, obj.ETag); err != nil {
		return false, err
	}
	m.SetETag(obj.ETag)
	return true, nil
}

// Run polls for new snapshots until ctx is canceled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	m.log.WithFields(map[string]any{
		"interval": m.cfg.PollInterval.String(),
		"key":      m.cfg.Key,
	}).Info("Snapshot polling started")

	for {
		select {
		case <-ctx.Done():
			m.log.Info("Snapshot polling stopped")
			return
		case <-ticker.C:
			pollCtx, cancel := context.WithTimeout(ctx, config.SnapshotLoadTimeout)
			if _, err := m.Refresh(pollCtx, warmup.OriginPoll); err != nil {
				m.log.WithError(err).Warn("Snapshot poll failed")
				sentry.Capture(ctx, err, map[string]string{"component": "snapshot", "key": m.cfg.Key})
			}
			cancel()
		}
	}
}

// Publish writes a consistent copy of db, compresses it and uploads it
// under key. It returns the new ETag.
func Publish(ctx context.Context, objects ObjectStore, db *storage.DB, key, tmpDir string) (string, error) {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	dir, err := os.MkdirTemp(tmpDir, "campus-publish-")
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	defer os.RemoveAll(dir)

	raw := filepath.Join(dir, "campus.db")
	if err := db.VacuumInto(ctx, raw); err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	packed := raw + ".zst"
	if err := r2client.CompressFile(raw, packed); err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}

	f, err := os.Open(packed)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	defer f.Close()

	etag, err := objects.Put(ctx, key, f, contentType)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	return etag, nil
}

func removeDB(path string) {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
}
