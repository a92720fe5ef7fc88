package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// closeGrace is how long replaced pools stay open for in-flight queries.
const closeGrace = 5 * time.Second

// HotSwapDB wraps a DB whose file can be replaced at runtime, for example
// with a snapshot downloaded from R2. Readers take a read lock; Swap takes
// the write lock only for the pointer exchange.
type HotSwapDB struct {
	mu      sync.RWMutex
	current *DB
}

// NewHotSwapDB opens dbPath.
func NewHotSwapDB(ctx context.Context, dbPath string) (*HotSwapDB, error) {
	db, err := New(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("hotswap: create initial db: %w", err)
	}
	return &HotSwapDB{current: db}, nil
}

// DB returns the current database. Fetch it per operation so a swap
// between operations is picked up; a handle held across a swap stays
// usable for closeGrace.
func (h *HotSwapDB) DB() *DB {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Swap opens newDBPath, and on success makes it current. The old pools
// are closed after a grace period and the old file is removed when it
// differs from the new one.
func (h *HotSwapDB) Swap(ctx context.Context, newDBPath string) error {
	newDB, err := New(ctx, newDBPath)
	if err != nil {
		return fmt.Errorf("hotswap: open new db: %w", err)
	}
	if err := newDB.Ping(ctx); err != nil {
		_ = newDB.Close()
		return fmt.Errorf("hotswap: ping new db: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = newDB
	h.mu.Unlock()

	go retire(old, newDBPath)
	return nil
}

// retire closes old once in-flight operations holding it have had time to
// finish.
func retire(old *DB, newPath string) {
	time.Sleep(closeGrace)
	if err := old.Close(); err != nil {
		slog.Warn("failed to close replaced database", "path", old.Path(), "error", err)
	}
	if oldPath := old.Path(); oldPath != newPath && oldPath != memoryPath {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(oldPath + suffix); err != nil && !os.IsNotExist(err) {
				slog.Warn("failed to remove replaced database file", "path", oldPath+suffix, "error", err)
			}
		}
	}
}

// Path returns the current database file path.
func (h *HotSwapDB) Path() string {
	return h.DB().Path()
}

// Ping checks the current database.
func (h *HotSwapDB) Ping(ctx context.Context) error {
	return h.DB().Ping(ctx)
}

// Close closes the current database.
func (h *HotSwapDB) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		return h.current.Close()
	}
	return nil
}
