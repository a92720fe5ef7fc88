package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter approximates a rolling window with two fixed windows:
// the previous window's count is weighted by how much of it still overlaps
// the rolling window ending now.
//
//	effective = current + previous * (window - elapsed) / window
//
// A nil counter is disabled and allows everything.
type SlidingWindowCounter struct {
	mu          sync.Mutex
	curr        int
	prev        int
	windowStart time.Time
	window      time.Duration
	max         int
}

// NewSlidingWindowCounter returns nil when maxRequests <= 0.
func NewSlidingWindowCounter(maxRequests int, window time.Duration) *SlidingWindowCounter {
	if maxRequests <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		windowStart: time.Now(),
		window:      window,
		max:         maxRequests,
	}
}

// Allow counts a request if the window has room.
func (w *SlidingWindowCounter) Allow() bool {
	if w == nil {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	if w.effective() >= float64(w.max) {
		return false
	}
	w.curr++
	return true
}

// Check reports whether a request would be counted.
func (w *SlidingWindowCounter) Check() bool {
	if w == nil {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	return w.effective() < float64(w.max)
}

// Consume counts a request if the window still has room.
func (w *SlidingWindowCounter) Consume() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	if w.effective() < float64(w.max) {
		w.curr++
	}
}

// rotate must be called with mu held.
func (w *SlidingWindowCounter) rotate() {
	elapsed := time.Since(w.windowStart)
	if elapsed < w.window {
		return
	}

	passed := int(elapsed / w.window)
	if passed == 1 {
		w.prev = w.curr
	} else {
		w.prev = 0
	}
	w.curr = 0
	w.windowStart = w.windowStart.Add(time.Duration(passed) * w.window)
}

// effective must be called with mu held.
func (w *SlidingWindowCounter) effective() float64 {
	overlap := float64(w.window-time.Since(w.windowStart)) / float64(w.window)
	overlap = min(max(overlap, 0), 1)
	return float64(w.curr) + float64(w.prev)*overlap
}

// GetEffectiveCount returns the weighted count.
func (w *SlidingWindowCounter) GetEffectiveCount() float64 {
	if w == nil {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	return w.effective()
}

// GetRemaining returns the approximate quota left, or -1 when disabled.
func (w *SlidingWindowCounter) GetRemaining() int {
	if w == nil {
		return -1
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	return max(int(float64(w.max)-w.effective()), 0)
}
