package ratelimit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsFull(t *testing.T) {
	t.Parallel()
	l := New(30, 1)
	assert.InDelta(t, 30, l.Available(), 0.01)
	assert.True(t, l.IsFull())
}

func TestAllow(t *testing.T) {
	t.Parallel()

	t.Run("burst then deny", func(t *testing.T) {
		t.Parallel()
		l := New(3, 0)
		for i := range 3 {
			require.True(t, l.Allow(), "request %d", i+1)
		}
		assert.False(t, l.Allow())
		assert.False(t, l.IsFull())
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()
		l := New(1, 100)
		require.True(t, l.Allow())
		time.Sleep(20 * time.Millisecond)
		assert.True(t, l.Allow())
	})
}

func TestCheckDoesNotConsume(t *testing.T) {
	t.Parallel()
	l := New(1, 0)

	require.True(t, l.Check())
	require.True(t, l.Check())
	l.Consume()
	assert.False(t, l.Check())
	assert.InDelta(t, 0, l.Available(), 0.001)
}

func TestWait(t *testing.T) {
	t.Parallel()

	t.Run("returns at once with tokens", func(t *testing.T) {
		t.Parallel()
		l := New(2, 1)
		start := time.Now()
		require.NoError(t, l.Wait(context.Background()))
		assert.Less(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("blocks until refill", func(t *testing.T) {
		t.Parallel()
		l := New(1, 50)
		l.Allow()
		start := time.Now()
		require.NoError(t, l.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	})

	t.Run("deadline", func(t *testing.T) {
		t.Parallel()
		l := New(0, 0.1)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
	})

	t.Run("canceled before call", func(t *testing.T) {
		t.Parallel()
		l := New(5, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
		assert.InDelta(t, 5, l.Available(), 0.001, "canceled Wait must not take a token")
	})
}

func TestConcurrentAllow(t *testing.T) {
	t.Parallel()
	l := New(100, 0)

	var allowed atomic.Int64
	done := make(chan struct{})
	for range 50 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 3 {
				if l.Allow() {
					allowed.Add(1)
				}
			}
		}()
	}
	for range 50 {
		<-done
	}
	assert.EqualValues(t, 100, allowed.Load())
}
