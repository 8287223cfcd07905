package ratelimiter

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, rate, capacity float64) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	l := New(rate, capacity, time.Hour)
	l.now = clock.now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	t.Run("burst up to capacity", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1, 3)
		for i := 0; i < 3; i++ {
			assert.True(t, l.Allow("u1"))
		}
		assert.False(t, l.Allow("u1"))
	})

	t.Run("identities are independent", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1, 1)
		assert.True(t, l.Allow("u1"))
		assert.False(t, l.Allow("u1"))
		assert.True(t, l.Allow("u2"))
	})

	t.Run("refills over time", func(t *testing.T) {
		l, clock := newTestLimiter(t, 0.5, 1)
		assert.True(t, l.Allow("u1"))
		clock.advance(time.Second)
		assert.False(t, l.Allow("u1"))
		clock.advance(time.Second)
		assert.True(t, l.Allow("u1"))
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		l, clock := newTestLimiter(t, 1, 2)
		assert.True(t, l.Allow("u1"))
		clock.advance(time.Hour)
		assert.True(t, l.Allow("u1"))
		assert.True(t, l.Allow("u1"))
		assert.False(t, l.Allow("u1"))
	})

	t.Run("concurrent requests", func(t *testing.T) {
		l, _ := newTestLimiter(t, 0, 10)
		var allowed atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if l.Allow("u1") {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(10), allowed.Load())
	})
}

func TestLimiter_EvictIdle(t *testing.T) {
	l, clock := newTestLimiter(t, 1, 1)
	l.Allow("old")
	clock.advance(30 * time.Minute)
	l.Allow("fresh")
	clock.advance(45 * time.Minute)

	l.evictIdle()
	assert.Equal(t, 1, l.size())

	// an evicted identity starts over with a full bucket
	assert.True(t, l.Allow("old"))
}
