package geo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"food-rescue-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver counts calls and optionally blocks until released.
type stubResolver struct {
	calls   atomic.Int64
	running atomic.Int64
	peak    atomic.Int64
	release chan struct{}
	km      float64
	err     error
	panics  bool
}

func (s *stubResolver) RouteDistanceKm(ctx context.Context, _, _ models.Coordinate) (float64, error) {
	s.calls.Add(1)
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if s.panics {
		panic("boom")
	}
	return s.km, s.err
}

func point(i int) models.Coordinate {
	return models.Coordinate{Latitude: float64(i), Longitude: float64(i)}
}

func TestCacheMemoizes(t *testing.T) {
	r := &stubResolver{km: 5.123}
	c := NewCache(r, 3, time.Second)
	ctx := context.Background()

	first := c.DistanceBetween(ctx, point(1), point(2))
	second := c.DistanceBetween(ctx, point(1), point(2))
	assert.Equal(t, Km(5.12), first)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, r.calls.Load())

	// The reverse pair is a separate entry.
	c.DistanceBetween(ctx, point(2), point(1))
	assert.EqualValues(t, 2, r.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCacheFailureIsSticky(t *testing.T) {
	r := &stubResolver{err: errors.New("upstream 502")}
	c := NewCache(r, 3, time.Second)
	ctx := context.Background()

	assert.Equal(t, Unavailable, c.DistanceBetween(ctx, point(1), point(2)))

	r.err = nil
	r.km = 9
	assert.Equal(t, Unavailable, c.DistanceBetween(ctx, point(1), point(2)))
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestCacheRecoversResolverPanic(t *testing.T) {
	r := &stubResolver{panics: true}
	c := NewCache(r, 3, time.Second)

	assert.Equal(t, Unavailable, c.DistanceBetween(context.Background(), point(1), point(2)))
	assert.Equal(t, 0, c.InFlight())
	assert.Equal(t, 1, c.Len())
}

func TestCacheShedsAboveCeiling(t *testing.T) {
	r := &stubResolver{km: 1, release: make(chan struct{})}
	c := NewCache(r, 3, 5*time.Second)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Distance, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.DistanceBetween(ctx, point(0), point(i+1))
		}(i)
	}
	require.Eventually(t, func() bool { return c.InFlight() == 3 }, time.Second, time.Millisecond)

	// Ceiling reached: a fourth pair is shed and not remembered.
	assert.Equal(t, Unavailable, c.DistanceBetween(ctx, point(0), point(99)))
	assert.Equal(t, 0, c.Len())

	close(r.release)
	wg.Wait()
	for _, d := range results {
		assert.Equal(t, Km(1), d)
	}
	assert.Equal(t, 0, c.InFlight())
	assert.EqualValues(t, 3, r.peak.Load())

	// The shed pair resolves normally once capacity is back.
	assert.Equal(t, Km(1), c.DistanceBetween(ctx, point(0), point(99)))
	assert.Equal(t, 4, c.Len())
}

func TestCacheCeilingUnderLoad(t *testing.T) {
	r := &stubResolver{km: 2, release: make(chan struct{})}
	c := NewCache(r, 3, 5*time.Second)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.DistanceBetween(ctx, point(0), point(i+1))
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(r.release)
	wg.Wait()

	assert.LessOrEqual(t, r.peak.Load(), int64(3))
	assert.Equal(t, 0, c.InFlight())
	assert.EqualValues(t, c.Len(), r.calls.Load())
}

func TestCacheCoalescesConcurrentLookups(t *testing.T) {
	r := &stubResolver{km: 4, release: make(chan struct{})}
	c := NewCache(r, 3, 5*time.Second)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Distance, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.DistanceBetween(ctx, point(1), point(2))
		}(i)
	}
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(r.release)
	wg.Wait()

	assert.EqualValues(t, 1, r.calls.Load())
	for _, d := range results {
		assert.Equal(t, Km(4), d)
	}
}

func TestCacheCallerCancelDoesNotPoisonEntry(t *testing.T) {
	r := &stubResolver{km: 6, release: make(chan struct{})}
	c := NewCache(r, 3, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Distance)
	go func() { done <- c.DistanceBetween(ctx, point(1), point(2)) }()
	require.Eventually(t, func() bool { return c.InFlight() == 1 }, time.Second, time.Millisecond)
	cancel()
	close(r.release)

	assert.Equal(t, Km(6), <-done)
	assert.Equal(t, Km(6), c.DistanceBetween(context.Background(), point(1), point(2)))
}

func TestCacheTimeoutBecomesUnavailable(t *testing.T) {
	r := &stubResolver{km: 6, release: make(chan struct{})}
	defer close(r.release)
	c := NewCache(r, 3, 20*time.Millisecond)

	assert.Equal(t, Unavailable, c.DistanceBetween(context.Background(), point(1), point(2)))
	assert.Equal(t, 1, c.Len())
}
