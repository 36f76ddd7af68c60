package geo

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"food-rescue-api-server/internal/models"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxInFlight is the number of routing calls allowed at once before lookups are shed.
const DefaultMaxInFlight = 3

// Cache memoizes resolver results per ordered coordinate pair and bounds the number of resolver
// calls in flight. Entries are never evicted.
type Cache struct {
	resolver Resolver
	ceiling  int64
	timeout  time.Duration

	mu      sync.RWMutex
	entries map[Key]Distance

	inFlight atomic.Int64
	group    singleflight.Group
}

// NewCache builds a cache in front of resolver. A ceiling <= 0 means DefaultMaxInFlight;
// a timeout <= 0 leaves the resolver call bounded only by the resolver itself.
func NewCache(resolver Resolver, ceiling int, timeout time.Duration) *Cache {
	if ceiling <= 0 {
		ceiling = DefaultMaxInFlight
	}
	return &Cache{
		resolver: resolver,
		ceiling:  int64(ceiling),
		timeout:  timeout,
		entries:  make(map[Key]Distance),
	}
}

// Ceiling returns the in-flight limit.
func (c *Cache) Ceiling() int { return int(c.ceiling) }

// InFlight returns the number of resolver calls currently running.
func (c *Cache) InFlight() int { return int(c.inFlight.Load()) }

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// DistanceBetween returns the road distance from a to b. It never fails: resolver errors become
// Unavailable, which is cached for the pair forever. When the ceiling is reached the lookup is shed
// and returns Unavailable without caching it. Concurrent cold lookups of one pair share a single call.
func (c *Cache) DistanceBetween(ctx context.Context, a, b models.Coordinate) Distance {
	key := KeyFor(a, b)
	if d, ok := c.lookup(key); ok {
		return d
	}

	v, _, _ := c.group.Do(string(key), func() (interface{}, error) {
		if d, ok := c.lookup(key); ok {
			return d, nil
		}
		if !c.acquire() {
			return Unavailable, nil
		}
		defer c.inFlight.Add(-1)

		d := c.resolve(ctx, key, a, b)
		c.mu.Lock()
		c.entries[key] = d
		c.mu.Unlock()
		return d, nil
	})
	return v.(Distance)
}

func (c *Cache) lookup(key Key) (Distance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[key]
	return d, ok
}

// acquire reserves an in-flight slot, or reports false when the ceiling is reached.
func (c *Cache) acquire() bool {
	for {
		n := c.inFlight.Load()
		if n >= c.ceiling {
			return false
		}
		if c.inFlight.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (c *Cache) resolve(ctx context.Context, key Key, a, b models.Coordinate) (d Distance) {
	// The result is shared with other callers and cached, so one caller going away must not
	// turn it into a permanent Unavailable.
	callCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, c.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Distance lookup %s panicked: %v", key, r)
			d = Unavailable
		}
	}()

	km, err := c.resolver.RouteDistanceKm(callCtx, a, b)
	if err != nil {
		log.Printf("Distance lookup %s failed: %v", key, fmt.Errorf("routing service: %w", err))
		return Unavailable
	}
	if km < 0 {
		return Unavailable
	}
	return Km(km)
}
