package openweather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

// CachedClient wraps a WeatherProvider with an in-memory LRU cache whose
// entries expire after a fixed TTL. Coordinates are rounded to two decimals
// (about 1 km) before keying.
type CachedClient struct {
	inner   domain.WeatherProvider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedClient creates a cache decorator around a weather provider.
func NewCachedClient(inner domain.WeatherProvider, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedClient {
	return &CachedClient{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *CachedClient) Current(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	return c.lookup(ctx, "current", lat, lon, c.inner.Current)
}

func (c *CachedClient) Forecast(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	return c.lookup(ctx, "forecast", lat, lon, c.inner.Forecast)
}

func (c *CachedClient) lookup(
	ctx context.Context,
	method string,
	lat, lon float64,
	fetch func(context.Context, float64, float64) (domain.WeatherSnapshot, error),
) (domain.WeatherSnapshot, error) {
	key := fmt.Sprintf("%s:%.2f,%.2f", method, lat, lon)
	if snap, ok := c.cache.get(key); ok {
		c.metrics.WeatherCache.WithLabelValues(method, "hit").Inc()
		// The entry may have been filled by a neighbouring point.
		snap.Location.Latitude, snap.Location.Longitude = lat, lon
		return snap, nil
	}
	c.metrics.WeatherCache.WithLabelValues(method, "miss").Inc()

	snap, err := fetch(ctx, lat, lon)
	if err != nil {
		return snap, err
	}
	c.cache.put(key, snap)
	return snap, nil
}

// lruCache is a thread-safe LRU cache of weather snapshots with per-entry expiry.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.WeatherSnapshot
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.WeatherSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.WeatherSnapshot{}, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.WeatherSnapshot{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.WeatherSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
