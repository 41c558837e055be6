package schedule

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/flowlens/flowlens/pkg/models"
)

// EventCache is the short-lived store for computed schedule events. Entries
// are immutable once written; recomputation for the same key yields
// equivalent results, so concurrent writers may race and last-writer-wins is
// acceptable.
type EventCache interface {
	Get(ctx context.Context, key string) ([]models.ScheduleEvent, bool)
	Set(ctx context.Context, key string, events []models.ScheduleEvent)
}

var supportedCacheProviders = []string{"redis", "memory"}

// NewEventCache builds a cache implementation from a provider URL. A
// redis:// URL selects the Redis-backed cache; anything else falls back to
// the in-process memory cache.
func NewEventCache(cacheURL string, ttl time.Duration, logger *slog.Logger) EventCache {
	switch parseCacheProvider(cacheURL) {
	case "redis":
		opts, err := redis.ParseURL(cacheURL)
		if err != nil {
			logger.Error("Invalid redis cache URL, falling back to memory cache", "error", err)

			return NewMemoryCache(ttl)
		}

		return NewRedisCache(redis.NewClient(opts), ttl, logger)
	default:
		return NewMemoryCache(ttl)
	}
}

func parseCacheProvider(cacheURL string) string {
	provider, _, found := strings.Cut(cacheURL, "://")
	if !found {
		return "memory"
	}

	for _, supported := range supportedCacheProviders {
		if provider == supported {
			return provider
		}
	}

	return "memory"
}

type cachedEvents struct {
	events    []models.ScheduleEvent
	expiresAt time.Time
}

// MemoryCache is the in-process TTL cache. Expired entries are swept
// opportunistically on writes, throttled to at most one sweep per TTL window,
// so no background timer is needed.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]cachedEvents
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cachedEvents),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]models.ScheduleEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}

	return entry.events, true
}

func (c *MemoryCache) Set(_ context.Context, key string, events []models.ScheduleEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)
	c.entries[key] = cachedEvents{events: events, expiresAt: now.Add(c.ttl)}
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < c.ttl {
		return
	}

	c.lastSweep = now

	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// RedisCache stores event sets as JSON values with a server-side TTL, for
// deployments running more than one inspector instance against the same n8n.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("module", "schedule_cache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.ScheduleEvent, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed", "error", err)
		}

		return nil, false
	}

	var events []models.ScheduleEvent
	if err := json.Unmarshal(payload, &events); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", "error", err)

		return nil, false
	}

	return events, true
}

func (c *RedisCache) Set(ctx context.Context, key string, events []models.ScheduleEvent) {
	payload, err := json.Marshal(events)
	if err != nil {
		c.logger.Warn("Cache write skipped, events not serializable", "error", err)

		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", "error", err)
	}
}
