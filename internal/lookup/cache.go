package lookup

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Harshitk-cp/begrippen/internal/domain"
)

// Cache stores provider hits per key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.LookupHit, bool, error)
	Set(ctx context.Context, key string, hits []domain.LookupHit, ttl time.Duration) error
}

// MemoryCache is a bounded LRU with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	max     int
	entries *list.List
	index   map[string]*list.Element
	now     func() time.Time
}

type memoryEntry struct {
	key     string
	hits    []domain.LookupHit
	expires time.Time
}

func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryCache{
		max:     maxEntries,
		entries: list.New(),
		index:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.LookupHit, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return nil, false, nil
	}
	entry := el.Value.(*memoryEntry)
	if !c.now().Before(entry.expires) {
		c.entries.Remove(el)
		delete(c.index, key)
		return nil, false, nil
	}
	c.entries.MoveToFront(el)
	return copyHits(entry.hits), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, hits []domain.LookupHit, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(ttl)
	if el, ok := c.index[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.hits = copyHits(hits)
		entry.expires = expires
		c.entries.MoveToFront(el)
		return nil
	}

	c.index[key] = c.entries.PushFront(&memoryEntry{key: key, hits: copyHits(hits), expires: expires})
	for c.entries.Len() > c.max {
		oldest := c.entries.Back()
		c.entries.Remove(oldest)
		delete(c.index, oldest.Value.(*memoryEntry).key)
	}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func copyHits(hits []domain.LookupHit) []domain.LookupHit {
	if hits == nil {
		return []domain.LookupHit{}
	}
	out := make([]domain.LookupHit, len(hits))
	copy(out, hits)
	return out
}

const redisKeyPrefix = "begrippen:lookup:"

// RedisCache shares provider hits between instances.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient connects to url and verifies the connection. It returns nil
// when url is empty.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.LookupHit, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var hits []domain.LookupHit
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, false, fmt.Errorf("decode cached hits: %w", err)
	}
	return copyHits(hits), true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, hits []domain.LookupHit, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(copyHits(hits))
	if err != nil {
		return fmt.Errorf("encode hits: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
