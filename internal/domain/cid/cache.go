package cid

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "cid:category:"

// Cache stores code to category pairs. An empty category marks a code known
// to have none.
type Cache interface {
	GetMany(ctx context.Context, codes []string) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string, ttl time.Duration) error
}

// RedisCache implements Cache with plain string keys.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) GetMany(ctx context.Context, codes []string) (map[string]string, error) {
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = keyPrefix + code
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("cid cache get: %w", err)
	}
	out := make(map[string]string, len(codes))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[codes[i]] = s
		}
	}
	return out, nil
}

func (c *RedisCache) SetMany(ctx context.Context, values map[string]string, ttl time.Duration) error {
	pipe := c.client.Pipeline()
	for code, category := range values {
		pipe.Set(ctx, keyPrefix+code, category, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cid cache set: %w", err)
	}
	return nil
}

// CachedCatalog fronts a Catalog with a Cache for category lookups. Cache
// failures are logged and fall through to the catalog.
type CachedCatalog struct {
	next  Catalog
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCachedCatalog(next Catalog, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, cache: cache, ttl: ttl, log: logger}
}

// FindCategoriesByCodes keys both the cache and the result by normalized code.
func (c *CachedCatalog) FindCategoriesByCodes(ctx context.Context, codes []string) (map[string]string, error) {
	codes = UniqueCodes(codes)
	out := make(map[string]string, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	cached, err := c.cache.GetMany(ctx, codes)
	if err != nil {
		c.log.Warn().Err(err).Msg("cid cache unavailable")
		cached = nil
	}
	var missing []string
	for _, code := range codes {
		category, ok := cached[code]
		switch {
		case !ok:
			missing = append(missing, code)
		case category != "":
			out[code] = category
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	found, err := c.next.FindCategoriesByCodes(ctx, missing)
	if err != nil {
		return nil, err
	}
	fill := make(map[string]string, len(missing))
	for _, code := range missing {
		fill[code] = found[code]
		if category, ok := found[code]; ok {
			out[code] = category
		}
	}
	if err := c.cache.SetMany(ctx, fill, c.ttl); err != nil {
		c.log.Warn().Err(err).Msg("cid cache fill failed")
	}
	return out, nil
}

func (c *CachedCatalog) Search(ctx context.Context, query string, limit int) ([]*Entry, error) {
	return c.next.Search(ctx, query, limit)
}
