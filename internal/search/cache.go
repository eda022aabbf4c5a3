// internal/search/cache.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/common/metrics"
	"ferreteria-gateway/internal/models"
)

const cacheKeyPrefix = "gateway:search:"

// CachedService decorates a Service with a redis response cache. The
// pipeline never depends on it: every cache failure degrades to a
// plain miss and the wrapped service answers as usual. Only list
// operations are cached; product detail reflects live stock.
type CachedService struct {
	inner  Service
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedService(inner Service, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedService {
	return &CachedService{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "search-cache"}),
	}
}

func (c *CachedService) Search(ctx context.Context, req models.SearchRequest) (*Result, error) {
	key := fmt.Sprintf("%ssearch:%s:%d", cacheKeyPrefix, req.Query, req.Limit)
	return c.cached(ctx, key, func() (*Result, error) {
		return c.inner.Search(ctx, req)
	})
}

func (c *CachedService) Recommend(ctx context.Context, sku string, limit int) (*Result, error) {
	key := fmt.Sprintf("%srecommend:%s:%d", cacheKeyPrefix, sku, limit)
	return c.cached(ctx, key, func() (*Result, error) {
		return c.inner.Recommend(ctx, sku, limit)
	})
}

func (c *CachedService) ProductDetail(ctx context.Context, sku string) (*Result, error) {
	return c.inner.ProductDetail(ctx, sku)
}

// Clear removes every cached search response. Exposed through the
// admin cache endpoint.
func (c *CachedService) Clear(ctx context.Context) (int, error) {
	var deleted int
	iter := c.rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (c *CachedService) cached(ctx context.Context, key string, fetch func() (*Result, error)) (*Result, error) {
	if cachedVal, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var result Result
		if err := json.Unmarshal([]byte(cachedVal), &result); err == nil {
			metrics.CacheHits.WithLabelValues("hit").Inc()
			return &result, nil
		}
		// Unreadable entry: drop it and fall through to the origin.
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		metrics.CacheHits.WithLabelValues("error").Inc()
		c.logger.Warn("cache lookup failed, falling through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	} else {
		metrics.CacheHits.WithLabelValues("miss").Inc()
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache store failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return result, nil
}
