package searchd

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/skarande/trecrank/internal/normalizer"
	"github.com/skarande/trecrank/pkg/config"
	pkgredis "github.com/skarande/trecrank/pkg/redis"
)

const keyPrefix = "rank:"

// ResultCache stores serialized query results in Redis, de-duplicating
// concurrent misses for the same key with singleflight. The underlying index
// is immutable for the process lifetime, so entries only expire by TTL.
type ResultCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func NewResultCache(client *pkgredis.Client, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
}

func (c *ResultCache) Get(ctx context.Context, query normalizer.TermFrequencyMap, limit int) (*SearchResponse, bool) {
	key := c.buildKey(query, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var resp SearchResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &resp, true
}

func (c *ResultCache) Set(ctx context.Context, query normalizer.TermFrequencyMap, limit int, resp *SearchResponse) {
	key := c.buildKey(query, limit)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response for the normalized query, or runs
// computeFn exactly once per key across concurrent callers.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	query normalizer.TermFrequencyMap,
	limit int,
	computeFn func() (*SearchResponse, error),
) (*SearchResponse, bool, error) {
	if resp, ok := c.Get(ctx, query, limit); ok {
		return resp, true, nil
	}
	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if resp, ok := c.Get(ctx, query, limit); ok {
			return resp, nil
		}
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*SearchResponse), false, nil
}

// Invalidate removes all cached results.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the sorted term:frequency pairs of the normalized query,
// so surface variants of the same query share an entry while queries over
// the same term set with different frequencies do not: the query-side
// frequencies feed the ranking, so they are part of the identity.
func (c *ResultCache) buildKey(query normalizer.TermFrequencyMap, limit int) string {
	pairs := make([]string, 0, len(query))
	for term, freq := range query {
		pairs = append(pairs, fmt.Sprintf("%s:%d", term, freq))
	}
	sort.Strings(pairs)
	raw := fmt.Sprintf("%s:limit=%d", strings.Join(pairs, ","), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
