package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pagemesh/pagemesh/pkg/config"
	"github.com/pagemesh/pagemesh/pkg/proto"
	pkgredis "github.com/pagemesh/pagemesh/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "mesh:"

// Cache stores the built mesh for a site in Redis. Concurrent rebuilds for
// the same site are collapsed via singleflight so a catalog burst triggers
// exactly one build.
type Cache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a mesh Cache backed by the given Redis client.
func NewCache(client *pkgredis.Client, cfg config.RedisConfig) *Cache {
	return &Cache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "mesh-cache"),
	}
}

// Get returns the cached mesh for the site, if present.
func (c *Cache) Get(ctx context.Context, site string) ([]proto.SemanticNode, bool) {
	key := keyPrefix + site
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("mesh cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var nodes []proto.SemanticNode
	if err := json.Unmarshal([]byte(data), &nodes); err != nil {
		c.logger.Error("mesh cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("mesh cache hit", "site", site, "nodes", len(nodes))
	return nodes, true
}

// Set stores the mesh for the site with the configured TTL.
func (c *Cache) Set(ctx context.Context, site string, nodes []proto.SemanticNode) {
	key := keyPrefix + site
	data, err := json.Marshal(nodes)
	if err != nil {
		c.logger.Error("mesh cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("mesh cache set failed", "key", key, "error", err)
	}
}

// GetOrBuild returns the cached mesh for the site, building and caching it
// via buildFn on a miss. The bool reports whether the mesh came from cache.
func (c *Cache) GetOrBuild(
	ctx context.Context,
	site string,
	buildFn func() ([]proto.SemanticNode, error),
) ([]proto.SemanticNode, bool, error) {
	if nodes, ok := c.Get(ctx, site); ok {
		return nodes, true, nil
	}
	val, err, _ := c.group.Do(keyPrefix+site, func() (interface{}, error) {
		if nodes, ok := c.Get(ctx, site); ok {
			return nodes, nil
		}
		nodes, err := buildFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, site, nodes)
		return nodes, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]proto.SemanticNode), false, nil
}

// Invalidate removes every cached mesh.
func (c *Cache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating mesh cache: %w", err)
	}
	c.logger.Info("mesh cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit/miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
