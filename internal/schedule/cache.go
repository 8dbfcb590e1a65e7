package schedule

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
	redisclient "github.com/gustavosantosASA/Florestal-App-PPR/pkg/redis"
)

const defaultCacheTTL = 300 * time.Second

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(tab string, generation int64, scope string) string
	FilterSessionKey(sessionID string) string
	Generation(ctx context.Context, tab string) (int64, error)
	BumpGeneration(ctx context.Context, tab string) (int64, error)
}

type cacheObserver interface {
	IncHit(tab string)
	IncMiss(tab string)
	IncError(tab string)
}

type noopCacheObserver struct{}

func (noopCacheObserver) IncHit(string)   {}
func (noopCacheObserver) IncMiss(string)  {}
func (noopCacheObserver) IncError(string) {}

// viewCache keeps scoped views in redis under a per-tab generation. Bumping
// the generation orphans every earlier entry; they expire on their TTL.
// Any redis failure degrades to an uncached read.
//
// A tab whose bump failed stays stale: reads bypass the cache and retry the
// bump until one succeeds.
type viewCache struct {
	store   cacheStore
	ttl     time.Duration
	metrics cacheObserver
	logg    *logger.Logger

	mu     sync.Mutex
	stale  map[string]bool
	scopes map[string]map[string]struct{}
}

// lookup returns the cached view and the generation it was looked up under.
// ok is false on a miss or when the cache is unavailable; gen is -1 when the
// result must not be stored.
func (c *viewCache) lookup(ctx context.Context, tab, scope string) (view *View, gen int64, ok bool) {
	if c == nil || c.store == nil {
		return nil, -1, false
	}
	if c.isStale(tab) && !c.bump(ctx, tab) {
		return nil, -1, false
	}
	gen, err := c.store.Generation(ctx, tab)
	if err != nil {
		c.warn(ctx, tab, "cache generation unavailable", err)
		return nil, -1, false
	}
	raw, err := c.store.Get(ctx, c.store.CacheKey(tab, gen, scope))
	if err != nil {
		if redisclient.IsMiss(err) {
			c.metrics.IncMiss(tab)
			return nil, gen, false
		}
		c.warn(ctx, tab, "cache read failed", err)
		return nil, gen, false
	}
	var cached View
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.warn(ctx, tab, "cache entry undecodable", err)
		return nil, gen, false
	}
	c.metrics.IncHit(tab)
	return &cached, gen, true
}

func (c *viewCache) save(ctx context.Context, tab string, gen int64, scope string, view *View) {
	if c == nil || c.store == nil || gen < 0 {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		c.warn(ctx, tab, "cache entry unencodable", err)
		return
	}
	if err := c.store.Set(ctx, c.store.CacheKey(tab, gen, scope), string(data), c.ttl); err != nil {
		c.warn(ctx, tab, "cache write failed", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scopes == nil {
		c.scopes = map[string]map[string]struct{}{}
	}
	if c.scopes[tab] == nil {
		c.scopes[tab] = map[string]struct{}{}
	}
	c.scopes[tab][scope] = struct{}{}
}

// invalidate makes every cached view of tab unreachable. When the generation
// cannot be bumped, the entries this process wrote under the current
// generation are deleted and the tab is marked stale.
func (c *viewCache) invalidate(ctx context.Context, tab string) {
	if c == nil || c.store == nil {
		return
	}
	if c.bump(ctx, tab) {
		return
	}
	c.dropKnownScopes(ctx, tab)
}

func (c *viewCache) bump(ctx context.Context, tab string) bool {
	_, err := c.store.BumpGeneration(ctx, tab)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.stale, tab)
		delete(c.scopes, tab)
		return true
	}
	if c.stale == nil {
		c.stale = map[string]bool{}
	}
	wasStale := c.stale[tab]
	c.stale[tab] = true
	c.metrics.IncError(tab)
	if !wasStale && c.logg != nil {
		c.logg.Error(c.logg.WithTab(ctx, tab), "cache invalidation failed; bypassing cache until it succeeds", err)
	}
	return false
}

func (c *viewCache) dropKnownScopes(ctx context.Context, tab string) {
	gen, err := c.store.Generation(ctx, tab)
	if err != nil {
		c.warn(ctx, tab, "cache generation unavailable", err)
		return
	}
	c.mu.Lock()
	keys := make([]string, 0, len(c.scopes[tab]))
	for scope := range c.scopes[tab] {
		keys = append(keys, c.store.CacheKey(tab, gen, scope))
	}
	c.mu.Unlock()
	if len(keys) == 0 {
		return
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.warn(ctx, tab, "cache entries not dropped", err)
	}
}

func (c *viewCache) isStale(tab string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[tab]
}

func (c *viewCache) warn(ctx context.Context, tab, msg string, err error) {
	c.metrics.IncError(tab)
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithTab(ctx, tab)
	ctx = c.logg.WithField(ctx, "error", err.Error())
	c.logg.Warn(ctx, msg)
}
