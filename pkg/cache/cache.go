package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/matst80/slask-instant/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskinstant_cache_hits_total",
		Help: "Search responses served from cache",
	}, []string{"layer"})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskinstant_cache_misses_total",
		Help: "Search responses not found in any cache layer",
	})
)

// Store is the part of a redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

func NewRedisStore(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type LocalEntry struct {
	Expires time.Time
	Data    *types.ResponsePayload
}

type Options struct {
	Size   int
	TTL    time.Duration
	Prefix string
	// Store is an optional shared layer behind the local one.
	Store Store
}

// Cache wraps a search service and remembers successful responses, first in
// a bounded local LRU and then in the optional shared store.
type Cache struct {
	service types.SearchService
	opts    Options
	local   *lru.Cache[string, LocalEntry]
	// generation is part of every key. Purge moves it forward so entries
	// written before a change are never read again.
	generation atomic.Int64
}

func New(service types.SearchService, opts Options) (*Cache, error) {
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Minute
	}
	if opts.Prefix == "" {
		opts.Prefix = "slask-instant:"
	}
	local, err := lru.New[string, LocalEntry](opts.Size)
	if err != nil {
		return nil, err
	}
	c := &Cache{service: service, opts: opts, local: local}
	if opts.Store != nil {
		gen, err := opts.Store.Get(context.Background(), c.generationKey()).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("cache generation %s: %v", c.generationKey(), err)
		}
		c.generation.Store(gen)
	}
	return c, nil
}

func (c *Cache) generationKey() string {
	return c.opts.Prefix + "generation"
}

func (c *Cache) key(req *types.SearchRequest) string {
	return fmt.Sprintf("%s%d:%s", c.opts.Prefix, c.generation.Load(), req.CacheKey())
}

func (c *Cache) get(ctx context.Context, key string) (*types.ResponsePayload, bool) {
	if entry, ok := c.local.Get(key); ok {
		if entry.Expires.After(time.Now()) {
			cacheHits.WithLabelValues("local").Inc()
			return entry.Data, true
		}
		c.local.Remove(key)
	}
	if c.opts.Store == nil {
		return nil, false
	}
	data, err := c.opts.Store.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache get %s: %v", key, err)
		}
		return nil, false
	}
	payload := &types.ResponsePayload{}
	if err = sonic.Unmarshal(data, payload); err != nil {
		log.Printf("cache decode %s: %v", key, err)
		return nil, false
	}
	cacheHits.WithLabelValues("store").Inc()
	c.local.Add(key, LocalEntry{Expires: time.Now().Add(c.opts.TTL), Data: payload})
	return payload, true
}

func (c *Cache) set(ctx context.Context, key string, payload *types.ResponsePayload) {
	c.local.Add(key, LocalEntry{Expires: time.Now().Add(c.opts.TTL), Data: payload})
	if c.opts.Store == nil {
		return
	}
	data, err := sonic.Marshal(payload)
	if err != nil {
		log.Printf("cache encode %s: %v", key, err)
		return
	}
	if err = c.opts.Store.Set(ctx, key, data, c.opts.TTL).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

// Search returns a cached response for an identical request or asks the
// wrapped service. Failures are never cached.
func (c *Cache) Search(ctx context.Context, req *types.SearchRequest) (*types.ResponsePayload, error) {
	key := c.key(req)
	if payload, ok := c.get(ctx, key); ok {
		ret := *payload
		return &ret, nil
	}
	cacheMisses.Inc()
	payload, err := c.service.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, payload)
	return payload, nil
}

// Purge drops the local layer and starts a new generation in the shared
// store. Older shared entries are left to expire by their TTL.
func (c *Cache) Purge() {
	if c.opts.Store != nil {
		gen, err := c.opts.Store.Incr(context.Background(), c.generationKey()).Result()
		if err == nil {
			c.generation.Store(gen)
		} else {
			log.Printf("cache generation %s: %v", c.generationKey(), err)
			c.generation.Add(1)
		}
	} else {
		c.generation.Add(1)
	}
	c.local.Purge()
}

func (c *Cache) Len() int {
	return c.local.Len()
}
