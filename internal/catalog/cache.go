package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheVersionKey = "catalog:version"

// defaultLoadTimeout bounds a shared loader call once it is detached from its caller.
const defaultLoadTimeout = 5 * time.Second

// Cache keeps product lookups in Redis under a version prefix, so a single Bump
// invalidates every entry. A nil Cache, or one without a client, is a pass-through.
type Cache struct {
	client      *redis.Client
	ttl         time.Duration
	loadTimeout time.Duration
	group       singleflight.Group
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, loadTimeout: defaultLoadTimeout}
}

type lookupEntry struct {
	Found   bool     `json:"found"`
	Product *Product `json:"product,omitempty"`
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func (c *Cache) key(ver int64, code string) string {
	return fmt.Sprintf("catalog:v%d:product:%s", ver, code)
}

// Lookup returns the cached lookup for code or runs loader, caching hits and misses alike.
// Concurrent misses for one code share a single loader call.
func (c *Cache) Lookup(ctx context.Context, code string, loader func(context.Context) (Product, bool, error)) (Product, bool, error) {
	if !c.enabled() {
		return loader(ctx)
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return loader(ctx)
	}
	key := c.key(ver, code)

	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var entry lookupEntry
		if err := json.Unmarshal(payload, &entry); err == nil {
			if entry.Found && entry.Product != nil {
				return *entry.Product, true, nil
			}
			return Product{}, false, nil
		}
	}

	entry, err := c.shared(ctx, key, loader)
	if err != nil {
		return Product{}, false, err
	}
	if !entry.Found {
		return Product{}, false, nil
	}
	return *entry.Product, true, nil
}

// shared runs loader once per key for all concurrent callers. The loader gets a context
// detached from the caller that started it, so one caller giving up does not fail the
// others; each caller still returns as soon as its own ctx is done.
func (c *Cache) shared(ctx context.Context, key string, loader func(context.Context) (Product, bool, error)) (lookupEntry, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		p, found, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		entry := lookupEntry{Found: found}
		if found {
			entry.Product = &p
		}
		if raw, err := json.Marshal(entry); err == nil {
			_ = c.client.Set(loadCtx, key, raw, c.ttl).Err()
		}
		return entry, nil
	})
	select {
	case <-ctx.Done():
		return lookupEntry{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return lookupEntry{}, res.Err
		}
		return res.Val.(lookupEntry), nil
	}
}

// Store writes found entries for the given products under the current version.
func (c *Cache) Store(ctx context.Context, products []Product) error {
	if !c.enabled() || len(products) == 0 {
		return nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return err
	}
	pipe := c.client.Pipeline()
	for i := range products {
		p := products[i]
		raw, err := json.Marshal(lookupEntry{Found: true, Product: &p})
		if err != nil {
			return err
		}
		pipe.Set(ctx, c.key(ver, p.Code), raw, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Bump invalidates the cache by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
