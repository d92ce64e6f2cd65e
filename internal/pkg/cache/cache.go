package cache

import (
	"context"
	log "log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache 在 Store 之上提供层级、读穿透以及同键并发去重
type Cache struct {
	store Store
	tiers Tiers
	group singleflight.Group
	now   func() time.Time
}

func New(store Store, tiers Tiers) *Cache {
	return &Cache{
		store: store,
		tiers: tiers,
		now:   time.Now,
	}
}

func (c *Cache) Tiers() Tiers {
	return c.tiers
}

func (c *Cache) Store() Store {
	return c.store
}

// Invalidate 标记失效，重复失效是无操作
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	_, err := c.store.Invalidate(ctx, keys...)
	return err
}

func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	_, err := c.store.InvalidatePrefix(ctx, prefix)
	return err
}

// Apply 执行一组失效，失败只记录日志：后端写入已经成功，缓存最终会按层级过期
func (c *Cache) Apply(ctx context.Context, inv Invalidation) {
	if len(inv.Keys) > 0 {
		if err := c.Invalidate(ctx, inv.Keys...); err != nil {
			log.WarnContext(ctx, "cache invalidate failed", "keys", inv.Keys, "err", err)
		}
	}
	for _, prefix := range inv.Prefixes {
		if err := c.InvalidatePrefix(ctx, prefix); err != nil {
			log.WarnContext(ctx, "cache invalidate prefix failed", "prefix", prefix, "err", err)
		}
	}
}

// Invalidation 一次写操作影响到的缓存条目
type Invalidation struct {
	Keys     []string
	Prefixes []string
}

func (i Invalidation) Merge(other Invalidation) Invalidation {
	return Invalidation{
		Keys:     append(append([]string(nil), i.Keys...), other.Keys...),
		Prefixes: append(append([]string(nil), i.Prefixes...), other.Prefixes...),
	}
}

func (i Invalidation) Empty() bool {
	return len(i.Keys) == 0 && len(i.Prefixes) == 0
}
