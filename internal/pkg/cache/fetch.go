package cache

import (
	"context"
	log "log/slog"

	"github.com/goccy/go-json"
)

type Fetcher[T any] func(ctx context.Context) (T, error)

// Fetch 读穿透：条目新鲜时直接返回，否则同一个键的并发读只触发一次 fetcher
//
// fetcher 的错误原样返回给调用方，缓存读写本身的错误只记录日志并回退到 fetcher。
func Fetch[T any](ctx context.Context, c *Cache, key string, tier Tier, fetcher Fetcher[T]) (T, error) {
	var zero T

	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "cache get failed", "key", key, "err", err)
	} else if ok && entry.Fresh(c.now()) {
		var v T
		if err := json.Unmarshal(entry.Value, &v); err == nil {
			return v, nil
		}
		log.WarnContext(ctx, "cache entry decode failed", "key", key, "err", err)
	}

	raw, err, _ := c.group.Do(key, func() (any, error) {
		// 代数必须在读后端之前取得，拉取期间发生的失效才能被识别
		epoch, epochErr := c.store.Epoch(ctx, key)
		if epochErr != nil {
			log.WarnContext(ctx, "cache epoch failed", "key", key, "err", epochErr)
		}
		v, err := fetcher(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if epochErr == nil {
			c.writeBack(ctx, key, b, tier, epoch)
		}
		return b, nil
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(raw.([]byte), &v); err != nil {
		return zero, err
	}
	return v, nil
}

// FetchMany 批量读穿透：新鲜的条目直接命中，其余 id 合并为一次 fetcher 调用
//
// fetcher 未返回的 id 不写缓存，也不出现在结果中。
func FetchMany[T any](
	ctx context.Context,
	c *Cache,
	ids []uint64,
	keyOf func(id uint64) string,
	tier Tier,
	fetcher func(ctx context.Context, missing []uint64) (map[uint64]T, error),
) (map[uint64]T, error) {
	out := make(map[uint64]T, len(ids))
	now := c.now()

	var missing []uint64
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		entry, ok, err := c.store.Get(ctx, keyOf(id))
		if err != nil {
			log.WarnContext(ctx, "cache get failed", "key", keyOf(id), "err", err)
		}
		if err == nil && ok && entry.Fresh(now) {
			var v T
			if json.Unmarshal(entry.Value, &v) == nil {
				out[id] = v
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	epochs := make(map[uint64]uint64, len(missing))
	for _, id := range missing {
		epoch, err := c.store.Epoch(ctx, keyOf(id))
		if err != nil {
			log.WarnContext(ctx, "cache epoch failed", "key", keyOf(id), "err", err)
			continue
		}
		epochs[id] = epoch
	}

	fetched, err := fetcher(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, v := range fetched {
		out[id] = v
		epoch, ok := epochs[id]
		if !ok {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			continue
		}
		c.writeBack(ctx, keyOf(id), b, tier, epoch)
	}
	return out, nil
}

// writeBack 拉取期间键被失效过时条目以 stale 写入，下一次读取重新拉取
func (c *Cache) writeBack(ctx context.Context, key string, value []byte, tier Tier, epoch uint64) {
	fresh, err := c.store.SetIfEpoch(ctx, key, value, tier, epoch)
	if err != nil {
		log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
		return
	}
	if !fresh {
		log.DebugContext(ctx, "cache key invalidated during fetch", "key", key)
	}
}
