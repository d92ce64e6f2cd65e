package cache

import (
	"context"
	"time"
)

// Entry 一个缓存条目，Value 为 JSON 编码后的字节
type Entry struct {
	Key       string
	Value     []byte
	FetchedAt time.Time
	Tier      string
	StaleTime time.Duration
	Stale     bool
}

// Fresh 未被标记失效且未超过 StaleTime
func (e *Entry) Fresh(now time.Time) bool {
	return !e.Stale && now.Sub(e.FetchedAt) < e.StaleTime
}

// Store 键值缓存后端
//
// Invalidate 只把条目标记为 stale，由下一次读取触发重新拉取；
// 已经 stale 或不存在的键不会被改动，返回值为本次新标记的条目数。
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, value []byte, tier Tier) error
	// Epoch 键的失效代数，命中该键的 Invalidate、InvalidatePrefix、Delete 都会使其增长，
	// 键不存在时同样增长
	Epoch(ctx context.Context, key string) (uint64, error)
	// SetIfEpoch 代数与 epoch 不一致时条目以 stale 写入，返回是否写为新鲜
	SetIfEpoch(ctx context.Context, key string, value []byte, tier Tier, epoch uint64) (bool, error)
	Invalidate(ctx context.Context, keys ...string) (int, error)
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
	Delete(ctx context.Context, keys ...string) error
}
