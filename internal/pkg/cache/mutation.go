package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

// Mutation 写操作的统一包装：成功后按返回的 Invalidation 使缓存失效
//
// 不重试，不取消进行中的写入；IsPending / IsError 反映该包装上最近的状态。
type Mutation[I, O any] struct {
	cache    *Cache
	run      func(ctx context.Context, in I) (O, error)
	affected func(in I, out O) Invalidation

	pending atomic.Int64
	mu      sync.RWMutex
	lastErr error
}

func NewMutation[I, O any](
	c *Cache,
	run func(ctx context.Context, in I) (O, error),
	affected func(in I, out O) Invalidation,
) *Mutation[I, O] {
	return &Mutation[I, O]{
		cache:    c,
		run:      run,
		affected: affected,
	}
}

// MutateAsync 同步执行并返回结果
func (m *Mutation[I, O]) MutateAsync(ctx context.Context, in I) (O, error) {
	m.pending.Add(1)
	defer m.pending.Add(-1)

	out, err := m.run(ctx, in)

	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()

	if err != nil {
		return out, err
	}
	if m.affected != nil && m.cache != nil {
		m.cache.Apply(ctx, m.affected(in, out))
	}
	return out, nil
}

// Mutate 后台执行，结束后回调 onSettled
func (m *Mutation[I, O]) Mutate(ctx context.Context, in I, onSettled func(O, error)) {
	m.pending.Add(1)
	go func() {
		defer m.pending.Add(-1)
		out, err := m.MutateAsync(ctx, in)
		if onSettled != nil {
			onSettled(out, err)
		}
	}()
}

func (m *Mutation[I, O]) IsPending() bool {
	return m.pending.Load() > 0
}

func (m *Mutation[I, O]) IsError() bool {
	return m.Err() != nil
}

func (m *Mutation[I, O]) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}
