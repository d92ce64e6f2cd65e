package realtime

import (
	"context"
	log "log/slog"
	"sync"
	"sync/atomic"
)

// Subscription 一个已挂载的订阅句柄
type Subscription struct {
	manager *Manager
	opts    Options
	filter  *RowFilter
	tuple   string

	alive     atomic.Bool
	closeOnce sync.Once
	stop      func() bool

	mu      sync.Mutex
	closed  bool
	gen     uint64
	channel Channel
}

func (s *Subscription) Name() string {
	return s.opts.ChannelName
}

// Active 已挂载且未卸载
func (s *Subscription) Active() bool {
	return s.alive.Load()
}

func (s *Subscription) connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSubscriptionClosed
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	ch, err := s.manager.transport.Open(ctx, s.opts.ChannelName, s.opts.Table, s.deliver)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed || gen != s.gen {
		// 连接期间已被卸载或被更新的重连取代
		s.mu.Unlock()
		s.teardown(ch)
		if s.closed {
			return ErrSubscriptionClosed
		}
		return nil
	}
	prev := s.channel
	s.channel = ch
	s.mu.Unlock()

	s.teardown(prev)
	return nil
}

// Reconnect 关闭当前通道并重新打开
func (s *Subscription) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		inert := !s.opts.Enabled
		s.mu.Unlock()
		if inert {
			return nil
		}
		return ErrSubscriptionClosed
	}
	prev := s.channel
	s.channel = nil
	s.mu.Unlock()

	s.teardown(prev)
	return s.connect(ctx)
}

// Close 卸载，可重复调用；通道只会被关闭一次，关闭错误只记录不返回
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.alive.Store(false)

		s.mu.Lock()
		s.closed = true
		ch := s.channel
		s.channel = nil
		stop := s.stop
		s.mu.Unlock()

		if s.manager != nil && s.opts.Enabled {
			s.manager.unregister(s)
		}
		if stop != nil {
			stop()
		}
		s.teardown(ch)
	})
}

func (s *Subscription) teardown(ch Channel) {
	if ch == nil {
		return
	}
	if err := ch.Unsubscribe(); err != nil {
		log.Warn("change feed teardown failed", "channel", s.opts.ChannelName, "err", err)
	}
}

// deliver 存活检查后再按事件类型与行过滤分发
func (s *Subscription) deliver(ev ChangeEvent) {
	if !s.alive.Load() {
		return
	}
	if s.opts.Event != EventAll && s.opts.Event != ev.Type {
		return
	}
	if !s.filter.Match(ev.Record()) {
		return
	}
	s.opts.OnEvent(ev)
}
