package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrChannelClosed = errors.New("channel already closed")

type Listener func(ChangeEvent)

// Channel 传输层上打开的一个通道
type Channel interface {
	Unsubscribe() error
}

// Transport 变更流传输
type Transport interface {
	Open(ctx context.Context, name, table string, listener Listener) (Channel, error)
}

// Hub 进程内传输：按表分发，由 Kafka 变更流消费者写入
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[uint64]*hubChannel
	seq      atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[uint64]*hubChannel)}
}

type hubChannel struct {
	hub      *Hub
	id       uint64
	name     string
	table    string
	listener Listener
	closed   atomic.Bool
}

func (h *Hub) Open(ctx context.Context, name, table string, listener Listener) (Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := &hubChannel{
		hub:      h,
		id:       h.seq.Add(1),
		name:     name,
		table:    table,
		listener: listener,
	}

	h.mu.Lock()
	byID, ok := h.channels[table]
	if !ok {
		byID = make(map[uint64]*hubChannel)
		h.channels[table] = byID
	}
	byID[ch.id] = ch
	h.mu.Unlock()

	return ch, nil
}

func (c *hubChannel) Unsubscribe() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrChannelClosed
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if byID, ok := c.hub.channels[c.table]; ok {
		delete(byID, c.id)
		if len(byID) == 0 {
			delete(c.hub.channels, c.table)
		}
	}
	return nil
}

// Publish 分发给该表上所有打开的通道，返回投递数量
func (h *Hub) Publish(_ context.Context, ev ChangeEvent) int {
	h.mu.RLock()
	targets := make([]*hubChannel, 0, len(h.channels[ev.Table]))
	for _, ch := range h.channels[ev.Table] {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	n := 0
	for _, ch := range targets {
		if ch.closed.Load() {
			continue
		}
		ch.listener(ev)
		n++
	}
	return n
}

// Channels 当前打开的通道数
func (h *Hub) Channels() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, byID := range h.channels {
		n += len(byID)
	}
	return n
}
