package realtime

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
)

var (
	ErrChannelConflict    = errors.New("channel name already used by a different subscription")
	ErrSubscriptionClosed = errors.New("subscription closed")
	ErrInvalidOptions     = errors.New("invalid subscription options")
)

// Options 一个逻辑订阅
type Options struct {
	ChannelName string
	Table       string
	Event       EventType // 为空等同于 *
	Filter      string    // 行过滤，为空表示不过滤
	OnEvent     func(ChangeEvent)
	Enabled     bool
}

// Manager 变更流订阅注册表，通道名在进程内唯一
type Manager struct {
	transport Transport

	mu   sync.Mutex
	subs map[string]*Subscription
}

func NewManager(transport Transport) *Manager {
	return &Manager{
		transport: transport,
		subs:      make(map[string]*Subscription),
	}
}

// Subscribe 挂载一个订阅
//
// 相同 (通道, 表, 过滤) 重复订阅直接返回已存在的订阅；同名通道用于不同订阅返回 ErrChannelConflict。
// ctx 结束时订阅被卸载。
func (m *Manager) Subscribe(ctx context.Context, opts Options) (*Subscription, error) {
	if opts.ChannelName == "" || opts.Table == "" || opts.OnEvent == nil {
		return nil, ErrInvalidOptions
	}
	if opts.Event == "" {
		opts.Event = EventAll
	}
	if !opts.Event.Valid() {
		return nil, fmt.Errorf("%w: event %q", ErrInvalidOptions, opts.Event)
	}
	filter, err := ParseRowFilter(opts.Filter)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		manager: m,
		opts:    opts,
		filter:  filter,
		tuple:   opts.Table + "|" + string(opts.Event) + "|" + filter.String(),
	}
	if !opts.Enabled {
		sub.closed = true
		return sub, nil
	}

	m.mu.Lock()
	if existing, ok := m.subs[opts.ChannelName]; ok {
		m.mu.Unlock()
		if existing.tuple != sub.tuple {
			return nil, fmt.Errorf("%w: %s", ErrChannelConflict, opts.ChannelName)
		}
		return existing, nil
	}
	m.subs[opts.ChannelName] = sub
	m.mu.Unlock()

	sub.alive.Store(true)
	if err := sub.connect(ctx); err != nil {
		sub.Close()
		return nil, err
	}
	stop := context.AfterFunc(ctx, sub.Close)
	sub.mu.Lock()
	sub.stop = stop
	sub.mu.Unlock()

	log.DebugContext(ctx, "change feed subscribed", "channel", opts.ChannelName, "table", opts.Table, "filter", opts.Filter)
	return sub, nil
}

func (m *Manager) unregister(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.subs[sub.opts.ChannelName]; ok && cur == sub {
		delete(m.subs, sub.opts.ChannelName)
	}
}

// Len 当前挂载的订阅数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Shutdown 卸载全部订阅
func (m *Manager) Shutdown() {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
