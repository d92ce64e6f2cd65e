package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	Entry
	expireAt time.Time
}

// MemoryStore 进程内缓存，过期条目在读取时惰性回收
type MemoryStore struct {
	mu           sync.RWMutex
	entries      map[string]*memoryEntry
	keyEpochs    map[string]uint64
	prefixEpochs map[string]uint64
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:      make(map[string]*memoryEntry),
		keyEpochs:    make(map[string]uint64),
		prefixEpochs: make(map[string]uint64),
		now:          time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	var out Entry
	if ok {
		out = e.Entry
	}
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !s.now().Before(e.expireAt) {
		s.mu.Lock()
		// 加锁期间可能已被重新写入
		if cur, ok := s.entries[key]; ok && cur == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	out.Value = append([]byte(nil), out.Value...)
	return &out, true, nil
}

func (s *MemoryStore) newEntry(key string, value []byte, tier Tier) *memoryEntry {
	now := s.now()
	return &memoryEntry{
		Entry: Entry{
			Key:       key,
			Value:     append([]byte(nil), value...),
			FetchedAt: now,
			Tier:      tier.Name,
			StaleTime: tier.StaleTime,
		},
		expireAt: now.Add(tier.Retention),
	}
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, tier Tier) error {
	e := s.newEntry(key, value, tier)
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// epochLocked 键自身的代数加上所有匹配前缀的代数，各计数只增不减
func (s *MemoryStore) epochLocked(key string) uint64 {
	epoch := s.keyEpochs[key]
	for prefix, n := range s.prefixEpochs {
		if strings.HasPrefix(key, prefix) {
			epoch += n
		}
	}
	return epoch
}

func (s *MemoryStore) Epoch(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epochLocked(key), nil
}

func (s *MemoryStore) SetIfEpoch(_ context.Context, key string, value []byte, tier Tier, epoch uint64) (bool, error) {
	e := s.newEntry(key, value, tier)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epochLocked(key) != epoch {
		e.Stale = true
	}
	s.entries[key] = e
	return !e.Stale, nil
}

func (s *MemoryStore) Invalidate(_ context.Context, keys ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, key := range keys {
		s.keyEpochs[key]++
		if e, ok := s.entries[key]; ok && !e.Stale {
			e.Stale = true
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) InvalidatePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefixEpochs[prefix]++
	n := 0
	for key, e := range s.entries {
		if strings.HasPrefix(key, prefix) && !e.Stale {
			e.Stale = true
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.keyEpochs[key]++
		delete(s.entries, key)
	}
	return nil
}

// Len 当前条目数（包含尚未回收的过期条目）
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
