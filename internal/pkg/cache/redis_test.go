package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisStore_NamespaceKey(t *testing.T) {
	s := &RedisStore{}
	assert.Equal(t, "murmur:cache:profile:1", s.namespaceKey(Profile(1)))
}

func TestRedisStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`), testTier))

	e, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(e.Value))
	assert.Equal(t, 30*time.Second, e.StaleTime)
	assert.False(t, e.Stale)
	assert.Equal(t, 5*time.Minute, mr.TTL("murmur:cache:k"))
}

func TestRedisStore_Miss(t *testing.T) {
	s, _ := newTestRedisStore(t)
	_, ok, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_RetentionExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)
	require.NoError(t, s.Set(ctx, "k", []byte("1"), testTier))

	mr.FastForward(5 * time.Minute)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_InvalidateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)
	require.NoError(t, s.Set(ctx, "k", []byte("1"), testTier))

	n, err := s.Invalidate(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Invalidate(ctx, "k", "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	e, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.Stale)
	assert.Equal(t, "1", string(e.Value))
	assert.False(t, mr.Exists("murmur:cache:missing"))
	assert.Equal(t, 5*time.Minute, mr.TTL("murmur:cache:k"))
}

func TestRedisStore_InvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)
	for _, k := range []string{"feed:home:1", "feed:home:2", "profile:1"} {
		require.NoError(t, s.Set(ctx, k, []byte("1"), testTier))
	}

	n, err := s.InvalidatePrefix(ctx, FeedPrefix)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	e, _, err := s.Get(ctx, "profile:1")
	require.NoError(t, err)
	assert.False(t, e.Stale)
}

func TestRedisStore_SetResetsStale(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)
	require.NoError(t, s.Set(ctx, "k", []byte("1"), testTier))
	_, err := s.Invalidate(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "k", []byte("2"), testTier))
	e, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, e.Stale)
	assert.Equal(t, "2", string(e.Value))
}

func TestRedisStore_SetIfEpoch(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		bump      func(s *RedisStore) error
		wantFresh bool
	}{
		{"unchanged", func(*RedisStore) error { return nil }, true},
		{"invalidate missing key", func(s *RedisStore) error {
			_, err := s.Invalidate(ctx, "profile:1")
			return err
		}, false},
		{"matching prefix", func(s *RedisStore) error {
			_, err := s.InvalidatePrefix(ctx, "profile:")
			return err
		}, false},
		{"other prefix", func(s *RedisStore) error {
			_, err := s.InvalidatePrefix(ctx, "post:")
			return err
		}, true},
		{"delete", func(s *RedisStore) error { return s.Delete(ctx, "profile:1") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestRedisStore(t)
			epoch, err := s.Epoch(ctx, "profile:1")
			require.NoError(t, err)
			require.NoError(t, tt.bump(s))

			fresh, err := s.SetIfEpoch(ctx, "profile:1", []byte("1"), testTier, epoch)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFresh, fresh)

			e, ok, err := s.Get(ctx, "profile:1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, !tt.wantFresh, e.Stale)
			assert.Equal(t, "1", string(e.Value))
		})
	}
}
