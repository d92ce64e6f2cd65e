package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisNamespace = "murmur:cache:"
	// 代数计数放在缓存命名空间之外，前缀扫描不会碰到
	epochNamespace = "murmur:epoch:"
	prefixEpochKey = "murmur:epoch-prefix"
	// 只需覆盖一次拉取的时长；过期后代数归零，只会让写入偏向 stale
	epochTTL = time.Hour

	fieldValue     = "v"
	fieldFetchedAt = "f"
	fieldTier      = "t"
	fieldStaleTime = "s"
	fieldStale     = "x"

	scanBatch = 200
)

// markStaleScript 仅对仍然新鲜的条目置位，返回新标记的数量；HSET 不影响已有 TTL
var markStaleScript = redis.NewScript(`
local n = 0
for _, k in ipairs(KEYS) do
	if redis.call('HGET', k, 'x') == '0' then
		redis.call('HSET', k, 'x', '1')
		n = n + 1
	end
end
return n
`)

// invalidateScript KEYS 前半为条目键，后半为对应的代数键；ARGV[1] 为代数键 TTL（毫秒）
var invalidateScript = redis.NewScript(`
local half = #KEYS / 2
local n = 0
for i = 1, half do
	redis.call('INCR', KEYS[half + i])
	redis.call('PEXPIRE', KEYS[half + i], ARGV[1])
	if redis.call('HGET', KEYS[i], 'x') == '0' then
		redis.call('HSET', KEYS[i], 'x', '1')
		n = n + 1
	end
end
return n
`)

// epochLua 键代数加上所有匹配前缀的代数
const epochLua = `
local function epoch_of(epoch_key, prefix_key, raw)
	local e = tonumber(redis.call('GET', epoch_key) or '0')
	local ps = redis.call('HGETALL', prefix_key)
	for i = 1, #ps, 2 do
		local p = ps[i]
		if string.sub(raw, 1, #p) == p then
			e = e + tonumber(ps[i + 1])
		end
	end
	return e
end
`

var epochScript = redis.NewScript(epochLua + `
return epoch_of(KEYS[1], KEYS[2], ARGV[1])
`)

// setIfEpochScript KEYS: 条目, 代数, 前缀代数；ARGV: 原始键, 期望代数, 值, 拉取时间, 层级, staleTime, retention
var setIfEpochScript = redis.NewScript(epochLua + `
local stale = '0'
if epoch_of(KEYS[2], KEYS[3], ARGV[1]) ~= tonumber(ARGV[2]) then
	stale = '1'
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'v', ARGV[3], 'f', ARGV[4], 't', ARGV[5], 's', ARGV[6], 'x', stale)
redis.call('PEXPIRE', KEYS[1], ARGV[7])
if stale == '0' then
	return 1
end
return 0
`)

// RedisStore 多实例共享缓存，每个条目是一个 hash，TTL 等于层级的 Retention
type RedisStore struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) namespaceKey(key string) string {
	return redisNamespace + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, s.namespaceKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	fetchedAt, err := strconv.ParseInt(fields[fieldFetchedAt], 10, 64)
	if err != nil {
		return nil, false, err
	}
	staleTime, err := strconv.ParseInt(fields[fieldStaleTime], 10, 64)
	if err != nil {
		return nil, false, err
	}

	return &Entry{
		Key:       key,
		Value:     []byte(fields[fieldValue]),
		FetchedAt: time.UnixMilli(fetchedAt),
		Tier:      fields[fieldTier],
		StaleTime: time.Duration(staleTime) * time.Millisecond,
		Stale:     fields[fieldStale] == "1",
	}, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, tier Tier) error {
	k := s.namespaceKey(key)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k,
		fieldValue, value,
		fieldFetchedAt, s.now().UnixMilli(),
		fieldTier, tier.Name,
		fieldStaleTime, tier.StaleTime.Milliseconds(),
		fieldStale, "0",
	)
	pipe.PExpire(ctx, k, tier.Retention)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) epochKey(key string) string {
	return epochNamespace + key
}

func (s *RedisStore) Epoch(ctx context.Context, key string) (uint64, error) {
	n, err := epochScript.Run(ctx, s.rdb, []string{s.epochKey(key), prefixEpochKey}, key).Int64()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func (s *RedisStore) SetIfEpoch(ctx context.Context, key string, value []byte, tier Tier, epoch uint64) (bool, error) {
	fresh, err := setIfEpochScript.Run(ctx, s.rdb,
		[]string{s.namespaceKey(key), s.epochKey(key), prefixEpochKey},
		key,
		epoch,
		value,
		s.now().UnixMilli(),
		tier.Name,
		tier.StaleTime.Milliseconds(),
		tier.Retention.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return fresh == 1, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	scriptKeys := make([]string, 2*len(keys))
	for i, key := range keys {
		scriptKeys[i] = s.namespaceKey(key)
		scriptKeys[len(keys)+i] = s.epochKey(key)
	}
	return invalidateScript.Run(ctx, s.rdb, scriptKeys, epochTTL.Milliseconds()).Int()
}

func (s *RedisStore) markStale(ctx context.Context, nsKeys []string) (int, error) {
	n, err := markStaleScript.Run(ctx, s.rdb, nsKeys).Int()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RedisStore) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	// 先推进前缀代数，扫描期间完成的拉取也会写为 stale
	if err := s.rdb.HIncrBy(ctx, prefixEpochKey, prefix, 1).Err(); err != nil {
		return 0, err
	}
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.namespaceKey(prefix)+"*", scanBatch).Result()
		if err != nil {
			return total, err
		}
		if len(keys) > 0 {
			n, err := s.markStale(ctx, keys)
			if err != nil {
				return total, err
			}
			total += n
		}
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	for _, key := range keys {
		pipe.Del(ctx, s.namespaceKey(key))
		pipe.Incr(ctx, s.epochKey(key))
		pipe.PExpire(ctx, s.epochKey(key), epochTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}
