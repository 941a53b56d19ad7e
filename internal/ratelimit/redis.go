package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces rate limit keys in a shared Redis.
const KeyPrefix = "contact:ratelimit:"

// admitScript prunes, counts and records in one round trip so concurrent
// instances cannot both take the last slot.
//
// KEYS[1] sorted set of hit timestamps (ms)
// ARGV    now, cutoff, limit, window, member
var admitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local cutoff = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', cutoff)
local count = redis.call('ZCARD', key)
if count >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, count, oldest[2]}
end
redis.call('ZADD', key, now, ARGV[5])
redis.call('PEXPIRE', key, window)
return {1, count + 1, '0'}
`)

// RedisStore keeps each caller's hits in a sorted set scored by time.
type RedisStore struct {
	client redis.UniversalClient
	policy Policy
	now    func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisClock replaces time.Now, for tests.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client redis.UniversalClient, policy Policy, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		policy: policy.normalized(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit runs the prune, count and record steps in one Lua script so
// concurrent callers on any instance see a consistent window.
func (s *RedisStore) Admit(ctx context.Context, key string) (Decision, error) {
	now := s.now()
	nowMs := now.UnixMilli()
	windowMs := s.policy.Window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	res, err := admitScript.Run(ctx, s.client, []string{KeyPrefix + key},
		nowMs, nowMs-windowMs, s.policy.Limit, windowMs, member).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis admit: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("redis admit: unexpected reply %v", res)
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)

	if allowed == 1 {
		return Decision{Allowed: true, Remaining: s.policy.Limit - int(count)}, nil
	}

	oldestStr, _ := res[2].(string)
	oldestMs, err := strconv.ParseFloat(oldestStr, 64)
	if err != nil {
		return Decision{}, fmt.Errorf("redis admit: bad oldest score %q: %w", oldestStr, err)
	}
	return denied(time.UnixMilli(int64(oldestMs)), now, s.policy.Window), nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewRedisClient builds a client from connection settings.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
