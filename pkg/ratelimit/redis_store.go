package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Atomic fixed window counter.
// KEYS[1] = counter key
// ARGV[1] = window in milliseconds
// Returns: [current_count, ttl_remaining_ms]
const fixedWindowScript = `
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

var fixedWindow = goredis.NewScript(fixedWindowScript)

// RedisStore shares counters between instances through Redis
type RedisStore struct {
	client goredis.Scripter
	config Config
}

func NewRedisStore(client goredis.Scripter, cfg Config) *RedisStore {
	return &RedisStore{client: client, config: cfg}
}

// Admit increments key in Redis. The window starts on the first hit and ends
// when the key expires.
func (s *RedisStore) Admit(ctx context.Context, key string, now time.Time) (Decision, error) {
	res, err := fixedWindow.Run(ctx, s.client, []string{key}, s.config.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}
	if len(res) < 2 {
		return Decision{}, fmt.Errorf("unexpected redis result format: %v", res)
	}

	resetAt := now.Add(time.Duration(res[1]) * time.Millisecond)
	return decide(int(res[0]), s.config.Limit, resetAt), nil
}
