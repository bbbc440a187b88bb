package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// incrWindow bumps the counter and starts the window on the first hit.
// A key left without a TTL (e.g. by a crash between INCR and PEXPIRE in an
// older deployment) gets one so it cannot block forever.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// Redis shares windows between instances.
type Redis struct {
	client redis.Scripter
	limit  int
	length time.Duration
	now    func() time.Time
}

func NewRedis(client redis.Scripter, limit int, length time.Duration) *Redis {
	return &Redis{client: client, limit: limit, length: length, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := incrWindow.Run(ctx, r.client, []string{keyPrefix + key}, r.length.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("rate limit incr: unexpected reply %v", vals)
	}
	count, ttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond

	return Result{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: max(0, r.limit-count),
		ResetAt:   r.now().Add(ttl),
	}, nil
}
