package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "nippou:rl:"

// fixedWindow increments the counter and starts its window on the first hit.
// Returns {count, ttl_ms}.
var fixedWindow = goredis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {c, redis.call("PTTL", KEYS[1])}
`)

// FixedWindowLimiter counts requests per key in Redis.
// A nil client disables limiting (fail-open).
type FixedWindowLimiter struct {
	rdb *goredis.Client
	now func() time.Time
}

func NewFixedWindowLimiter(c *Client) *FixedWindowLimiter {
	l := &FixedWindowLimiter{now: time.Now}
	if c != nil {
		l.rdb = c.rdb
	}
	return l
}

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Count      int
	RetryAfter time.Duration // 0 if allowed
	ResetAt    time.Time
}

// AllowFixedWindow records one hit for key and reports whether it fits in limit.
func (l *FixedWindowLimiter) AllowFixedWindow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	open := Decision{Allowed: true, Limit: limit, Remaining: max(limit, 0)}
	if limit <= 0 || l.rdb == nil {
		return open, nil
	}
	if window < time.Millisecond {
		window = time.Minute
	}

	res, err := fixedWindow.Run(ctx, l.rdb, []string{keyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit redis eval: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("ratelimit redis eval: unexpected result %v", res)
	}

	count := int(res[0])
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl <= 0 {
		ttl = window
	}

	d := Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		Count:     count,
		ResetAt:   l.now().Add(ttl),
	}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}
