package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Each bucket is one redis hash holding its fill level in millitokens and the
// server time of the last refill. Lua numbers come back truncated to integers,
// hence millitokens.
const takeScript = `
local capacity = tonumber(ARGV[1]) * 1000
local perMilli = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now = clock[1] * 1000 + math.floor(clock[2] / 1000)

local level = tonumber(redis.call("HGET", KEYS[1], "level"))
local last = tonumber(redis.call("HGET", KEYS[1], "last"))
if level == nil or last == nil then
  level = capacity
elseif now > last then
  level = math.min(capacity, level + (now - last) * perMilli)
end

local granted = 0
if level >= 1000 then
  granted = 1
  level = level - 1000
end

redis.call("HSET", KEYS[1], "level", level, "last", now)
redis.call("PEXPIRE", KEYS[1], ttl)
return {granted, math.floor(level), now}
`

var (
	ErrBucketNotConfigured = errors.New("token bucket not configured")
	ErrEmptyBucketKey      = errors.New("token bucket key is empty")
	ErrInvalidBucket       = errors.New("token bucket rate and burst must be positive")
)

// bucketLimits is a refill rate in tokens per second and a capacity.
type bucketLimits struct {
	rate  float64
	burst int
}

func (b bucketLimits) valid() bool {
	return b.rate > 0 && b.burst > 0
}

// ttl keeps an idle bucket for twice its full refill time, at least a second.
func (b bucketLimits) ttl() time.Duration {
	if !b.valid() {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(2*float64(b.burst)/b.rate))
	return time.Duration(seconds) * time.Second
}

// Decision is the outcome of taking one token.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// TokenBucket takes tokens from redis buckets that refill continuously.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(takeScript)}
}

func (t *TokenBucket) Take(ctx context.Context, key string, limits bucketLimits) (Decision, error) {
	switch {
	case t == nil || t.client == nil:
		return Decision{}, ErrBucketNotConfigured
	case key == "":
		return Decision{}, ErrEmptyBucketKey
	case !limits.valid():
		return Decision{}, ErrInvalidBucket
	}

	reply, err := t.script.Run(ctx, t.client, []string{key},
		limits.burst,
		limits.rate,
		limits.ttl().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(reply) != 3 {
		return Decision{}, errors.New("token bucket: unexpected script reply")
	}

	level := reply[1]
	decision := Decision{
		Allowed:   reply[0] == 1,
		Limit:     limits.burst,
		Remaining: int(level / 1000),
		ResetAt:   time.UnixMilli(reply[2]),
	}
	if !decision.Allowed {
		// one millitoken arrives every 1/rate milliseconds
		missing := float64(1000 - level)
		decision.RetryAfter = time.Duration(missing / limits.rate * float64(time.Millisecond))
		decision.ResetAt = decision.ResetAt.Add(decision.RetryAfter)
	}
	return decision, nil
}
