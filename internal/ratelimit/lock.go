package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/copilot-insights/internal/config"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrLockNotConfigured = errors.New("lock client not configured")
	ErrEmptyLockKey      = errors.New("lock key is empty")
	ErrInvalidLockTTL    = errors.New("lock ttl must be positive")
)

// Locker is a single-holder redis lock released only by the token that took it.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

// TryLock returns the holder token and whether the lock was acquired.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrLockNotConfigured
	}
	if key == "" {
		return "", false, ErrEmptyLockKey
	}
	if ttl <= 0 {
		return "", false, ErrInvalidLockTTL
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

const jobLockKey = "copilot-insights:ingest:%s"

// JobLocker keeps two runs of the same ingestion job from overlapping.
// A nil JobLocker always grants the lock.
type JobLocker struct {
	locker *Locker
	ttl    time.Duration
}

func NewJobLocker(client *redis.Client, cfg config.Config) *JobLocker {
	if client == nil {
		return nil
	}
	ttl := time.Duration(cfg.RateLimit.LockTTLSecond) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &JobLocker{locker: NewLocker(client), ttl: ttl}
}

func (l *JobLocker) Enabled() bool {
	return l != nil && l.locker != nil
}

func (l *JobLocker) TryLock(ctx context.Context, job string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(jobLockKey, job), l.ttl)
}

func (l *JobLocker) Release(ctx context.Context, job, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(jobLockKey, job), token)
}
