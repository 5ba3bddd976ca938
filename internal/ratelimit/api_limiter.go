package ratelimit

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/copilot-insights/internal/config"
)

const apiBucketKey = "copilot-insights:api:%s"

// APILimiter throttles read API calls per client. A nil limiter admits everything.
type APILimiter struct {
	bucket *TokenBucket
	limits bucketLimits
}

func NewAPILimiter(client *redis.Client, cfg config.Config) *APILimiter {
	if client == nil || cfg.RateLimit.APIRate <= 0 {
		return nil
	}
	burst := cfg.RateLimit.APIBurst
	if burst <= 0 {
		burst = int(cfg.RateLimit.APIRate)
		if burst < 1 {
			burst = 1
		}
	}
	return &APILimiter{
		bucket: NewTokenBucket(client),
		limits: bucketLimits{rate: cfg.RateLimit.APIRate, burst: burst},
	}
}

func (l *APILimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *APILimiter) Allow(ctx context.Context, clientKey string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}
	if clientKey == "" {
		clientKey = "anonymous"
	}
	return l.bucket.Take(ctx, fmt.Sprintf(apiBucketKey, clientKey), l.limits)
}
