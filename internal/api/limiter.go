package api

import (
	"sync"

	"rciconnect/internal/config"

	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per principal. Buckets are created
// lazily and never evicted; principals are bounded by the user table.
type rateLimiter struct {
	buckets sync.Map
	rps     rate.Limit
	burst   int
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &rateLimiter{rps: rate.Limit(cfg.RPS), burst: burst}
}

func (l *rateLimiter) allow(key string) bool {
	if l.rps <= 0 {
		return true
	}
	return l.bucket(key).Allow()
}

func (l *rateLimiter) bucket(key string) *rate.Limiter {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.buckets.LoadOrStore(key, rate.NewLimiter(l.rps, l.burst))
	return v.(*rate.Limiter)
}
