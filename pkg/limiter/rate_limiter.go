package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles repetitive events (such as per-candidate failure
// logs) per event key.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	perSec   float64
	burst    int
	mu       sync.Mutex
}

// NewRateLimiter allows perSecond events per key with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   perSecond,
		burst:    burst,
	}
}

// GetLimiter returns or creates the limiter for key
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Limit(rl.perSec), rl.burst)
	rl.limiters[key] = limiter
	return limiter
}

// Allow reports whether an event for key may proceed now. A nil limiter
// allows everything.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil {
		return true
	}
	return rl.GetLimiter(key).Allow()
}

// AllowAt is Allow evaluated at a given time, for tests.
func (rl *RateLimiter) AllowAt(key string, t time.Time) bool {
	return rl.GetLimiter(key).AllowN(t, 1)
}

// Reset forgets the limiter for key
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.limiters, key)
}
