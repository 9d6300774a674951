package middleware

import (
	"net/http"
	"sync"
	"time"

	"tourbot/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// KeyedLimiter holds one token bucket per key (chat user id or client IP). Buckets idle
// long enough to have refilled completely are dropped, since a fresh one behaves the same.
type KeyedLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows perMinute events per key, with bursts up to burst.
func NewKeyedLimiter(perMinute, burst int) *KeyedLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	every := time.Minute / time.Duration(perMinute)
	return &KeyedLimiter{
		limit:    rate.Every(every),
		burst:    burst,
		idle:     max(time.Duration(burst)*every, time.Minute),
		now:      time.Now,
		limiters: make(map[string]*limiterEntry),
	}
}

// getLimiter returns the rate limiter for a given key, creating one if it doesn't exist.
func (s *KeyedLimiter) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}
	entry, exists := s.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (s *KeyedLimiter) sweep(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= s.idle {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

// Len reports how many keys are currently tracked.
func (s *KeyedLimiter) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// Allow reports whether one more event for key fits in its budget.
func (s *KeyedLimiter) Allow(key string) bool {
	if s.getLimiter(key).Allow() {
		return true
	}
	metrics.UpdatesThrottled.Inc()
	return false
}

// RateLimitMiddleware limits requests per operator id, or per client IP address for anonymous callers.
func RateLimitMiddleware(limiter *KeyedLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		if !limiter.Allow(key) {
			logger.Warn("Rate limit exceeded", zap.String("client", key))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
