package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ilker/ledger-server/internal/logging"
)

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perInterval requests per interval for each key, with
// burst tokens available immediately.
func NewRateLimiter(perInterval int, interval time.Duration, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perInterval) / interval.Seconds()),
		burst:    burst,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.RLock()
	l, ok := rl.limiters[key]
	rl.mu.RUnlock()
	if ok {
		return l
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok = rl.limiters[key]; ok {
		return l
	}
	l = rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[key] = l
	return l
}

// Middleware answers 429 once a client IP runs out of tokens.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			logging.Warn().Str("ip", ip).Str("path", c.Request.URL.Path).Msg("rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"code": "TOO_MANY_REQUESTS", "message": "Too many requests. Please try again later."},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
