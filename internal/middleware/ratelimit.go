package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"event-ticketing/internal/logger"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	cl, exists := rl.limiters[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now
	rl.mu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// Sweep drops limiters idle for longer than ttl and returns how many it removed.
func (rl *RateLimiter) Sweep(ttl time.Duration) int {
	cutoff := rl.now().Add(-ttl)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for key, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps idle limiters until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep(limiterIdleTTL)
		}
	}
}

// RateLimitMiddleware limits each client IP. name keeps separate groups
// (general, auth) from sharing buckets when they share a limiter.
func RateLimitMiddleware(rl *RateLimiter, name string) gin.HandlerFunc {
	retryAfter := "1"
	if rl.rate > 0 && rl.rate < 1 {
		retryAfter = strconv.Itoa(int(1/float64(rl.rate)) + 1)
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rl.Allow(name + ":" + ip) {
			c.Next()
			return
		}

		logger.Warn("Rate limit exceeded",
			logger.RequestID(GetRequestID(c)),
			zap.String("limiter", name),
			zap.String("ip", ip),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)

		c.Header("Retry-After", retryAfter)
		utils.ErrorResponse(c, http.StatusTooManyRequests, "Too many requests, please try again later")
		c.Abort()
	}
}
