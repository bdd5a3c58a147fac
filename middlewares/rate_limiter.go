package middlewares

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key (client IP by default).
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters map[string]*visitor
	mu       sync.Mutex
	keyFunc  func(*gin.Context) string
	message  string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*visitor),
		keyFunc:  func(c *gin.Context) string { return c.ClientIP() },
		message:  "Too many requests",
	}
}

// NewStrictRateLimiter is for login and registration: 5 attempts per
// minute per IP.
func NewStrictRateLimiter() gin.HandlerFunc {
	rl := NewRateLimiter(5.0/60.0, 5)
	rl.message = "Too many attempts, please wait a moment"
	return rl.RateLimit()
}

// NewUserRateLimiter keys on the authenticated user instead of the IP.
func NewUserRateLimiter(every time.Duration, burst int) *RateLimiter {
	rl := NewRateLimiter(float64(time.Second)/float64(every), burst)
	rl.keyFunc = func(c *gin.Context) string {
		if id, ok := c.Get(ContextUserID); ok {
			if uid, ok := id.(uint); ok {
				return fmt.Sprintf("user:%d", uid)
			}
		}
		return c.ClientIP()
	}
	return rl
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = now

	// forget idle clients
	if len(rl.limiters) > 1024 {
		for k, other := range rl.limiters {
			if now.Sub(other.lastSeen) > 10*time.Minute {
				delete(rl.limiters, k)
			}
		}
	}
	return v.limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(rl.keyFunc(c)).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": rl.message,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
