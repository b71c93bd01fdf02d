package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
)

// RateLimiter is a fixed window in-memory rate limiter keyed by client
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type client struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(window * 2)
	return rl
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictExpired()
		}
	}
}

func (rl *RateLimiter) evictExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	evicted := 0
	for key, c := range rl.clients {
		if now.Sub(c.lastReset) > rl.window*2 {
			delete(rl.clients, key)
			evicted++
		}
	}
	return evicted
}

// Allow reports whether a request from key fits the window and returns the
// requests left
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, exists := rl.clients[key]
	if !exists || now.Sub(c.lastReset) >= rl.window {
		rl.clients[key] = &client{tokens: rl.limit - 1, lastReset: now}
		return true, rl.limit - 1
	}
	if c.tokens > 0 {
		c.tokens--
		return true, c.tokens
	}
	return false, 0
}

// RateLimit returns a middleware limiting requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	limit := strconv.Itoa(limiter.limit)
	return func(c *gin.Context) {
		ok, remaining := limiter.Allow(keyFunc(c))
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
