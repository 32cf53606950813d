package server

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const sweepInterval = time.Minute

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idleTTL are dropped by a background sweeper until Stop is called.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

func NewRateLimiter(rps float64, burst int, idleTTL time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		idleTTL: idleTTL,
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) sweepLoop() {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-t.C:
			rl.sweep(now)
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.buckets {
		if now.Sub(b.seen) > rl.idleTTL {
			delete(rl.buckets, ip)
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Allow takes one token from the bucket of ip, creating it on first use.
func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = b
	}
	b.seen = now
	rl.mu.Unlock()

	return b.AllowN(now, 1)
}

// retryAfter is the whole number of seconds until one token refills.
func (rl *RateLimiter) retryAfter() string {
	if rl.limit <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(rl.limit))))
}

func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", limiter.retryAfter())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{
			Error: "rate limit exceeded",
			Code:  "rate_limited",
		})
	}
}
