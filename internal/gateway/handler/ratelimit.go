package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LimiterConfig tunes the per-client token buckets. Zero values fall back to
// the defaults applied by RateLimiter.
type LimiterConfig struct {
	// RPS is the steady-state requests per second per client.
	RPS int
	// Burst is the bucket depth. Defaults to twice RPS.
	Burst int
	// StaleAfter is how long an idle client keeps its bucket. Defaults to
	// ten minutes.
	StaleAfter time.Duration
	// SweepEvery is the interval between stale-bucket sweeps. Defaults to
	// five minutes.
	SweepEvery time.Duration
}

type clientBucket struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter returns a Gin middleware enforcing cfg per client IP. Rejected
// requests get a 429 with a Retry-After hint, a rate-limited metric tick,
// and a log line carrying the request id, so bursts from one submitter are
// visible without grepping access logs.
func RateLimiter(cfg LimiterConfig, logger *zap.Logger) gin.HandlerFunc {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RPS * 2
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = 5 * time.Minute
	}

	var mu sync.Mutex
	buckets := make(map[string]*clientBucket)

	go func() {
		for range time.Tick(cfg.SweepEvery) {
			mu.Lock()
			for ip, b := range buckets {
				if time.Since(b.lastSeen) > cfg.StaleAfter {
					delete(buckets, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		b, ok := buckets[ip]
		if !ok {
			b = &clientBucket{bucket: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)}
			buckets[ip] = b
		}
		b.lastSeen = time.Now()
		mu.Unlock()

		if !b.bucket.Allow() {
			RecordRateLimited()
			logger.Warn("rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", RequestIDFromCtx(c)),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
