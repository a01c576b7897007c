package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Ayash-Bera/budgetbites/backend/internal/models"
	"github.com/Ayash-Bera/budgetbites/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const rateWindow = time.Minute

// WindowCounter counts hits per key in fixed windows. database.Cache
// implements it on redis.
type WindowCounter interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter enforces a per-IP request budget per minute. Counts live in
// redis when a counter is given and in process memory otherwise, or when
// redis fails.
type RateLimiter struct {
	counter  WindowCounter
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     int
	apiName  string
	logger   *logrus.Logger
}

type Visitor struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter creates a limiter. counter may be nil.
func NewRateLimiter(rate int, counter WindowCounter, apiName string, logger *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		counter:  counter,
		visitors: make(map[string]*Visitor),
		rate:     rate,
		apiName:  apiName,
		logger:   logger,
	}
}

// RateLimit middleware function
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 {
			c.Next()
			return
		}

		if !rl.allow(c.Request.Context(), c.ClientIP()) {
			utils.LoggerFrom(c.Request.Context(), rl.logger).
				WithField("ip", c.ClientIP()).
				Warn("Rate limit exceeded")

			resp := models.NewFailureResponse(http.StatusTooManyRequests, []models.FailureDetail{{
				ReasonCode:   models.ReasonRateLimited,
				ReasonStatus: models.ReasonStatusFailure,
				ReasonDetails: []models.ValidationIssue{{
					Field:   "message",
					Message: "Rate limit exceeded; try again in a minute.",
				}},
			}})
			if rl.apiName != "" {
				resp.APIName = &rl.apiName
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, ip string) bool {
	if rl.counter != nil {
		count, err := rl.counter.IncrementWindow(ctx, ip, rateWindow)
		if err == nil {
			return count <= int64(rl.rate)
		}
		utils.LoggerFrom(ctx, rl.logger).WithError(err).Warn("Rate limit counter unavailable; using in-memory window")
	}
	return rl.allowLocal(ip, time.Now())
}

func (rl *RateLimiter) allowLocal(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.windowStart) >= rateWindow {
		rl.visitors[ip] = &Visitor{windowStart: now, count: 1}
		return true
	}

	if v.count >= rl.rate {
		return false
	}
	v.count++
	return true
}

// CleanupVisitors drops stale in-memory windows until ctx is cancelled.
func (rl *RateLimiter) CleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(rateWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.windowStart) > 5*rateWindow {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Security middleware
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}
