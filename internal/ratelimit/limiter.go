// Package ratelimit throttles API traffic per acting staff member, with
// the client address as fallback for unauthenticated calls. Disabled
// installs run without redis and without throttling.
package ratelimit

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/karimoff96/Multilang/internal/config"
	"github.com/karimoff96/Multilang/internal/staffctx"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type APILimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
	log     *zap.Logger
}

func NewAPILimiter(cfg config.Config, log *zap.Logger) (*APILimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return &APILimiter{}, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.Rate <= 0 || limitCfg.Burst <= 0 {
		return nil, errors.New("rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	return &APILimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.Rate,
		burst:   limitCfg.Burst,
		log:     log.Named("ratelimit"),
	}, nil
}

// Middleware enforces the per-actor budget. Redis failures fail open;
// throttling protects capacity, it is not a security boundary.
func (l *APILimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || !l.enabled {
			c.Next()
			return
		}

		key := "api:ip:" + c.ClientIP()
		if staff, ok := staffctx.StaffFromContext(c.Request.Context()); ok {
			key = "api:staff:" + staff.ID.String()
		}

		res, err := l.bucket.Allow(c.Request.Context(), key, l.rate, l.burst)
		if err != nil {
			l.log.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
			return
		}
		c.Next()
	}
}
