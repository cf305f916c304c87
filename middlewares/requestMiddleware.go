package middlewares

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const CorrelationHeader = "X-Correlation-Id"

// CorrelationMiddleware generates the correlation id once per request and echoes it back.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := strings.TrimSpace(c.GetHeader(CorrelationHeader))
		if cid == "" {
			cid = strings.TrimSpace(c.GetHeader("X-Request-Id"))
		}
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Header(CorrelationHeader, cid)
		c.Next()
	}
}

// ReadinessGate answers 503 until the database and redis are connected. /healthz always passes.
func ReadinessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service starting"})
			return
		}
		c.Next()
	}
}

// ErrorLogger logs only requests that collected errors.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"path":           c.FullPath(),
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}

// RateLimiter is a fixed-window limiter keyed by client IP.
type RateLimiter struct {
	client redis.UniversalClient
	limit  int64
	window time.Duration
}

func NewRateLimiter(client redis.UniversalClient, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func rateLimitKey(ip string) string {
	return "ratelimit:" + ip
}

// Middleware function to check rate limits. Redis failures let the request through.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	ctx := c.Request.Context()
	key := rateLimitKey(c.ClientIP())

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		config.LogWarn(config.GetLogger(), "Middlewares", "RateLimitMiddleware", "redis incr failed", key, err.Error())
		c.Next()
		return
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
			config.LogWarn(config.GetLogger(), "Middlewares", "RateLimitMiddleware", "redis expire failed", key, err.Error())
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}
	c.Next()
}
