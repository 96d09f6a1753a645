package middleware

import (
	"net/http"
	"strconv"

	"tickethub-core/internal/redis"
	"tickethub-core/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AppendRateLimitMiddleware throttles event appends per aggregate so one hot
// aggregate cannot starve the log. Apply to the append endpoint only.
func AppendRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var probe struct {
			AggregateID string `json:"aggregateId"`
		}
		if err := c.ShouldBindBodyWithJSON(&probe); err != nil || probe.AggregateID == "" {
			// Malformed bodies fall through to handler validation.
			c.Next()
			return
		}

		result, err := limiter.AllowAppend(c.Request.Context(), probe.AggregateID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("append rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// SagaRateLimitMiddleware throttles saga starts per client IP.
func SagaRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.AllowSagaStart(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("saga rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
