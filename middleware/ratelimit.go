package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/numberplay/numberplay-backend/ratelimit"
	"go.uber.org/zap"
)

// RateLimit enforces a per-user limit for one route group. scope keeps the
// buckets of different routes apart. Must run after RequireAuth. A limiter
// malfunction fails open: the request proceeds and the error is logged.
func RateLimit(limiter ratelimit.Limiter, scope string, limit int, window time.Duration, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			return
		}

		key := fmt.Sprintf("%s:%d", scope, userID)
		result, err := limiter.Check(c.Request.Context(), key, limit, window)
		if err != nil {
			if errors.Is(err, ratelimit.ErrLimitExceeded) {
				retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
				c.Header("Retry-After", strconv.Itoa(retryAfter))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Request was throttled"})
				return
			}
			log.Errorw("rate limiter check failed", "scope", scope, "user_id", userID, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Next()
	}
}
