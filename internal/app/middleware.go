package app

import (
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusnav/campus-navigator-go/internal/composer"
	"github.com/campusnav/campus-navigator-go/internal/ctxutil"
	"github.com/campusnav/campus-navigator-go/internal/logger"
	"github.com/campusnav/campus-navigator-go/internal/metrics"
	"github.com/campusnav/campus-navigator-go/internal/ratelimit"
)

const requestIDHeader = "X-Request-ID"

// RateLimitMessage is returned with 429 responses.
const RateLimitMessage = "You're sending questions too quickly. Please wait a moment and try again."

// requestIDMiddleware propagates an upstream request ID or mints one, and
// stores it with the client IP on the request context for logging.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx := ctxutil.WithRequestID(c.Request.Context(), id)
		ctx = ctxutil.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Next()
	}
}

// corsMiddleware lets the map frontend call the API from another origin.
// "*" in origins allows any origin. Preflight requests end here with 204.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := slices.Contains(origins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			switch {
			case allowAll:
				c.Header("Access-Control-Allow-Origin", "*")
			case slices.Contains(origins, origin):
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)
			c.Header("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware applies the per-client-IP budget.
func rateLimitMiddleware(limiter *ratelimit.KeyedLimiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		m.RecordHTTPError("rate_limit", c.FullPath())
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(limiter, c.ClientIP())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests,
			composer.Result{Type: composer.TypeError, Message: RateLimitMessage})
	}
}

// retryAfterSeconds estimates when key gets its next token.
func retryAfterSeconds(limiter *ratelimit.KeyedLimiter, key string) int {
	if limiter.GetDailyRemaining(key) == 0 {
		return int((24 * time.Hour).Seconds())
	}
	rate := limiter.RefillRate()
	if rate <= 0 {
		return 60
	}
	missing := 1 - limiter.GetAvailable(key)
	return max(1, int(math.Ceil(missing/rate)))
}

// loggingMiddleware logs each request at a level matching its status:
// 5xx Error, 4xx Warn (404 Debug), otherwise Debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(map[string]any{
			"http_method": c.Request.Method,
			"http_path":   c.Request.URL.Path,
			"http_status": status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		ctx := c.Request.Context()

		switch {
		case status >= 500:
			entry.ErrorContext(ctx, "HTTP request failed")
		case status == http.StatusNotFound:
			entry.DebugContext(ctx, "HTTP request not found")
		case status >= 400:
			entry.WarnContext(ctx, "HTTP request rejected")
		default:
			entry.DebugContext(ctx, "HTTP request completed")
		}
	}
}
