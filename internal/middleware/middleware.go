// Package middleware holds the gin middleware shared by the HTTP API:
// request identification, caller identity, CORS, security headers and
// per-client rate limiting.
package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// UserIDKey is the gin context key carrying the authenticated user id.
const UserIDKey = "user_id"

// RequestID tags each request with a unique id for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Identity resolves the calling user from the X-User-ID header, with a
// user_id query parameter fallback for WebSocket clients that cannot
// set headers. Authentication itself happens upstream; this service
// only scopes records to the identity it is handed.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = c.Query("user_id")
		}
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "X-User-ID header is required",
			})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// CORS answers cross-origin requests for the configured origin. An
// empty origin allows any.
func CORS(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID, X-User-ID")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SecurityHeaders adds baseline security headers to all responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// clientLimiter tracks one token bucket per client IP.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func (cl *clientLimiter) get(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	limiter, ok := cl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(cl.rate, cl.burst)
		cl.limiters[key] = limiter
	}
	return limiter
}

// RateLimit rejects clients that exceed the configured request rate
// with 429. Disabled configuration yields a pass-through handler.
func RateLimit(cfg domain.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	cl := &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(cfg.Rate),
		burst:    cfg.Burst,
	}
	return func(c *gin.Context) {
		if !cl.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
