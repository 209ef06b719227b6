// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file adapts the fixed-window ratelimit.Limiter to Gin. Each Policy
// names a budget (requests per window); callers are keyed by an explicit
// identifier when one is supplied, else by user ID, else by client IP.
//
// Every response carries the standard headers:
//
//	X-RateLimit-Limit:     the policy maximum
//	X-RateLimit-Remaining: requests left in the current window
//	X-RateLimit-Reset:     unix seconds at which the window resets
//
// Notes:
//   - The limiter is process-local. For horizontally scaled deployments,
//     prefer a distributed limiter (e.g., Redis-backed) to enforce global limits.
//   - The limiter is intended for edge-level abuse control and cost protection;
//     it is not an authorization mechanism.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mealplan-backend/internal/observability"
	"github.com/tbourn/go-mealplan-backend/internal/ratelimit"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"

	// HeaderClientKey carries a pre-shared client key. Only allowlisted
	// values are used as rate-limit keys.
	HeaderClientKey = "X-Client-Key"
)

// Policy is a named request budget. The name namespaces identifiers so two
// policies applied to the same route keep separate windows.
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}

// IdentifierFunc returns an explicit rate-limit identifier for a request, or
// "" to fall back to the user ID and then the client IP.
type IdentifierFunc func(*gin.Context) string

// IdentifierFromClientKey keys requests by the value of header only when it
// is one of trusted. Unknown or missing keys fall back to user ID and IP, so
// rotating unlisted keys never opens a new window. With no trusted keys it
// returns nil.
func IdentifierFromClientKey(header string, trusted []string) IdentifierFunc {
	allowed := make(map[string]struct{}, len(trusted))
	for _, k := range trusted {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return func(c *gin.Context) string {
		v := c.GetHeader(header)
		if _, ok := allowed[v]; ok && v != "" {
			return "key:" + v
		}
		return ""
	}
}

// IdentifierOf resolves the identifier used for c.
func IdentifierOf(c *gin.Context, explicit IdentifierFunc) string {
	var ex string
	if explicit != nil {
		ex = explicit(c)
	}
	return ratelimit.ResolveIdentifier(ex, c.GetString(userIDKey), c.ClientIP())
}

// RateLimit returns a Gin middleware that enforces p with l.
//
// A denied request is aborted with:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <seconds>
//	{
//	  "request_id":  "<uuid>",
//	  "code":        "rate_limited",
//	  "message":     "rate limit exceeded",
//	  "retry_after": <seconds>,
//	  "limit":       <max>,
//	  "remaining":   0
//	}
func RateLimit(l *ratelimit.Limiter, p Policy, explicit IdentifierFunc) gin.HandlerFunc {
	prefix := p.Name
	if prefix != "" {
		prefix += "|"
	}
	return func(c *gin.Context) {
		d := l.Check(prefix+IdentifierOf(c, explicit), p.Max, p.Window)

		h := c.Writer.Header()
		h.Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
		h.Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
		h.Set(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))

		if d.Allowed {
			observability.RateLimitDecisions.WithLabelValues("allowed").Inc()
			c.Next()
			return
		}
		observability.RateLimitDecisions.WithLabelValues("denied").Inc()

		retry := d.RetryAfter(l.Now())
		h.Set(HeaderRetryAfter, strconv.Itoa(retry))
		LoggerFrom(c).Warn().
			Str("policy", p.Name).
			Int("limit", d.Limit).
			Int("retry_after", retry).
			Msg("rate limited")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id":  c.Writer.Header().Get(requestIDHeader),
			"code":        "rate_limited",
			"message":     "rate limit exceeded",
			"retry_after": retry,
			"limit":       d.Limit,
			"remaining":   0,
		})
	}
}
