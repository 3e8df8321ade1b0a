package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/web/ratelimit"
	"github.com/amaironohi/shop/internal/web/response"
)

// KeyFunc extracts the rate limit key from a request. An empty key skips limiting.
type KeyFunc func(*http.Request) string

// RateLimit rejects requests over limiter's budget with 429. Limiter errors
// are logged and the request is let through.
func RateLimit(limiter ratelimit.Limiter, keyFunc KeyFunc, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				response.RenderTooManyRequests(w, int(math.Ceil(d.RetryAfter.Seconds())))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPKeyFunc keys by client IP. X-Forwarded-For and X-Real-IP are honoured
// since the API is deployed behind a proxy.
func IPKeyFunc(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return "ip:" + ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return "ip:" + xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return ""
	}
	return "ip:" + host
}

// PathIPKeyFunc keys by path and client IP so each endpoint has its own budget
func PathIPKeyFunc(r *http.Request) string {
	ip := IPKeyFunc(r)
	if ip == "" {
		return ""
	}
	return r.URL.Path + ":" + ip
}
