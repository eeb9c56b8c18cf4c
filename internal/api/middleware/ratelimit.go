package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/medconnect/agent/internal/api/response"
	"github.com/medconnect/agent/internal/repository/redis"
	"github.com/rs/zerolog/log"
)

// RateLimitMiddleware limits chat throughput per client address
type RateLimitMiddleware struct {
	rateLimiter *redis.RateLimiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(rateLimiter *redis.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter}
}

// Limit applies rate limiting keyed by remote address. RealIP runs
// earlier in the chain, so RemoteAddr holds the client address.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetTime, err := m.rateLimiter.Allow(r.Context(), clientKey(r.RemoteAddr))
		if err != nil {
			// A broken limiter must not take the service down with it
			log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", resetTime.Format(time.RFC3339))

		if !allowed {
			response.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientKey strips the ephemeral port from a direct connection's
// address so the limiter counts per client, not per TCP connection.
// RealIP rewrites RemoteAddr to a bare IP, which passes through.
func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
