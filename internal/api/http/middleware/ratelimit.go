package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/ratelimit"
)

const msgTooManyRequests = "too many requests, please try again later"

// RateLimit throttles requests per client IP.
type RateLimit struct {
	limiter ratelimit.Limiter
	scope   string
	logger  *logger.Logger
	now     func() time.Time
}

// NewRateLimit creates a RateLimit middleware. scope namespaces the keys so
// several limits can share one backend.
func NewRateLimit(limiter ratelimit.Limiter, scope string, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, scope: scope, logger: logger, now: time.Now}
}

// Handle answers 429 once the client has exhausted its budget. A failing
// limiter backend lets the request through.
func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.scope + ":" + clientIP(r)

		result, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			m.logger.Error("RateLimit middleware: limiter unavailable",
				"scope", m.scope,
				"error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
		w.Header().Set("RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if retry := int(result.RetryAfter(m.now()).Seconds()); retry > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
			}
			response.Fail(w, http.StatusTooManyRequests, msgTooManyRequests, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP has
// already rewritten from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
