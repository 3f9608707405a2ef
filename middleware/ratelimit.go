package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/services/ratelimit"
	"github.com/lendkraft/bfsi-assistant/utils"
)

// RateLimit rejects requests from clients that exceed the configured rate.
// Clients are keyed by remote IP; RealIP middleware must run first so the
// key survives proxies.
func RateLimit(limiter *ratelimit.Service, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			res := limiter.Check(key)
			if !res.Allowed {
				logger.Warn("rate limit exceeded",
					zap.String("client", key),
					zap.String("path", r.URL.Path))
				_ = utils.WriteTooManyRequests(w, "", map[string]interface{}{
					"reset_at": res.ResetAt.UTC(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey extracts the client IP, dropping the port when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
