package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/clipfeed/clipfeed/internal/ctxkeys"
)

// ClientIP stores the caller's address in the request context. Proxy
// headers are honored only when trustProxy is set.
func ClientIP(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithClientIP(r.Context(), getClientIP(r, trustProxy))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// getClientIP extracts real client IP from request
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// Check X-Forwarded-For header (proxy/load balancer)
		xff := r.Header.Get("X-Forwarded-For")
		if xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			first = strings.TrimSpace(first)
			if first != "" {
				return first
			}
		}

		// Check X-Real-IP header
		xri := strings.TrimSpace(r.Header.Get("X-Real-IP"))
		if xri != "" {
			return xri
		}
	}

	// Fallback to RemoteAddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
