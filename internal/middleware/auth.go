package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/audit"
)

// BearerAuth returns middleware that guards the admin API with a static
// bearer token. The comparison is constant time so the token cannot be
// probed byte by byte.
func BearerAuth(token string, auditLog *audit.Logger, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, reason := bearerToken(r)
			if reason == "" && subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				reason = "token mismatch"
			}

			if reason != "" {
				ip := getClientIP(r)
				requestID := GetRequestID(r.Context())
				logger.Warn("admin request rejected",
					zap.String("ip", ip),
					zap.String("path", r.URL.Path),
					zap.String("reason", reason),
				)
				if auditLog != nil {
					auditLog.AccessDenied(r.Context(), ip, requestID, r.URL.Path, reason)
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken pulls the token out of the Authorization header. The second
// return value is a rejection reason, empty when the header is well formed.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", "malformed authorization header"
	}
	return header[len(prefix):], ""
}
