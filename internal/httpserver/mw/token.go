package mw

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fleetline/rosterwatch/internal/logger"
)

// RequireToken enforces the shared-secret bearer token. An empty token
// disables the check (passthrough), matching the optional gating of the
// other access middlewares.
func RequireToken(token string, log logger.Logger) func(http.Handler) http.Handler {
	if token == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, hasScheme := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !hasScheme || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				log.Warn("rejected request with missing or invalid token",
					logger.String("path", r.URL.Path),
					logger.String("remote_ip", r.RemoteAddr))
				writeErrorJSON(w, http.StatusForbidden, "invalid_token", "missing or invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeErrorJSON emits the uniform error body used across the API.
func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":      code,
		"message":    message,
		"statusCode": status,
	})
}
