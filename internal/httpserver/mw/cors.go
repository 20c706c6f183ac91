package mw

import (
	"net/http"

	"github.com/fleetline/rosterwatch/internal/logger"
)

// CORS sets permissive CORS headers for the GET-only API. With an empty
// allow-list every origin is accepted ("*"); otherwise the request Origin
// must match the list exactly and requests from other origins are
// rejected.
func CORS(allowedOrigins []string, log logger.Logger) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case len(allowed) == 0:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin == "":
				// Non-browser client, nothing to allow or block.
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			default:
				log.Warn("request from origin not in allow-list",
					logger.String("origin", origin),
					logger.String("path", r.URL.Path))
				writeErrorJSON(w, http.StatusForbidden, "origin_not_allowed", "origin not allowed")
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
