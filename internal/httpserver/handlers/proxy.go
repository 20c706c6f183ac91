package handlers

import (
	"bytes"
	"net/http"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/logger"
)

// proxy returns a thin pass-through handler for one upstream endpoint:
// single fetch attempt, caching disabled at the HTTP layer, upstream
// failures wrapped into the uniform error body.
func proxy(d deps.Deps, url string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := d.ProxyFetcher.Get(r.Context(), url)
		if err != nil {
			d.Logger.Warn("proxy fetch failed",
				logger.String("url", url),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "upstream_failure", err.Error())
			return
		}

		w.Header().Set("Content-Type", sniffContentType(body))
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(body); err != nil {
			d.Logger.Debug("failed to write proxy response", logger.Error(err))
		}
	}
}

// Players passes the roster API through unchanged.
func Players(d deps.Deps) http.HandlerFunc { return proxy(d, d.PlayersURL) }

// Metrics passes the metrics API through unchanged.
func Metrics(d deps.Deps) http.HandlerFunc { return proxy(d, d.MetricsURL) }

// Shifts passes the shift source through unchanged; the payload may be
// raw CSV or a JSON record array.
func Shifts(d deps.Deps) http.HandlerFunc { return proxy(d, d.ShiftsURL) }

func sniffContentType(body []byte) string {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}
