package handlers

import (
	"net/http"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/logger"
)

// Reload triggers a manual roster refresh. A trigger arriving while a
// refresh is already in flight is a no-op.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Refresher.TriggerRefresh() {
			d.Logger.Info("manual refresh triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Refresh triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		d.Logger.Warn("refresh already in progress",
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte("⏳ Refresh already in progress, please wait\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
