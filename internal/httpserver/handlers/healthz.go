package handlers

import (
	"net/http"
	"time"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(start).Seconds(),
		})
	}
}
