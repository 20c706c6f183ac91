package handlers

import (
	"net/http"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/scheduler"
	"github.com/fleetline/rosterwatch/internal/view"
)

type stateResponse struct {
	Snapshot  view.Snapshot   `json:"snapshot"`
	Phase     scheduler.Phase `json:"phase"`
	Countdown int             `json:"countdown"` // seconds until the next auto refresh
}

// State exposes the raw view snapshot plus refresh-loop bookkeeping for
// UI chrome (countdown display, staleness banner).
func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, stateResponse{
			Snapshot:  d.State.Get(),
			Phase:     d.Refresher.Phase(),
			Countdown: d.Refresher.Countdown(),
		})
	}
}
