package handlers

import (
	"net/http"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/view"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports readiness once the first refresh cycle has completed,
// whatever its outcome.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.State.Get().Status != view.StatusEmpty
		writeJSON(w, http.StatusOK, readyzResponse{Ready: ready})
	}
}
