package handlers

import (
	"net/http"
	"strings"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/roster"
	"github.com/fleetline/rosterwatch/internal/view"
)

type dashboardResponse struct {
	Rows        []roster.ViewRow `json:"rows"`
	Meta        roster.Metrics   `json:"meta"`
	Status      view.Status      `json:"status"`
	Warning     string           `json:"warning,omitempty"`
	LastUpdated string           `json:"lastUpdated,omitempty"`
	Filter      string           `json:"filter"`
	Search      string           `json:"search,omitempty"`
}

// Dashboard renders the merged player table from the current snapshot.
// `filter` selects a shift role set (default "all"), `q` is free-text
// search; both apply per request, the snapshot itself is untouched.
func Dashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := strings.TrimSpace(r.URL.Query().Get("filter"))
		if filter == "" {
			filter = roster.FilterAll
		}
		search := r.URL.Query().Get("q")

		snap := d.State.Get()
		rows := roster.Merge(snap.Players, snap.ShiftMap, filter, search)

		writeJSON(w, http.StatusOK, dashboardResponse{
			Rows:        rows,
			Meta:        snap.Meta,
			Status:      snap.Status,
			Warning:     snap.Warning,
			LastUpdated: snap.LastUpdated,
			Filter:      filter,
			Search:      search,
		})
	}
}
