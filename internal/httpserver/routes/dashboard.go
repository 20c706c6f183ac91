package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/httpserver/handlers"
	"github.com/fleetline/rosterwatch/internal/httpserver/mw"
)

func init() { Register(registerDashboard) }

func registerDashboard(r chi.Router, d deps.Deps) {
	gated := r.With(mw.RequireToken(d.APIToken, d.Logger))
	gated.Get("/api/dashboard", handlers.Dashboard(d))
	gated.Get("/api/state", handlers.State(d))
}
