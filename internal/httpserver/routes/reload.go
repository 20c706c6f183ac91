package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/httpserver/handlers"
	"github.com/fleetline/rosterwatch/internal/httpserver/mw"
)

func init() { Register(registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Post("/api/reload", handlers.Reload(d))
}
