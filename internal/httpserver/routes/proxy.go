package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/httpserver/handlers"
	"github.com/fleetline/rosterwatch/internal/httpserver/mw"
)

func init() { Register(registerProxy) }

// The proxy endpoints face the public dashboard, so they carry the token
// gate and a per-IP rate limit on top of the global middlewares.
func registerProxy(r chi.Router, d deps.Deps) {
	limited := r.With(
		mw.RequireToken(d.APIToken, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             20,
			RefillPerIPPerMin: 60,
			MaxEntries:        4096,
			SweepInterval:     time.Minute,
			IdleTTL:           15 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}),
	)

	limited.Get("/api/players", handlers.Players(d))
	limited.Get("/api/metrics", handlers.Metrics(d))
	limited.Get("/api/shifts", handlers.Shifts(d))
}
