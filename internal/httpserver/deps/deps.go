package deps

import (
	"time"

	"github.com/fleetline/rosterwatch/internal/fetch"
	"github.com/fleetline/rosterwatch/internal/logger"
	"github.com/fleetline/rosterwatch/internal/scheduler"
	"github.com/fleetline/rosterwatch/internal/view"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	// Gating
	APIToken     string   // shared-secret bearer token required from clients (empty = open)
	AllowedCIDRS []string // IPs allowed to access ops endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy

	// Upstreams (proxy pass-through)
	PlayersURL   string
	MetricsURL   string
	ShiftsURL    string
	ProxyFetcher *fetch.Client // single-attempt fetcher for the thin proxy

	// Dashboard core
	State     *view.State
	Refresher *scheduler.Refresher
}
