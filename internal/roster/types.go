package roster

// PlayerRecord is one connected player as reported by the roster API.
// Immutable per refresh cycle.
type PlayerRecord struct {
	SourceID int    `json:"source"`            // server slot
	Name     string `json:"playerName"`        //
	License  string `json:"licenseIdentifier"` // opaque join key, case-sensitive as received
}

// Metrics is the server-level data shown in the dashboard header.
// PlayerCount is always recomputed from the fetched player list before
// display; the upstream-reported count is not trusted.
type Metrics struct {
	MaxPlayers  string `json:"maxPlayers"`
	Uptime      string `json:"uptime"`
	PlayerCount int    `json:"playerCount"`
}

// FallbackMetrics is displayed when the metrics fetch fails while the
// roster is intact.
func FallbackMetrics(lastKnownCount int) Metrics {
	return Metrics{
		MaxPlayers:  "?",
		Uptime:      "N/A",
		PlayerCount: lastKnownCount,
	}
}
