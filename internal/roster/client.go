package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/fleetline/rosterwatch/internal/fetch"
	"github.com/fleetline/rosterwatch/internal/logger"
)

// Client reads the roster and metrics APIs and validates their loosely
// typed payloads into PlayerRecord/Metrics at the boundary.
type Client struct {
	fetcher    *fetch.Client
	playersURL string
	metricsURL string
	logger     logger.Logger
}

func NewClient(fetcher *fetch.Client, playersURL, metricsURL string, log logger.Logger) *Client {
	return &Client{
		fetcher:    fetcher,
		playersURL: playersURL,
		metricsURL: metricsURL,
		logger:     log,
	}
}

// envelope is the upstream response wrapper: a statusCode field plus the
// actual payload. A non-200 statusCode inside a 200 response still counts
// as failure.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}

func (c *Client) unwrap(ctx context.Context, url string) (json.RawMessage, error) {
	var env envelope
	if err := c.fetcher.GetJSON(ctx, url, &env); err != nil {
		return nil, err
	}
	if env.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster: %s reported statusCode %d", url, env.StatusCode)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("roster: %s returned no data", url)
	}
	return env.Data, nil
}

// Players fetches the live player list, ordered ascending by server slot.
func (c *Client) Players(ctx context.Context) ([]PlayerRecord, error) {
	data, err := c.unwrap(ctx, c.playersURL)
	if err != nil {
		return nil, err
	}

	var players []PlayerRecord
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("roster: malformed player list: %w", err)
	}

	for i := range players {
		if strings.TrimSpace(players[i].Name) == "" {
			players[i].Name = "-"
		}
	}

	// Display order is established here, before the merge.
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].SourceID < players[j].SourceID
	})

	return players, nil
}

// metricsPayload tolerates maxPlayers arriving as a string or a number.
type metricsPayload struct {
	MaxPlayers  any    `json:"maxPlayers"`
	Uptime      string `json:"uptime"`
	PlayerCount int    `json:"playerCount"`
}

// Metrics fetches the server metrics. The reported playerCount is carried
// through as-is here; the refresh cycle overwrites it with the fetched
// list length.
func (c *Client) Metrics(ctx context.Context) (Metrics, error) {
	data, err := c.unwrap(ctx, c.metricsURL)
	if err != nil {
		return Metrics{}, err
	}

	var payload metricsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Metrics{}, fmt.Errorf("roster: malformed metrics: %w", err)
	}

	m := Metrics{
		MaxPlayers:  stringify(payload.MaxPlayers),
		Uptime:      payload.Uptime,
		PlayerCount: payload.PlayerCount,
	}
	if m.Uptime == "" {
		m.Uptime = "N/A"
	}
	return m, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "?"
	case string:
		if strings.TrimSpace(val) == "" {
			return "?"
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
