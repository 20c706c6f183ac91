package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fleetline/rosterwatch/internal/fetch"
	"github.com/fleetline/rosterwatch/internal/httpserver/deps"
	"github.com/fleetline/rosterwatch/internal/httpserver/handlers"
	"github.com/fleetline/rosterwatch/internal/logger"
	"github.com/fleetline/rosterwatch/internal/roster"
	"github.com/fleetline/rosterwatch/internal/scheduler"
	"github.com/fleetline/rosterwatch/internal/shift"
	"github.com/fleetline/rosterwatch/internal/view"
)

// dashboardBody mirrors the /api/dashboard response shape.
type dashboardBody struct {
	Rows        []roster.ViewRow `json:"rows"`
	Meta        roster.Metrics   `json:"meta"`
	Status      view.Status      `json:"status"`
	Warning     string           `json:"warning"`
	LastUpdated string           `json:"lastUpdated"`
	Filter      string           `json:"filter"`
	Search      string           `json:"search"`
}

// stack wires the full pipeline (fetch -> shift cache -> roster client ->
// refresher -> view state -> handlers) against httptest upstreams.
type stack struct {
	upstream  *httptest.Server
	state     *view.State
	refresher *scheduler.Refresher
	deps      deps.Deps

	playersDown atomic.Bool
	metricsDown atomic.Bool
}

const shiftCSV = "License,IC Name,Shift-1,Shift-2,Full Shift,Staff\n" +
	"license:AAA111,Dana Cole,x,,,\n" +
	"LICENSE:bbb222,Mori Vane,,x,,\n" +
	"license:ccc333,,,,,yes\n"

// testContext stands in for t.Context on Go toolchains older than 1.24:
// a context canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func newStack(t *testing.T) *stack {
	t.Helper()

	s := &stack{}

	mux := http.NewServeMux()
	mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
		if s.playersDown.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		// playerCount deliberately disagrees with the roster length;
		// the merged view must report the real length.
		_, _ = w.Write([]byte(`{"statusCode":200,"data":[
			{"source":7,"playerName":"Dana","licenseIdentifier":"License:AAA111"},
			{"source":3,"playerName":"Rook","licenseIdentifier":"license:zzz999"},
			{"source":12,"playerName":"","licenseIdentifier":"license:ccc333"}
		]}`))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if s.metricsDown.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"statusCode":200,"data":{"maxPlayers":64,"uptime":"3h","playerCount":99}}`))
	})
	mux.HandleFunc("/shifts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(shiftCSV))
	})
	s.upstream = httptest.NewServer(mux)
	t.Cleanup(s.upstream.Close)

	log := logger.New("error", false)
	fetcher := fetch.New(2*time.Second, 0, "", log)

	mapper := shift.NewMapper(shift.DefaultLayout(), log)
	cache := shift.NewCache(fetcher, s.upstream.URL+"/shifts", time.Minute, mapper, nil, log)

	client := roster.NewClient(fetcher, s.upstream.URL+"/players", s.upstream.URL+"/metrics", log)
	s.state = view.NewState()
	s.refresher = scheduler.NewRefresher(client, cache, s.state, log, 30*time.Second, make(chan struct{}, 1))

	s.deps = deps.Deps{
		Logger:     log,
		PlayersURL: s.upstream.URL + "/players",
		MetricsURL: s.upstream.URL + "/metrics",
		ShiftsURL:  s.upstream.URL + "/shifts",
		State:      s.state,
		Refresher:  s.refresher,
	}
	return s
}

func (s *stack) dashboard(t *testing.T, query string) (int, dashboardBody) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?"+query, nil)
	rec := httptest.NewRecorder()
	handlers.Dashboard(s.deps)(rec, req)

	var body dashboardBody
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode dashboard response: %v", err)
		}
	}
	return rec.Code, body
}

// waitForStatus retriggers refresh cycles until the view reaches the
// wanted status or the deadline passes.
func (s *stack) waitForStatus(t *testing.T, want view.Status) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.state.Get().Status == want {
			return
		}
		s.refresher.TriggerRefresh()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for view status %q (have %q)", want, s.state.Get().Status)
}

func TestDashboardEndToEnd(t *testing.T) {
	s := newStack(t)

	// The first cycle runs synchronously inside Start.
	s.refresher.Start(testContext(t))
	defer s.refresher.Stop()

	code, body := s.dashboard(t, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Status != view.StatusOK {
		t.Fatalf("status = %q, want %q", body.Status, view.StatusOK)
	}
	if len(body.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(body.Rows))
	}

	// Ordered by server id, not upstream order.
	wantIDs := []int{3, 7, 12}
	for i, row := range body.Rows {
		if row.SourceID != wantIDs[i] {
			t.Errorf("row %d id = %d, want %d", i, row.SourceID, wantIDs[i])
		}
	}

	// License join is case-insensitive; unmatched players get placeholders.
	rows := map[int]roster.ViewRow{}
	for _, row := range body.Rows {
		rows[row.SourceID] = row
	}
	if got := rows[7].ICName; got != "Dana Cole" {
		t.Errorf("player 7 IC name = %q, want %q", got, "Dana Cole")
	}
	if got := rows[7].Role; got != "Shift-1" {
		t.Errorf("player 7 role = %q, want %q", got, "Shift-1")
	}
	if got := rows[3].ICName; got != shift.Placeholder {
		t.Errorf("unassigned player IC name = %q, want placeholder", got)
	}
	// Blank upstream name and blank sheet name both fall back to "-".
	if got := rows[12].Name; got != "-" {
		t.Errorf("player 12 name = %q, want %q", got, "-")
	}
	if got := rows[12].Role; got != "Staff" {
		t.Errorf("player 12 role = %q, want %q", got, "Staff")
	}

	// playerCount reflects the actual roster, not the metrics payload.
	if body.Meta.PlayerCount != 3 {
		t.Errorf("playerCount = %d, want 3", body.Meta.PlayerCount)
	}
	if body.Meta.MaxPlayers != "64" {
		t.Errorf("maxPlayers = %q, want %q", body.Meta.MaxPlayers, "64")
	}
	if body.LastUpdated == "" {
		t.Error("expected a lastUpdated stamp on a successful view")
	}
}

func TestDashboardFilterAndSearch(t *testing.T) {
	s := newStack(t)
	s.refresher.Start(testContext(t))
	defer s.refresher.Stop()

	tests := []struct {
		name       string
		query      string
		wantIDs    []int
		wantFilter string
	}{
		{"filter excludes unassigned", "filter=Shift-1", []int{7}, "Shift-1"},
		{"staff exact", "filter=Staff", []int{12}, "Staff"},
		{"search by name", "q=dana", []int{7}, "all"},
		{"search by license fragment", "q=zzz", []int{3}, "all"},
		{"search and filter are ANDed", "filter=Shift-1&q=zzz", nil, "Shift-1"},
		{"filter with no assigned match", "filter=Shift-2", nil, "Shift-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.dashboard(t, tt.query)
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200", code)
			}
			if len(body.Rows) != len(tt.wantIDs) {
				t.Fatalf("rows = %d, want %d", len(body.Rows), len(tt.wantIDs))
			}
			for i, row := range body.Rows {
				if row.SourceID != tt.wantIDs[i] {
					t.Errorf("row %d id = %d, want %d", i, row.SourceID, tt.wantIDs[i])
				}
			}
			if body.Filter != tt.wantFilter {
				t.Errorf("echoed filter = %q, want %q", body.Filter, tt.wantFilter)
			}
		})
	}
}

func TestDashboardDegradesAndRecovers(t *testing.T) {
	s := newStack(t)
	s.refresher.Start(testContext(t))
	defer s.refresher.Stop()

	s.waitForStatus(t, view.StatusOK)

	// Break the roster upstream; the view keeps the last good roster
	// and flags it stale.
	s.playersDown.Store(true)
	s.waitForStatus(t, view.StatusStale)

	code, body := s.dashboard(t, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(body.Rows) != 3 {
		t.Errorf("stale rows = %d, want last-known 3", len(body.Rows))
	}
	if body.Warning == "" {
		t.Error("expected a warning on the stale view")
	}

	s.playersDown.Store(false)
	s.waitForStatus(t, view.StatusOK)

	code, body = s.dashboard(t, "")
	if code != http.StatusOK || body.Status != view.StatusOK {
		t.Fatalf("after recovery: status = %d/%q, want 200/%q", code, body.Status, view.StatusOK)
	}
	if body.Warning != "" {
		t.Errorf("warning should clear on recovery, got %q", body.Warning)
	}
}

func TestMetricsOutageFallsBack(t *testing.T) {
	s := newStack(t)
	s.metricsDown.Store(true)

	s.refresher.Start(testContext(t))
	defer s.refresher.Stop()

	code, body := s.dashboard(t, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Status != view.StatusOK {
		t.Fatalf("status = %q, want %q (roster alone is enough)", body.Status, view.StatusOK)
	}
	if body.Meta.MaxPlayers != "?" || body.Meta.Uptime != "N/A" {
		t.Errorf("fallback meta = %+v", body.Meta)
	}
	if body.Meta.PlayerCount != 3 {
		t.Errorf("fallback playerCount = %d, want 3", body.Meta.PlayerCount)
	}
}

func TestReloadSingleFlight(t *testing.T) {
	s := newStack(t)

	// No loop running: the first trigger parks in the buffer, the
	// second is dropped.
	rec := httptest.NewRecorder()
	handlers.Reload(s.deps)(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first reload = %d, want 202", rec.Code)
	}

	rec = httptest.NewRecorder()
	handlers.Reload(s.deps)(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second reload = %d, want 429", rec.Code)
	}
}

func TestStateEndpointTracksPhase(t *testing.T) {
	s := newStack(t)
	s.refresher.Start(testContext(t))
	defer s.refresher.Stop()

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	handlers.State(s.deps)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Snapshot  view.Snapshot   `json:"snapshot"`
		Phase     scheduler.Phase `json:"phase"`
		Countdown int             `json:"countdown"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode state response: %v", err)
	}
	if body.Snapshot.Status != view.StatusOK {
		t.Errorf("snapshot status = %q, want %q", body.Snapshot.Status, view.StatusOK)
	}
	if body.Phase != scheduler.PhaseIdle {
		t.Errorf("phase = %q, want %q", body.Phase, scheduler.PhaseIdle)
	}
	if body.Countdown <= 0 || body.Countdown > 30 {
		t.Errorf("countdown = %d, want within (0,30]", body.Countdown)
	}
}
