package view

import (
	"sync"

	"github.com/fleetline/rosterwatch/internal/roster"
	"github.com/fleetline/rosterwatch/internal/shift"
)

// Status describes what the snapshot currently holds.
type Status string

const (
	StatusEmpty  Status = "empty"  // nothing loaded yet
	StatusOK     Status = "ok"     // last refresh succeeded
	StatusStale  Status = "stale"  // serving last-known-good data after a failure
	StatusFailed Status = "failed" // first-ever refresh failed, no data to show
)

// Snapshot is the process-wide view of the dashboard: the merged inputs of
// the last refresh cycle plus staleness bookkeeping.
type Snapshot struct {
	Players     []roster.PlayerRecord `json:"players"`
	Meta        roster.Metrics        `json:"meta"`
	ShiftMap    shift.Map             `json:"shiftMap"`
	LastUpdated string                `json:"lastUpdated,omitempty"` // wall clock of the last successful refresh
	Status      Status                `json:"status"`
	Warning     string                `json:"warning,omitempty"` // user-visible staleness banner
}

// State holds the last-known-good Snapshot. Only the refresh cycle writes;
// everything else reads.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewState() *State {
	return &State{
		snap: Snapshot{
			Status:   StatusEmpty,
			ShiftMap: shift.Map{},
		},
	}
}

// Publish replaces the snapshot wholesale after a fully successful
// refresh. All-or-nothing: partial results never reach this path.
func (s *State) Publish(players []roster.PlayerRecord, meta roster.Metrics, shiftMap shift.Map, lastUpdated string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = Snapshot{
		Players:     players,
		Meta:        meta,
		ShiftMap:    shiftMap,
		LastUpdated: lastUpdated,
		Status:      StatusOK,
	}
}

// Degrade patches the snapshot after a failed refresh: prior players and
// shift map are retained, the player count is recomputed from the retained
// list, and a staleness warning is flagged.
func (s *State) Degrade(warning string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Meta.PlayerCount = len(s.snap.Players)
	s.snap.Status = StatusStale
	s.snap.Warning = warning
}

// Fail publishes an explicit no-data state. Used only when a refresh fails
// before any snapshot ever succeeded.
func (s *State) Fail(warning string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = Snapshot{
		Status:   StatusFailed,
		ShiftMap: shift.Map{},
		Warning:  warning,
	}
}

// Get returns a copy of the current snapshot.
func (s *State) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap
}

// HasData reports whether a prior successful refresh left players to fall
// back on.
func (s *State) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.snap.Players) > 0
}

// LastUpdated returns the wall-clock stamp of the last successful refresh,
// empty if none.
func (s *State) LastUpdated() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snap.LastUpdated
}
