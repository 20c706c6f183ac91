package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fleetline/rosterwatch/internal/logger"
	"github.com/fleetline/rosterwatch/internal/roster"
	"github.com/fleetline/rosterwatch/internal/shift"
	"github.com/fleetline/rosterwatch/internal/view"
)

// Phase is the refresh cycle state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhaseSuccess  Phase = "success"
	PhaseDegraded Phase = "degraded"
	PhaseFailed   Phase = "failed"
)

// DefaultInterval is the auto-refresh countdown.
const DefaultInterval = 30 * time.Second

const stampFormat = "2006-01-02 15:04:05"

// Refresher drives the periodic and manual roster refresh. One cycle at a
// time: the loop goroutine is the only writer of the view state, and
// triggers arriving while a cycle runs are dropped.
type Refresher struct {
	client   *roster.Client
	shifts   *shift.Cache
	state    *view.State
	logger   logger.Logger
	interval time.Duration

	manualTrigger chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once

	mu        sync.Mutex
	phase     Phase
	countdown int  // seconds until the next automatic refresh
	recovered bool // last cycle failed; next success refetches shifts

	now func() time.Time // test seam
}

func NewRefresher(
	client *roster.Client,
	shifts *shift.Cache,
	state *view.State,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Refresher{
		client:        client,
		shifts:        shifts,
		state:         state,
		logger:        log,
		interval:      interval,
		manualTrigger: manualTrigger,
		stopCh:        make(chan struct{}),
		phase:         PhaseIdle,
		countdown:     int(interval / time.Second),
		now:           time.Now,
	}
}

// Start runs the first refresh immediately, then the countdown loop.
// A failed first refresh is not fatal: the view carries an explicit
// failed state and the loop keeps retrying on the interval.
func (r *Refresher) Start(ctx context.Context) {
	r.runCycle(ctx)

	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if r.tick() {
					r.runCycle(ctx)
				}
			case <-r.manualTrigger:
				r.logger.Info("manual refresh triggered")
				r.runCycle(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the refresh loop. Safe to call more than once.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// TriggerRefresh requests an immediate refresh. Returns false when a
// refresh is already in flight or pending; the trigger is then a no-op.
func (r *Refresher) TriggerRefresh() bool {
	select {
	case r.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Phase returns the current cycle phase.
func (r *Refresher) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Countdown returns the seconds remaining until the next automatic
// refresh.
func (r *Refresher) Countdown() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countdown
}

// tick advances the countdown while idle. Returns true when it expired.
func (r *Refresher) tick() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseIdle {
		return false
	}
	r.countdown--
	return r.countdown <= 0
}

// runCycle is one full refresh: fan out players+metrics, join with the
// shift cache, publish. Always ends back in IDLE with a reset countdown.
func (r *Refresher) runCycle(ctx context.Context) {
	r.setPhase(PhaseLoading)
	start := r.now()

	// The shift cache ages independently; a cycle that follows a failed
	// one forces it to refetch instead of trusting a window that spanned
	// the outage.
	if r.takeRecovered() {
		r.shifts.Invalidate()
	}

	var (
		players []roster.PlayerRecord
		meta    roster.Metrics
		perr    error
		merr    error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		players, perr = r.client.Players(ctx)
	}()
	go func() {
		defer wg.Done()
		meta, merr = r.client.Metrics(ctx)
	}()
	wg.Wait()

	switch {
	case perr == nil:
		if merr != nil {
			r.logger.Warn("metrics fetch failed, using fallback values",
				logger.Error(merr))
			meta = roster.FallbackMetrics(len(players))
		}
		// Never trust the upstream-reported count.
		meta.PlayerCount = len(players)

		shiftMap := r.shifts.ShiftMap(ctx)
		stamp := r.now().Format(stampFormat)
		r.state.Publish(players, meta, shiftMap, stamp)
		r.setPhase(PhaseSuccess)

		r.logger.Info("roster refreshed",
			logger.Int("players", len(players)),
			logger.Int("shift_assignments", len(shiftMap)),
			logger.Duration("took", r.now().Sub(start)))

	case r.state.HasData():
		warning := fmt.Sprintf("Live data unavailable – showing roster from %s", r.state.LastUpdated())
		r.state.Degrade(warning)
		r.setPhase(PhaseDegraded)
		r.markFailed()

		r.logger.Warn("roster refresh failed, serving last-known-good data",
			logger.String("last_updated", r.state.LastUpdated()),
			logger.Error(perr))

	default:
		r.state.Fail("Failed to load roster")
		r.setPhase(PhaseFailed)
		r.markFailed()

		r.logger.Error("roster refresh failed with no prior data",
			logger.Error(perr))
	}

	r.finishCycle()
}

// finishCycle drops any trigger that arrived mid-cycle (single-flight:
// overlapping triggers are no-ops, not queued work), resets the countdown
// and returns to IDLE.
func (r *Refresher) finishCycle() {
	select {
	case <-r.manualTrigger:
	default:
	}

	r.mu.Lock()
	r.countdown = int(r.interval / time.Second)
	r.phase = PhaseIdle
	r.mu.Unlock()
}

func (r *Refresher) setPhase(p Phase) {
	r.mu.Lock()
	r.phase = p
	r.mu.Unlock()
}

func (r *Refresher) markFailed() {
	r.mu.Lock()
	r.recovered = true
	r.mu.Unlock()
}

func (r *Refresher) takeRecovered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	was := r.recovered
	r.recovered = false
	return was
}
