package scheduler

import (
	"context"

	"github.com/fleetline/rosterwatch/internal/logger"
	"github.com/fleetline/rosterwatch/internal/shift"
	redisstore "github.com/fleetline/rosterwatch/internal/store/redis"
)

// ShiftSyncer warms the shift cache from redis on startup, so a restarted
// instance can stale-serve before its first fetch completes.
type ShiftSyncer struct {
	store  *redisstore.Store
	cache  *shift.Cache
	logger logger.Logger
}

func NewShiftSyncer(store *redisstore.Store, cache *shift.Cache, log logger.Logger) *ShiftSyncer {
	return &ShiftSyncer{
		store:  store,
		cache:  cache,
		logger: log,
	}
}

// Sync loads the persisted shift map into the in-process cache.
func (ss *ShiftSyncer) Sync(ctx context.Context) error {
	ss.logger.Info("syncing shift map from redis")

	m, fetchedAt, err := ss.store.LoadShiftMap(ctx)
	if err != nil {
		return err
	}

	if m == nil {
		ss.logger.Info("no shift map found in redis")
		return nil
	}

	ss.cache.Warm(m, fetchedAt)

	ss.logger.Info("synced shift map from redis",
		logger.Int("count", len(m)),
		logger.Time("fetched_at", fetchedAt))

	return nil
}
