package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fleetline/rosterwatch/internal/shift"
)

// DefaultShiftTTL keeps the persisted shift map around well past its
// freshness window, so a restarting instance can warm-start and still
// stale-serve while its first fetch is in flight.
const DefaultShiftTTL = 15 * time.Minute

// Store is the shared shift-cache tier. All writes are best effort; the
// in-process cache is the primary source.
type Store struct {
	client *goredis.Client
}

func NewStore(client *goredis.Client) *Store {
	return &Store{client: client}
}

var _ shift.Store = (*Store)(nil)

// SaveShiftMap persists one generation of shift data with its fetch
// timestamp.
func (s *Store) SaveShiftMap(ctx context.Context, m shift.Map, fetchedAt time.Time) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal shift map: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, KeyShiftMap, data, DefaultShiftTTL)
	pipe.Set(ctx, KeyShiftFetchedAt, fetchedAt.Format(time.RFC3339Nano), DefaultShiftTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save shift map: %w", err)
	}
	return nil
}

// LoadShiftMap returns the persisted shift map and its fetch timestamp.
// A missing key is not an error: (nil, zero, nil).
func (s *Store) LoadShiftMap(ctx context.Context) (shift.Map, time.Time, error) {
	data, err := s.client.Get(ctx, KeyShiftMap).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to get shift map: %w", err)
	}

	var m shift.Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal shift map: %w", err)
	}

	raw, err := s.client.Get(ctx, KeyShiftFetchedAt).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, time.Time{}, fmt.Errorf("failed to get shift timestamp: %w", err)
	}
	fetchedAt, _ := time.Parse(time.RFC3339Nano, raw)

	return m, fetchedAt, nil
}
