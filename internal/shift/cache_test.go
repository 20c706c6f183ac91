package shift

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fleetline/rosterwatch/internal/fetch"
	"github.com/fleetline/rosterwatch/internal/logger"
)

const testCSV = "License,IC Name,Shift-1,Shift-2,Full Shift,Staff\n" +
	"abc123,John Doe,x,,,\n"

func newTestCache(t *testing.T, url string, ttl time.Duration) *Cache {
	t.Helper()
	log := logger.New("error", false)
	fetcher := fetch.New(time.Second, 0, "", log)
	return NewCache(fetcher, url, ttl, testMapper(DefaultLayout()), nil, log)
}

func TestShiftMapFetchesOnMiss(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if _, err := w.Write([]byte(testCSV)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	cache := newTestCache(t, srv.URL, time.Minute)

	sm := cache.ShiftMap(context.Background())
	if len(sm) != 1 {
		t.Fatalf("ShiftMap() = %d entries, want 1", len(sm))
	}
	if _, ok := sm["abc123"]; !ok {
		t.Error("ShiftMap() missing abc123")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("upstream hit %d times, want 1", hits)
	}
}

func TestShiftMapServesFreshEntryWithoutNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if _, err := w.Write([]byte(testCSV)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	cache := newTestCache(t, srv.URL, time.Minute)

	cache.ShiftMap(context.Background())
	cache.ShiftMap(context.Background())
	cache.ShiftMap(context.Background())

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("upstream hit %d times, want 1 (entry under TTL)", got)
	}
}

func TestShiftMapRefetchesAfterExpiry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if _, err := w.Write([]byte(testCSV)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	cache := newTestCache(t, srv.URL, time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }
	cache.ShiftMap(context.Background())

	cache.now = func() time.Time { return now.Add(2 * time.Minute) }
	cache.ShiftMap(context.Background())

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("upstream hit %d times, want 2 (entry expired)", got)
	}
}

func TestShiftMapStaleServeOnFailure(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if _, err := w.Write([]byte(testCSV)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	cache := newTestCache(t, srv.URL, time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }
	first := cache.ShiftMap(context.Background())
	if len(first) != 1 {
		t.Fatalf("initial ShiftMap() = %d entries, want 1", len(first))
	}

	// Expire the entry and break the upstream: stale data must be served.
	fail.Store(true)
	cache.now = func() time.Time { return now.Add(2 * time.Minute) }

	stale := cache.ShiftMap(context.Background())
	if len(stale) != 1 {
		t.Fatalf("stale ShiftMap() = %d entries, want previous entry", len(stale))
	}
	if _, ok := stale["abc123"]; !ok {
		t.Error("stale ShiftMap() lost abc123")
	}
}

func TestShiftMapEmptyWhenNothingCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := newTestCache(t, srv.URL, time.Minute)

	sm := cache.ShiftMap(context.Background())
	if sm == nil {
		t.Fatal("ShiftMap() must never return nil")
	}
	if len(sm) != 0 {
		t.Errorf("ShiftMap() = %d entries, want empty map", len(sm))
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if _, err := w.Write([]byte(testCSV)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	cache := newTestCache(t, srv.URL, time.Minute)

	cache.ShiftMap(context.Background())
	cache.Invalidate()
	cache.ShiftMap(context.Background())

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("upstream hit %d times, want 2 after Invalidate()", got)
	}
}

func TestWarmSeedsCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("warm cache should not hit the network")
	}))
	defer srv.Close()

	cache := newTestCache(t, srv.URL, time.Minute)
	cache.Warm(Map{"abc": {License: "abc", ICName: "John", Role: "Staff"}}, time.Now())

	sm := cache.ShiftMap(context.Background())
	if len(sm) != 1 {
		t.Errorf("warmed ShiftMap() = %d entries, want 1", len(sm))
	}
}
