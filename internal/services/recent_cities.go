package services

import (
	"context"
	"encoding/json"
	"sync"

	"weather-dashboard/internal/repository"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

const (
	// MaxRecentCities caps the recent-city ledger
	MaxRecentCities = 3

	recentCitiesKey = "recent_cities"
)

// RecentCities is the persisted most-recently-used list of saved cities:
// most recent first, no duplicates, at most MaxRecentCities entries.
type RecentCities struct {
	store   repository.KeyValueStore
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu     sync.Mutex
	cities []string
}

// NewRecentCities loads the ledger from store. Unreadable or malformed data
// yields an empty ledger.
func NewRecentCities(ctx context.Context, store repository.KeyValueStore, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *RecentCities {
	l := &RecentCities{
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
		cities:  []string{},
	}

	raw, ok, err := store.Get(ctx, recentCitiesKey)
	if err != nil {
		l.metrics.RecordPersistenceError("get")
		l.logger.WarnErr(ctx, "[RECENT_LOAD_ERROR] Recent cities unavailable, starting empty", logging.Fields{}, err)
		return l
	}
	if !ok {
		return l
	}

	var stored []string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		l.logger.WarnErr(ctx, "[RECENT_DECODE_ERROR] Ignoring malformed recent cities", logging.Fields{
			"raw": raw,
		}, err)
		return l
	}

	// Re-apply the invariants in case storage was edited by hand
	for i := len(stored) - 1; i >= 0; i-- {
		if stored[i] != "" {
			l.cities = PushRecent(l.cities, stored[i], MaxRecentCities)
		}
	}
	return l
}

// PushRecent moves name to the front of ledger, dropping any previous
// occurrence, and truncates to limit. ledger is not modified.
func PushRecent(ledger []string, name string, limit int) []string {
	next := make([]string, 0, limit)
	next = append(next, name)
	for _, c := range ledger {
		if len(next) == limit {
			break
		}
		if c != name {
			next = append(next, c)
		}
	}
	return next
}

// RecordCity records a newly saved city and returns the resulting ledger
func (l *RecentCities) RecordCity(ctx context.Context, name string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cities = PushRecent(l.cities, name, MaxRecentCities)
	l.persist(ctx)
	return l.snapshot()
}

// Clear empties the ledger
func (l *RecentCities) Clear(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cities = []string{}
	l.persist(ctx)
}

// Cities returns a copy of the ledger
func (l *RecentCities) Cities() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *RecentCities) snapshot() []string {
	out := make([]string, len(l.cities))
	copy(out, l.cities)
	return out
}

// persist must be called with mu held. Failures only cost durability.
func (l *RecentCities) persist(ctx context.Context) {
	data, err := json.Marshal(l.cities)
	if err != nil {
		return
	}
	if err := l.store.Set(ctx, recentCitiesKey, string(data)); err != nil {
		l.metrics.RecordPersistenceError("set")
		l.logger.WarnErr(ctx, "[RECENT_PERSIST_ERROR] Recent cities kept in memory only", logging.Fields{
			"cities": l.cities,
		}, err)
	}
}
