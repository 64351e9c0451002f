package services

import (
	"context"
	"strconv"
	"sync"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/repository"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

const (
	unitKey          = "unit"
	cityKey          = "city"
	themeKey         = "theme"
	notificationsKey = "notifications"
)

// PreferenceStore owns the dashboard settings shared by every view. It is
// constructed once and injected where needed.
//
// Only validation errors reach callers. Storage failures are logged and the
// new value is kept in memory for the rest of the session.
type PreferenceStore struct {
	store   repository.KeyValueStore
	recent  *RecentCities
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu    sync.RWMutex
	prefs models.Preferences

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]chan models.Preferences
}

// NewPreferenceStore loads persisted preferences, falling back to
// models.DefaultPreferences for anything absent, invalid or unreadable.
func NewPreferenceStore(ctx context.Context, store repository.KeyValueStore, recent *RecentCities, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *PreferenceStore {
	s := &PreferenceStore{
		store:       store,
		recent:      recent,
		logger:      logger,
		metrics:     metricsCollector,
		prefs:       models.DefaultPreferences(),
		subscribers: make(map[int]chan models.Preferences),
	}
	s.load(ctx)
	return s
}

func (s *PreferenceStore) load(ctx context.Context) {
	if v, ok := s.read(ctx, unitKey); ok {
		if unit, err := models.ParseUnit(v); err == nil {
			s.prefs.Unit = unit
		}
	}
	if v, ok := s.read(ctx, cityKey); ok {
		if city, err := models.NormalizeCity(v); err == nil {
			s.prefs.City = city
		}
	}
	if v, ok := s.read(ctx, themeKey); ok {
		if theme, err := models.ParseTheme(v); err == nil {
			s.prefs.Theme = theme
		}
	}
	if v, ok := s.read(ctx, notificationsKey); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.prefs.Notifications = b
		}
	}

	s.logger.Info(ctx, "[PREFS_LOADED] Preferences loaded", logging.Fields{
		"unit": s.prefs.Unit,
		"city": s.prefs.City,
	})
}

func (s *PreferenceStore) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.metrics.RecordPersistenceError("get")
		s.logger.WarnErr(ctx, "[PREFS_LOAD_ERROR] Using default for preference", logging.Fields{
			"key": key,
		}, err)
		return "", false
	}
	return v, ok
}

func (s *PreferenceStore) write(ctx context.Context, key, value string) {
	if err := s.store.Set(ctx, key, value); err != nil {
		s.metrics.RecordPersistenceError("set")
		s.logger.WarnErr(ctx, "[PREFS_PERSIST_ERROR] Preference kept in memory only", logging.Fields{
			"key": key,
		}, err)
	}
}

// Preferences returns the current settings
func (s *PreferenceStore) Preferences() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Unit returns the current temperature unit
func (s *PreferenceStore) Unit() models.Unit {
	return s.Preferences().Unit
}

// RecentCities returns the recent-city ledger
func (s *PreferenceStore) RecentCities() []string {
	return s.recent.Cities()
}

// SetUnit validates and stores the temperature unit
func (s *PreferenceStore) SetUnit(ctx context.Context, unit string) (models.Preferences, error) {
	u, err := models.ParseUnit(unit)
	if err != nil {
		return s.Preferences(), err
	}

	s.mu.Lock()
	s.write(ctx, unitKey, string(u))
	s.prefs.Unit = u
	current := s.prefs
	s.mu.Unlock()

	s.metrics.RecordPreferenceUpdate(unitKey)
	s.logger.Info(ctx, "[PREFS_SET_UNIT] Unit updated", logging.Fields{"unit": u})
	s.publish(current)
	return current, nil
}

// ToggleUnit switches between Celsius and Fahrenheit
func (s *PreferenceStore) ToggleUnit(ctx context.Context) models.Preferences {
	s.mu.Lock()
	u := s.prefs.Unit.Toggle()
	s.write(ctx, unitKey, string(u))
	s.prefs.Unit = u
	current := s.prefs
	s.mu.Unlock()

	s.metrics.RecordPreferenceUpdate(unitKey)
	s.logger.Info(ctx, "[PREFS_TOGGLE_UNIT] Unit toggled", logging.Fields{"unit": u})
	s.publish(current)
	return current
}

// SetCity stores a non-empty city and records it in the recent-city ledger
func (s *PreferenceStore) SetCity(ctx context.Context, city string) (models.Preferences, error) {
	c, err := models.NormalizeCity(city)
	if err != nil {
		return s.Preferences(), err
	}

	// The ledger is updated under the same lock so its head always matches prefs.City
	s.mu.Lock()
	s.write(ctx, cityKey, c)
	s.prefs.City = c
	s.recent.RecordCity(ctx, c)
	current := s.prefs
	s.mu.Unlock()

	s.metrics.RecordPreferenceUpdate(cityKey)
	s.logger.Info(ctx, "[PREFS_SET_CITY] City updated", logging.Fields{"city": c})
	s.publish(current)
	return current, nil
}

// SetTheme stores the colour scheme
func (s *PreferenceStore) SetTheme(ctx context.Context, theme string) (models.Preferences, error) {
	t, err := models.ParseTheme(theme)
	if err != nil {
		return s.Preferences(), err
	}

	s.mu.Lock()
	s.write(ctx, themeKey, string(t))
	s.prefs.Theme = t
	current := s.prefs
	s.mu.Unlock()

	s.metrics.RecordPreferenceUpdate(themeKey)
	s.publish(current)
	return current, nil
}

// SetNotifications toggles notifications
func (s *PreferenceStore) SetNotifications(ctx context.Context, enabled bool) models.Preferences {
	s.mu.Lock()
	s.write(ctx, notificationsKey, strconv.FormatBool(enabled))
	s.prefs.Notifications = enabled
	current := s.prefs
	s.mu.Unlock()

	s.metrics.RecordPreferenceUpdate(notificationsKey)
	s.publish(current)
	return current
}

// Update applies a partial change on top of the current settings. Fields the
// update leaves nil keep their value. Nothing is written when the merged
// settings fail validation.
func (s *PreferenceStore) Update(ctx context.Context, update models.PreferencesUpdate) (models.Preferences, error) {
	s.mu.Lock()
	p, err := update.Apply(s.prefs).Validate()
	if err != nil {
		current := s.prefs
		s.mu.Unlock()
		return current, err
	}
	s.saveLocked(ctx, p)
	s.mu.Unlock()

	s.publish(p)
	return p, nil
}

func (s *PreferenceStore) saveLocked(ctx context.Context, p models.Preferences) {
	s.writeAll(ctx, p)
	s.prefs = p
	s.recent.RecordCity(ctx, p.City)

	s.metrics.RecordPreferenceUpdate("all")
	s.logger.Info(ctx, "[PREFS_SAVE] Settings saved", logging.Fields{
		"unit":          p.Unit,
		"city":          p.City,
		"theme":         p.Theme,
		"notifications": p.Notifications,
	})
}

// Reset restores the defaults and clears the recent-city ledger
func (s *PreferenceStore) Reset(ctx context.Context) models.Preferences {
	defaults := models.DefaultPreferences()

	s.mu.Lock()
	s.writeAll(ctx, defaults)
	s.prefs = defaults
	s.recent.Clear(ctx)
	s.mu.Unlock()

	s.metrics.RecordPreferenceUpdate("reset")
	s.logger.Info(ctx, "[PREFS_RESET] Settings reset to defaults", logging.Fields{})
	s.publish(defaults)
	return defaults
}

func (s *PreferenceStore) writeAll(ctx context.Context, p models.Preferences) {
	s.write(ctx, unitKey, string(p.Unit))
	s.write(ctx, cityKey, p.City)
	s.write(ctx, themeKey, string(p.Theme))
	s.write(ctx, notificationsKey, strconv.FormatBool(p.Notifications))
}

// Subscribe returns a channel that receives every preference change and a
// cancel function. Slow subscribers only ever see the latest value.
func (s *PreferenceStore) Subscribe() (<-chan models.Preferences, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan models.Preferences, 1)
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *PreferenceStore) publish(p models.Preferences) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers {
		// Replace an unread value instead of blocking the writer
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- p:
		default:
		}
	}
}
