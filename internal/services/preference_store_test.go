package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/repository"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// failingStore simulates unavailable durable storage
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage offline")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("storage offline") }
func (failingStore) HealthCheck(context.Context) error          { return errors.New("storage offline") }

func testCollector() *metrics.Collector {
	return metrics.NewCollector("services_test", prometheus.NewRegistry())
}

func newTestPreferenceStore(t *testing.T, kv repository.KeyValueStore) *PreferenceStore {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewNopLogger()
	collector := testCollector()
	recent := NewRecentCities(ctx, kv, logger, collector)
	return NewPreferenceStore(ctx, kv, recent, logger, collector)
}

func TestPreferenceStore_FirstLoadDefaults(t *testing.T) {
	store := newTestPreferenceStore(t, repository.NewMemoryKeyValueStore())

	got := store.Preferences()
	if got.Unit != models.Celsius {
		t.Errorf("Unit = %q, want C", got.Unit)
	}
	if got.City != "New York" {
		t.Errorf("City = %q, want New York", got.City)
	}
	if len(store.RecentCities()) != 0 {
		t.Errorf("RecentCities = %v, want empty", store.RecentCities())
	}
}

func TestPreferenceStore_LoadsPersistedValues(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKeyValueStore()
	kv.Set(ctx, "unit", "F")
	kv.Set(ctx, "city", "Lagos")
	kv.Set(ctx, "theme", "dark")
	kv.Set(ctx, "notifications", "false")
	kv.Set(ctx, "recent_cities", `["Lagos","London"]`)

	store := newTestPreferenceStore(t, kv)

	want := models.Preferences{Unit: models.Fahrenheit, City: "Lagos", Theme: models.ThemeDark, Notifications: false}
	if got := store.Preferences(); got != want {
		t.Errorf("Preferences() = %+v, want %+v", got, want)
	}
	if got := store.RecentCities(); !reflect.DeepEqual(got, []string{"Lagos", "London"}) {
		t.Errorf("RecentCities() = %v", got)
	}
}

func TestPreferenceStore_IgnoresInvalidPersistedValues(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKeyValueStore()
	kv.Set(ctx, "unit", "K")
	kv.Set(ctx, "city", "   ")
	kv.Set(ctx, "notifications", "maybe")
	kv.Set(ctx, "recent_cities", `not json`)

	store := newTestPreferenceStore(t, kv)

	if got := store.Preferences(); got != models.DefaultPreferences() {
		t.Errorf("Preferences() = %+v, want defaults", got)
	}
	if len(store.RecentCities()) != 0 {
		t.Errorf("RecentCities() = %v, want empty", store.RecentCities())
	}
}

func TestPreferenceStore_SetUnit(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKeyValueStore()
	store := newTestPreferenceStore(t, kv)

	got, err := store.SetUnit(ctx, "F")
	if err != nil {
		t.Fatalf("SetUnit() error = %v", err)
	}
	if got.Unit != models.Fahrenheit || store.Unit() != models.Fahrenheit {
		t.Errorf("unit not updated: %+v", got)
	}
	if v, _, _ := kv.Get(ctx, "unit"); v != "F" {
		t.Errorf("persisted unit = %q, want F", v)
	}

	_, err = store.SetUnit(ctx, "kelvin")
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.Unit() != models.Fahrenheit {
		t.Error("rejected unit must not change state")
	}
}

func TestPreferenceStore_SetCityRecordsLedger(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKeyValueStore()
	store := newTestPreferenceStore(t, kv)

	for _, c := range []string{"London", "Lagos", " London "} {
		if _, err := store.SetCity(ctx, c); err != nil {
			t.Fatalf("SetCity(%q) error = %v", c, err)
		}
	}

	if store.Preferences().City != "London" {
		t.Errorf("City = %q, want London", store.Preferences().City)
	}
	if got := store.RecentCities(); !reflect.DeepEqual(got, []string{"London", "Lagos"}) {
		t.Errorf("RecentCities() = %v, want [London Lagos]", got)
	}
	if v, _, _ := kv.Get(ctx, "recent_cities"); v != `["London","Lagos"]` {
		t.Errorf("persisted ledger = %s", v)
	}

	if _, err := store.SetCity(ctx, ""); err == nil {
		t.Error("expected error for empty city")
	}
}

func TestPreferenceStore_ToggleUnit(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKeyValueStore()
	store := newTestPreferenceStore(t, kv)

	tests := []models.Unit{models.Fahrenheit, models.Celsius, models.Fahrenheit}
	for i, want := range tests {
		got := store.ToggleUnit(ctx)
		if got.Unit != want || store.Unit() != want {
			t.Errorf("toggle %d: unit = %q, want %q", i, got.Unit, want)
		}
		if v, _, _ := kv.Get(ctx, "unit"); v != string(want) {
			t.Errorf("toggle %d: persisted unit = %q, want %q", i, v, want)
		}
	}
}

func TestPreferenceStore_ConcurrentCityWritesKeepLedgerHead(t *testing.T) {
	ctx := context.Background()
	store := newTestPreferenceStore(t, repository.NewMemoryKeyValueStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.SetCity(ctx, fmt.Sprintf("City %d", i))
		}(i)
		go func(i int) {
			defer wg.Done()
			city := fmt.Sprintf("Saved %d", i)
			store.Update(ctx, models.PreferencesUpdate{City: &city})
		}(i)
	}
	wg.Wait()

	city := store.Preferences().City
	recent := store.RecentCities()
	if len(recent) == 0 || recent[0] != city {
		t.Errorf("City = %q but ledger head = %v", city, recent)
	}
}

func strPtr(s string) *string { return &s }

func TestPreferenceStore_Update(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKeyValueStore()
	store := newTestPreferenceStore(t, kv)

	off := false
	got, err := store.Update(ctx, models.PreferencesUpdate{
		Unit:          strPtr("F"),
		City:          strPtr("Cairo"),
		Theme:         strPtr("dark"),
		Notifications: &off,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	want := models.Preferences{Unit: models.Fahrenheit, City: "Cairo", Theme: models.ThemeDark}
	if got != want {
		t.Errorf("Update() = %+v, want %+v", got, want)
	}
	if v, _, _ := kv.Get(ctx, "notifications"); v != "false" {
		t.Errorf("persisted notifications = %q", v)
	}

	// omitted fields keep their value
	got, err = store.Update(ctx, models.PreferencesUpdate{City: strPtr("Accra")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	want.City = "Accra"
	if got != want {
		t.Errorf("partial Update() = %+v, want %+v", got, want)
	}
	if r := store.RecentCities(); !reflect.DeepEqual(r, []string{"Accra", "Cairo"}) {
		t.Errorf("RecentCities() = %v", r)
	}

	// invalid payload leaves everything untouched
	tests := []models.PreferencesUpdate{
		{City: strPtr("  ")},
		{Unit: strPtr("K"), City: strPtr("Oslo")},
		{Theme: strPtr("neon")},
	}
	for _, u := range tests {
		if _, err := store.Update(ctx, u); err == nil {
			t.Errorf("Update(%+v) expected validation error", u)
		}
	}
	if store.Preferences() != want {
		t.Errorf("state changed after failed update: %+v", store.Preferences())
	}
}

func TestPreferenceStore_Reset(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKeyValueStore()
	store := newTestPreferenceStore(t, kv)

	store.SetUnit(ctx, "F")
	store.SetCity(ctx, "Paris")
	store.SetCity(ctx, "Berlin")
	store.SetTheme(ctx, "dark")
	store.SetNotifications(ctx, false)

	got := store.Reset(ctx)
	if got != models.DefaultPreferences() {
		t.Errorf("Reset() = %+v, want defaults", got)
	}
	if len(store.RecentCities()) != 0 {
		t.Errorf("ledger not cleared: %v", store.RecentCities())
	}

	// A fresh store over the same storage sees the reset values
	reloaded := newTestPreferenceStore(t, kv)
	if reloaded.Preferences() != models.DefaultPreferences() {
		t.Errorf("reloaded = %+v, want defaults", reloaded.Preferences())
	}
	if len(reloaded.RecentCities()) != 0 {
		t.Errorf("reloaded ledger = %v", reloaded.RecentCities())
	}
}

func TestPreferenceStore_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	store := newTestPreferenceStore(t, failingStore{})

	if store.Preferences() != models.DefaultPreferences() {
		t.Errorf("expected defaults when storage is down, got %+v", store.Preferences())
	}

	got, err := store.SetUnit(ctx, "F")
	if err != nil {
		t.Fatalf("persistence failure must not surface, got %v", err)
	}
	if got.Unit != models.Fahrenheit {
		t.Error("in-memory value should still change")
	}
	if _, err := store.SetCity(ctx, "Dubai"); err != nil {
		t.Fatalf("SetCity() error = %v", err)
	}
	if got := store.RecentCities(); !reflect.DeepEqual(got, []string{"Dubai"}) {
		t.Errorf("RecentCities() = %v", got)
	}
	store.Reset(ctx)
}

func TestPreferenceStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	store := newTestPreferenceStore(t, repository.NewMemoryKeyValueStore())

	updates, cancel := store.Subscribe()
	defer cancel()

	store.SetUnit(ctx, "F")
	store.SetCity(ctx, "Toronto")

	// Only the latest value is retained for a slow subscriber
	select {
	case p := <-updates:
		if p.City != "Toronto" || p.Unit != models.Fahrenheit {
			t.Errorf("got %+v, want latest preferences", p)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	cancel()
	if _, ok := <-updates; ok {
		t.Error("channel should be closed after cancel")
	}
	cancel()
	store.SetUnit(ctx, "C")
}
