package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"weather-dashboard/pkg/database"
	"weather-dashboard/pkg/logging"
)

// KeyValueStore is the durable storage behind the preference store and the
// recent-city ledger
type KeyValueStore interface {
	// Get returns the value and true, or "" and false when the key is absent
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	HealthCheck(ctx context.Context) error
}

// sqlKeyValueStore implements KeyValueStore on the preferences table
type sqlKeyValueStore struct {
	db     *database.DB
	logger *logging.StructuredLogger
}

// NewSQLKeyValueStore creates a key-value store backed by postgres or sqlite
func NewSQLKeyValueStore(db *database.DB, logger *logging.StructuredLogger) KeyValueStore {
	return &sqlKeyValueStore{
		db:     db,
		logger: logger,
	}
}

// Get reads a single preference value
func (r *sqlKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `
		SELECT pref_value
		FROM preferences
		WHERE pref_key = ?
	`

	var value string
	err := r.db.GetContext(ctx, "get_preference", &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference %q: %w", key, err)
	}

	return value, true, nil
}

// Set upserts a preference value. The ON CONFLICT form is shared by postgres
// and sqlite 3.24+.
func (r *sqlKeyValueStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO preferences (pref_key, pref_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (pref_key) DO UPDATE SET
			pref_value = excluded.pref_value,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, "set_preference", query, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set preference %q: %w", key, err)
	}

	r.logger.Debug(ctx, "[REPO_SET_PREFERENCE] Preference stored", logging.Fields{
		"key": key,
	})

	return nil
}

// HealthCheck performs a repository health check
func (r *sqlKeyValueStore) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// MemoryKeyValueStore keeps values in process memory. It backs the "memory"
// storage driver and tests.
type MemoryKeyValueStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKeyValueStore creates an empty in-memory store
func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{values: make(map[string]string)}
}

// Get returns a stored value
func (m *MemoryKeyValueStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores a value
func (m *MemoryKeyValueStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// HealthCheck always succeeds
func (m *MemoryKeyValueStore) HealthCheck(context.Context) error {
	return nil
}

var (
	_ KeyValueStore = (*sqlKeyValueStore)(nil)
	_ KeyValueStore = (*MemoryKeyValueStore)(nil)
)
