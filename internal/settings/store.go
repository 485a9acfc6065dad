package settings

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Repository persists settings as key/value rows.
type Repository interface {
	ListEngineSettings(ctx context.Context) (map[string]string, error)
	UpsertEngineSetting(ctx context.Context, key, value string) error
}

// Store holds the current settings snapshot. Reads are lock-free; every
// dispatch decision reads the latest snapshot. Writes persist all rows and
// then swap the snapshot, last write wins.
type Store struct {
	repo    Repository
	mu      sync.Mutex
	current atomic.Pointer[Settings]
}

func NewStore(repo Repository) *Store {
	st := &Store{repo: repo}
	defaults := Defaults()
	st.current.Store(&defaults)
	return st
}

// Load reads persisted rows and replaces the snapshot. Missing rows fall back
// to defaults.
func (st *Store) Load(ctx context.Context) error {
	if st == nil || st.repo == nil {
		return fmt.Errorf("settings store is not initialized")
	}

	rows, err := st.repo.ListEngineSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	loaded := fromRows(rows)
	st.current.Store(&loaded)
	return nil
}

// Current returns the latest settings snapshot by value.
func (st *Store) Current() Settings {
	if st == nil {
		return Defaults()
	}
	return *st.current.Load()
}

// Save persists the given settings and makes them the current snapshot.
func (st *Store) Save(ctx context.Context, s Settings) error {
	if st == nil || st.repo == nil {
		return fmt.Errorf("settings store is not initialized")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for key, value := range s.toRows() {
		if err := st.repo.UpsertEngineSetting(ctx, key, value); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}

	st.current.Store(&s)
	return nil
}
