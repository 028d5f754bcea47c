package testsupport

import (
	"context"
	"testing"

	"sentinel/internal/config"
	"sentinel/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// TrackEntity adds a tracked entity for tests using the provided store.
func TrackEntity(t testing.TB, st *store.Store, id int64, username string, mode store.NotifyMode) *store.TrackedEntity {
	t.Helper()

	entity, err := st.Track(context.Background(), id, username, username, mode)
	if err != nil {
		t.Fatalf("store.Track: %v", err)
	}
	return entity
}
