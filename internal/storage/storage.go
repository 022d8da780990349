// Package storage persists world snapshots. Drivers live in subpackages; the
// in-memory store and the autosave service are defined here.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("storage: no snapshot saved")

// Store saves and loads world snapshots. Load returns the most recent one.
type Store interface {
	Save(ctx context.Context, s *world.Snapshot) error
	Load(ctx context.Context) (*world.Snapshot, error)
	Close() error
}

// Encode serializes a snapshot for drivers that store bytes.
func Encode(s *world.Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses bytes written by Encode and checks the layout version.
func Decode(data []byte) (*world.Snapshot, error) {
	var s world.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version != world.SnapshotVersion {
		return nil, fmt.Errorf("decoding snapshot: version %d, want %d", s.Version, world.SnapshotVersion)
	}
	return &s, nil
}

// MemoryStore keeps the latest snapshot in process. Snapshots are stored
// encoded so later changes to a saved value never leak into the store.
type MemoryStore struct {
	mu     sync.Mutex
	latest []byte
	saves  int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the stored snapshot.
func (m *MemoryStore) Save(_ context.Context, s *world.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = data
	m.saves++
	return nil
}

// Load returns a copy of the stored snapshot or ErrNoSnapshot.
func (m *MemoryStore) Load(_ context.Context) (*world.Snapshot, error) {
	m.mu.Lock()
	data := m.latest
	m.mu.Unlock()
	if data == nil {
		return nil, ErrNoSnapshot
	}
	return Decode(data)
}

// Saves reports how many snapshots have been saved.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
