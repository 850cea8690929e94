// Package memstore is an in-memory crisis update store. It keeps the same
// encoded form as the durable backends so size limits and round-trips behave
// identically, and it can snapshot and restore its state to simulate restarts.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rpggio/crisisdesk/internal/codec"
	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/repository"
)

// Store implements crisis.Repository and crisis.IDAllocator in memory.
type Store struct {
	mu      sync.RWMutex
	values  map[uint64][]byte
	keys    []uint64 // sorted ascending
	counter uint64
}

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	Counter uint64
	Values  map[uint64][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{values: map[uint64][]byte{}}
}

// Restore creates a store from a snapshot taken by Snapshot.
func Restore(snap Snapshot) *Store {
	s := New()
	s.counter = snap.Counter
	for id, data := range snap.Values {
		s.values[id] = slices.Clone(data)
		s.keys = append(s.keys, id)
	}
	slices.Sort(s.keys)
	return s
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[uint64][]byte, len(s.values))
	for id, data := range s.values {
		values[id] = slices.Clone(data)
	}
	return Snapshot{Counter: s.counter, Values: values}
}

// NextID returns the current counter value and advances it.
func (s *Store) NextID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.counter
	s.counter++
	return id, nil
}

// Get returns the update stored under id.
func (s *Store) Get(_ context.Context, id uint64) (*crisis.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.values[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return decode(data)
}

// Put inserts or overwrites the update at rec.ID.
func (s *Store) Put(_ context.Context, rec *crisis.Update) error {
	data, err := codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("failed to encode crisis update: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.values[rec.ID]; !exists {
		pos, _ := slices.BinarySearch(s.keys, rec.ID)
		s.keys = slices.Insert(s.keys, pos, rec.ID)
	}
	s.values[rec.ID] = data
	return nil
}

// Remove deletes the update at id and returns its prior value.
func (s *Store) Remove(_ context.Context, id uint64) (*crisis.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.values[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec, err := decode(data)
	if err != nil {
		return nil, err
	}

	delete(s.values, id)
	if pos, found := slices.BinarySearch(s.keys, id); found {
		s.keys = slices.Delete(s.keys, pos, pos+1)
	}
	return rec, nil
}

// Scan returns every update in ascending id order.
func (s *Store) Scan(_ context.Context) ([]crisis.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crisis.Update, 0, len(s.keys))
	for _, id := range s.keys {
		rec, err := decode(s.values[id])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// IsEmpty reports whether no updates are stored.
func (s *Store) IsEmpty(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys) == 0, nil
}

// Last returns the update with the highest id.
func (s *Store) Last(_ context.Context) (*crisis.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.keys) == 0 {
		return nil, repository.ErrNotFound
	}
	return decode(s.values[s.keys[len(s.keys)-1]])
}

func decode(data []byte) (*crisis.Update, error) {
	var rec crisis.Update
	if err := codec.Decode(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
	}
	return &rec, nil
}
