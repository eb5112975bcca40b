package conversation

import (
	"context"
	"sync"
)

// StateStore owns all conversation state. Callers never hold a mutable
// reference across calls; every read and write goes through the interface,
// so an implementation backed by external storage can be swapped in without
// touching the engine.
type StateStore interface {
	// Get returns the state for id, creating and storing the initial
	// snapshot when the conversation has not been seen before.
	Get(ctx context.Context, id string) (State, error)

	// Update replaces the stored snapshot for id and returns the result.
	Update(ctx context.Context, id string, state State) (State, error)

	// Reset unconditionally overwrites the snapshot for id with the
	// initial state.
	Reset(ctx context.Context, id string) (State, error)
}

// MemoryStore keeps conversation state in process memory for the lifetime
// of the server. There is no eviction; entries accumulate per chat id.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty in-memory state store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

var _ StateStore = (*MemoryStore)(nil)

// Get implements StateStore with get-or-create semantics.
func (s *MemoryStore) Get(ctx context.Context, id string) (State, error) {
	s.mu.RLock()
	state, ok := s.states[id]
	s.mu.RUnlock()
	if ok {
		return cloneState(state), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock; another goroutine may have created it.
	if state, ok := s.states[id]; ok {
		return cloneState(state), nil
	}
	state = NewState()
	s.states[id] = state
	return cloneState(state), nil
}

// Update implements StateStore.
func (s *MemoryStore) Update(ctx context.Context, id string, state State) (State, error) {
	snapshot := cloneState(state)
	s.mu.Lock()
	s.states[id] = snapshot
	s.mu.Unlock()
	return cloneState(snapshot), nil
}

// Reset implements StateStore.
func (s *MemoryStore) Reset(ctx context.Context, id string) (State, error) {
	state := NewState()
	s.mu.Lock()
	s.states[id] = state
	s.mu.Unlock()
	return cloneState(state), nil
}
