package state

import (
	"context"
	"sync"
)

// DispatchFunc applies an action to the shared state
type DispatchFunc func(ctx context.Context, a Action) error

// StateStore owns the application state and runs every dispatch through
// reduce, diff and notify, one action at a time.
// Listeners may read State but must not call Dispatch synchronously.
type StateStore struct {
	dispatchMu sync.Mutex // serializes the whole dispatch pipeline
	stateMu    sync.RWMutex
	state      State
	reducer    *Reducer
	listeners  *ListenerRegistry
}

// NewStateStore makes a store starting from initial
func NewStateStore(initial State, reducer *Reducer, listeners *ListenerRegistry) *StateStore {
	if listeners == nil {
		listeners = NewListenerRegistry()
	}
	return &StateStore{state: initial, reducer: reducer, listeners: listeners}
}

// Dispatch reduces a into a new state and notifies listeners of the changed fields.
// The state is updated even if a listener fails, the listener error is returned.
func (s *StateStore) Dispatch(ctx context.Context, a Action) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.stateMu.RLock()
	before := s.state
	s.stateMu.RUnlock()

	after := s.reducer.Reduce(before, a)

	s.stateMu.Lock()
	s.state = after
	s.stateMu.Unlock()

	changes := ChangedFields(before, after)
	if len(changes) == 0 {
		return nil
	}
	return s.listeners.Notify(ctx, changes)
}

// State returns the current state
func (s *StateStore) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Listeners returns the registry notified on changes
func (s *StateStore) Listeners() *ListenerRegistry {
	return s.listeners
}
