// Package state holds per-conversation dispatcher state in process memory.
// Durability across restarts is an explicit non-goal; losing the map on
// shutdown only costs users a pending menu.
package state

import (
	"sync"

	"github-statbot/internal/domain"
)

// Store is a concurrency-safe ConversationID -> ConversationState map. It has
// no lifecycle policy of its own; deciding when to set or clear an entry is
// entirely the dispatcher's job.
type Store struct {
	mu     sync.RWMutex
	states map[domain.ConversationID]domain.ConversationState
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{states: make(map[domain.ConversationID]domain.ConversationState)}
}

// Get returns the state for id, or the zero (Idle) state if none exists.
// It never fails.
func (s *Store) Get(id domain.ConversationID) domain.ConversationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[id]
}

// Set records the state for id, replacing any previous value.
func (s *Store) Set(id domain.ConversationID, st domain.ConversationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = st
}

// Clear removes the state for id. Clearing an absent entry is a no-op.
func (s *Store) Clear(id domain.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
}
