// Package session manages per-user conversation state.
//
// A Manager hands out ConversationState records keyed by user id and persists
// them between messages. The store-backed implementation serializes state as
// JSON so sessions survive process restarts; the in-memory implementation is
// for tests and ephemeral deployments.
package session

import (
	"sync"

	"github.com/BioSummitBR/eventbot/internal/models"
)

// Manager is the session persistence boundary consumed by the engine.
type Manager interface {
	// GetOrCreate returns the existing state for userID or a fresh one.
	GetOrCreate(userID string) (*models.ConversationState, error)
	// Save persists the state for userID.
	Save(userID string, state *models.ConversationState) error
	// Clear removes the session for userID.
	Clear(userID string) error
}

// InMemoryManager keeps sessions in a process-local map.
type InMemoryManager struct {
	mu             sync.Mutex
	sessions       map[string]*models.ConversationState
	maxStoredTurns int
}

// NewInMemoryManager creates an empty in-memory session manager.
func NewInMemoryManager(maxStoredTurns int) *InMemoryManager {
	if maxStoredTurns <= 0 {
		maxStoredTurns = models.DefaultMaxStoredTurns
	}
	return &InMemoryManager{
		sessions:       make(map[string]*models.ConversationState),
		maxStoredTurns: maxStoredTurns,
	}
}

// GetOrCreate returns the existing state for userID or creates a new one.
func (m *InMemoryManager) GetOrCreate(userID string) (*models.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[userID]; ok {
		return state, nil
	}
	state := models.NewConversationState(userID)
	state.MaxStoredTurns = m.maxStoredTurns
	m.sessions[userID] = state
	return state, nil
}

// Save stores the state. The in-memory map already holds the same pointer in
// the common path, but Save also accepts externally built states.
func (m *InMemoryManager) Save(userID string, state *models.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = state
	return nil
}

// Clear removes the session for userID.
func (m *InMemoryManager) Clear(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
