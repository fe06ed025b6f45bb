package session

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/BioSummitBR/eventbot/internal/store"
)

// StoreManager persists sessions through a store.Store backend as JSON rows.
type StoreManager struct {
	store          store.Store
	maxStoredTurns int
}

// NewStoreManager creates a session manager backed by st.
func NewStoreManager(st store.Store, maxStoredTurns int) *StoreManager {
	if maxStoredTurns <= 0 {
		maxStoredTurns = models.DefaultMaxStoredTurns
	}
	slog.Debug("Creating store-backed session manager", "maxStoredTurns", maxStoredTurns)
	return &StoreManager{store: st, maxStoredTurns: maxStoredTurns}
}

// GetOrCreate loads the persisted session for userID, or creates a fresh one.
// A backend read failure falls back to a temporary in-memory state so a storage
// hiccup does not break the conversation.
func (m *StoreManager) GetOrCreate(userID string) (*models.ConversationState, error) {
	stateJSON, err := m.store.GetSession(userID)
	if err != nil {
		slog.Error("Session load failed, using temporary state", "error", err, "userID", userID)
		return m.newState(userID), nil
	}
	if stateJSON == "" {
		state := m.newState(userID)
		if err := m.Save(userID, state); err != nil {
			slog.Warn("Failed to persist new session", "error", err, "userID", userID)
		}
		return state, nil
	}

	var state models.ConversationState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		slog.Error("Session deserialization failed, starting fresh", "error", err, "userID", userID)
		return m.newState(userID), nil
	}
	if state.RegistrationStep == "" {
		state.RegistrationStep = models.StepIdle
	}
	if state.MaxStoredTurns <= 0 {
		state.MaxStoredTurns = m.maxStoredTurns
	}
	slog.Debug("Session loaded", "userID", userID, "turns", len(state.History), "step", state.RegistrationStep)
	return &state, nil
}

// Save trims the history to the configured cap and persists the state.
func (m *StoreManager) Save(userID string, state *models.ConversationState) error {
	state.History = models.TrimHistory(state.History, state.MaxStoredTurns)
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := m.store.SaveSession(userID, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	slog.Debug("Session saved", "userID", userID, "turns", len(state.History))
	return nil
}

// Clear removes the persisted session for userID.
func (m *StoreManager) Clear(userID string) error {
	return m.store.DeleteSession(userID)
}

func (m *StoreManager) newState(userID string) *models.ConversationState {
	state := models.NewConversationState(userID)
	state.MaxStoredTurns = m.maxStoredTurns
	return state
}
