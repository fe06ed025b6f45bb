package models

// DefaultMaxStoredTurns caps how many turns a conversation keeps when the
// caller does not configure a limit.
const DefaultMaxStoredTurns = 30

// ConversationState is the per-user mutable conversation record. It is keyed
// by an opaque user identifier (for WhatsApp channels, the phone number).
type ConversationState struct {
	UserID           string           `json:"user_id"`
	History          []ChatTurn       `json:"history"`
	RegistrationStep RegistrationStep `json:"registration_step"`
	RegistrationData RegistrationData `json:"registration_data"`
	MaxStoredTurns   int              `json:"max_stored_turns"`
}

// NewConversationState creates an empty state positioned at the idle step.
func NewConversationState(userID string) *ConversationState {
	return &ConversationState{
		UserID:           userID,
		RegistrationStep: StepIdle,
		MaxStoredTurns:   DefaultMaxStoredTurns,
	}
}

// AddTurn appends a completed user/assistant exchange and prunes the history
// to the most recent MaxStoredTurns entries. len(History) <= MaxStoredTurns
// holds after every call.
func (s *ConversationState) AddTurn(userMsg, assistantMsg string) {
	s.History = append(s.History, ChatTurn{
		UserMessage:      Message{Role: RoleUser, Content: userMsg},
		AssistantMessage: Message{Role: RoleAssistant, Content: assistantMsg},
	})
	s.History = TrimHistory(s.History, s.MaxStoredTurns)
}

// RecentMessages flattens the last maxTurns turns into an interleaved
// user/assistant message list for the model call.
func (s *ConversationState) RecentMessages(maxTurns int) []Message {
	recent := TrimHistory(s.History, maxTurns)
	messages := make([]Message, 0, len(recent)*2)
	for _, turn := range recent {
		messages = append(messages, turn.UserMessage, turn.AssistantMessage)
	}
	return messages
}

// TrimHistory returns the last maxTurns entries of history. A non-positive
// limit leaves the history untouched.
func TrimHistory(history []ChatTurn, maxTurns int) []ChatTurn {
	if maxTurns <= 0 || len(history) <= maxTurns {
		return history
	}
	return history[len(history)-maxTurns:]
}
