// Package models defines the core data structures for the BioSummit event assistant.
//
// It includes chat message types, per-user conversation state, the registration
// flow types, and the persisted participant entity shared across modules.
package models

import (
	"errors"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message exchanged with the language model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatTurn pairs one user message with the assistant reply it produced.
type ChatTurn struct {
	UserMessage      Message `json:"user_message"`
	AssistantMessage Message `json:"assistant_message"`
}

// Error variables shared across modules.
var (
	ErrEmptyUserID  = errors.New("user_id cannot be empty")
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// Participant is a confirmed event registrant. Created exactly once at the
// CONFIRMING -> COMPLETED transition; never updated or deleted by the bot.
type Participant struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf"`
	Phone     string    `json:"phone,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Profile   string    `json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Response represents an inbound message received from a delivery channel
// (WhatsApp, Twilio webhook). From is the sender phone number in digits.
type Response struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}
