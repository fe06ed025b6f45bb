// Package engine orchestrates one conversation turn: session lookup, the
// registration state machine, prompt composition, the model call, and history
// bookkeeping.
//
// The sequence per message is fixed: state-machine update, prompt build,
// model call, history append, session save. The engine never phrases replies
// itself and never retries the model call; retries belong to the genai client.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BioSummitBR/eventbot/internal/genai"
	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/BioSummitBR/eventbot/internal/promptctx"
	"github.com/BioSummitBR/eventbot/internal/registration"
	"github.com/BioSummitBR/eventbot/internal/session"
)

// Engine wires the conversation components together. It is the sole entry
// point callers use to handle a message.
type Engine struct {
	sessions session.Manager
	flow     *registration.Manager
	prompts  *promptctx.Manager
	model    genai.ClientInterface
}

// New creates an engine over the given collaborators.
func New(sessions session.Manager, flow *registration.Manager, prompts *promptctx.Manager, model genai.ClientInterface) *Engine {
	return &Engine{sessions: sessions, flow: flow, prompts: prompts, model: model}
}

// HandleMessage processes one user message and returns the assistant reply
// with turn metadata. Persistence failures during a registration commit and
// model call failures are returned as errors; the caller decides how to
// surface them (the API layer answers with a generic retry message).
func (e *Engine) HandleMessage(ctx context.Context, userID, messageText string, contextTypes []models.ContextType) (models.ChatResult, error) {
	if strings.TrimSpace(userID) == "" {
		return models.ChatResult{}, models.ErrEmptyUserID
	}
	if strings.TrimSpace(messageText) == "" {
		return models.ChatResult{}, models.ErrEmptyMessage
	}

	state, err := e.sessions.GetOrCreate(userID)
	if err != nil {
		return models.ChatResult{}, fmt.Errorf("failed to load session: %w", err)
	}

	hint, err := e.flow.HandleMessage(state, messageText)
	if err != nil {
		// The step was left unchanged by the state machine; the user can retry.
		return models.ChatResult{}, fmt.Errorf("registration flow failed: %w", err)
	}

	systemPrompt := e.prompts.BuildSystemPrompt(contextTypes, promptctx.Request{
		UserID:      userID,
		MessageText: messageText,
		State:       state,
		FlowHint:    &hint,
	})

	history := state.RecentMessages(state.MaxStoredTurns)
	reply, err := e.model.GenerateWithMessages(ctx, genai.BuildMessages(systemPrompt, history, messageText))
	if err != nil {
		return models.ChatResult{}, fmt.Errorf("failed to generate reply: %w", err)
	}

	state.AddTurn(messageText, reply)
	if err := e.sessions.Save(userID, state); err != nil {
		// The reply already exists; a failed save costs history, not the turn.
		slog.Error("Failed to save session", "error", err, "userID", userID)
	}

	slog.Debug("Message handled", "userID", userID, "step", state.RegistrationStep, "turns", len(state.History))
	return models.ChatResult{
		UserID: userID,
		Reply:  reply,
		Turns:  len(state.History),
	}, nil
}
