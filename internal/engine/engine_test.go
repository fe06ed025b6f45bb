package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"

	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/BioSummitBR/eventbot/internal/promptctx"
	"github.com/BioSummitBR/eventbot/internal/registration"
	"github.com/BioSummitBR/eventbot/internal/session"
	"github.com/BioSummitBR/eventbot/internal/store"
)

type mockModel struct {
	reply    string
	err      error
	calls    int
	lastMsgs []openai.ChatCompletionMessageParamUnion
}

func (m *mockModel) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.calls++
	m.lastMsgs = messages
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// systemPromptOf extracts the leading system message content, if any.
func systemPromptOf(messages []openai.ChatCompletionMessageParamUnion) string {
	if len(messages) == 0 || messages[0].OfSystem == nil {
		return ""
	}
	return messages[0].OfSystem.Content.OfString.Value
}

type mockSender struct {
	calls int
}

func (m *mockSender) SendRegistrationConfirmation(toEmail, fullName string) error {
	m.calls++
	return nil
}

func newTestEngine(t *testing.T, model *mockModel) (*Engine, *store.InMemoryStore, *mockSender) {
	t.Helper()
	st := store.NewInMemoryStore()
	sender := &mockSender{}
	prompts := promptctx.NewManager(
		promptctx.NewBasePromptProvider(""),
		promptctx.NewEventInfoProvider(true),
		promptctx.NewRegistrationProvider(),
		promptctx.NewAmigoProvider(),
	)
	eng := New(
		session.NewInMemoryManager(10),
		registration.NewManager(st, sender),
		prompts,
		model,
	)
	return eng, st, sender
}

func TestHandleMessageValidation(t *testing.T) {
	eng, _, _ := newTestEngine(t, &mockModel{reply: "oi"})

	_, err := eng.HandleMessage(context.Background(), "", "olá", nil)
	require.ErrorIs(t, err, models.ErrEmptyUserID)

	_, err = eng.HandleMessage(context.Background(), "u1", "   ", nil)
	require.ErrorIs(t, err, models.ErrEmptyMessage)
}

func TestHandleMessageTracksTurns(t *testing.T) {
	model := &mockModel{reply: "Olá! Como posso ajudar?"}
	eng, _, _ := newTestEngine(t, model)

	result, err := eng.HandleMessage(context.Background(), "u1", "oi", nil)
	require.NoError(t, err)
	require.Equal(t, "u1", result.UserID)
	require.Equal(t, "Olá! Como posso ajudar?", result.Reply)
	require.Equal(t, 1, result.Turns)

	result, err = eng.HandleMessage(context.Background(), "u1", "qual o tema do evento?", nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.Turns)

	// system prompt + 2 history messages + current message
	require.Len(t, model.lastMsgs, 4)
	require.Contains(t, systemPromptOf(model.lastMsgs), "assistente oficial do BioSummit 2026")
	require.Contains(t, systemPromptOf(model.lastMsgs), "[Informações do evento BioSummit 2026]")
}

func TestHandleMessageRegistrationEndToEnd(t *testing.T) {
	model := &mockModel{reply: "certo!"}
	eng, st, sender := newTestEngine(t, model)
	ctx := context.Background()

	steps := []string{
		"quero me inscrever",
		"Maria da Silva",
		"maria@example.com",
		"529.982.247-25",
		"41999380969",
		"Londrina/PR",
		"produtora rural",
	}
	for _, msg := range steps {
		_, err := eng.HandleMessage(ctx, "5541999380969", msg, nil)
		require.NoError(t, err)
	}

	// While in the flow, the prompt must carry the registration context block.
	require.Contains(t, systemPromptOf(model.lastMsgs), "[Contexto do fluxo de inscrição]")

	_, err := eng.HandleMessage(ctx, "5541999380969", "sim", nil)
	require.NoError(t, err)

	participants, err := st.ListParticipants()
	require.NoError(t, err)
	require.Len(t, participants, 1)
	require.Equal(t, "52998224725", participants[0].CPF)
	require.Equal(t, 1, sender.calls)
}

func TestHandleMessageModelFailure(t *testing.T) {
	model := &mockModel{err: errors.New("provider down")}
	eng, _, _ := newTestEngine(t, model)

	_, err := eng.HandleMessage(context.Background(), "u1", "oi", nil)
	require.Error(t, err)

	// The failed turn must not be recorded.
	model.err = nil
	model.reply = "oi!"
	result, err := eng.HandleMessage(context.Background(), "u1", "oi de novo", nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Turns)
}

func TestHandleMessageAmigoContext(t *testing.T) {
	model := &mockModel{reply: "e aí!"}
	eng, _, _ := newTestEngine(t, model)

	_, err := eng.HandleMessage(context.Background(), "u1", "oi", []models.ContextType{models.ContextAmigo})
	require.NoError(t, err)
	prompt := systemPromptOf(model.lastMsgs)
	require.Contains(t, prompt, "Você é o Alex")
	require.NotContains(t, prompt, "assistente oficial do BioSummit")
}
