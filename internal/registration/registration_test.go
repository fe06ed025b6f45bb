package registration

import (
	"errors"
	"strings"
	"testing"

	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/BioSummitBR/eventbot/internal/store"
)

type mockSender struct {
	calls int
	err   error
	to    string
	name  string
}

func (m *mockSender) SendRegistrationConfirmation(toEmail, fullName string) error {
	m.calls++
	m.to = toEmail
	m.name = fullName
	return m.err
}

// happyPath drives a fresh state through the whole flow up to CONFIRMING.
var happyPath = []string{
	"Oi, quero me inscrever no evento",
	"Maria da Silva",
	"maria.silva@example.com",
	"529.982.247-25",
	"41 99938-0969",
	"Londrina/PR",
	"Sou produtora rural",
}

func runFlow(t *testing.T, m *Manager, state *models.ConversationState, inputs []string) models.FlowHint {
	t.Helper()
	var hint models.FlowHint
	for _, input := range inputs {
		var err error
		hint, err = m.HandleMessage(state, input)
		if err != nil {
			t.Fatalf("HandleMessage(%q) failed: %v", input, err)
		}
	}
	return hint
}

func TestIdleIgnoresUnrelatedMessages(t *testing.T) {
	m := NewManager(store.NewInMemoryStore(), &mockSender{})
	state := models.NewConversationState("u1")

	hint, err := m.HandleMessage(state, "Qual o valor do ingresso?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hint.InRegistrationFlow || hint.Instruction != "" {
		t.Errorf("expected neutral hint, got %+v", hint)
	}
	if state.RegistrationStep != models.StepIdle {
		t.Errorf("expected step to stay idle, got %s", state.RegistrationStep)
	}
}

func TestIntentStartsFlow(t *testing.T) {
	m := NewManager(store.NewInMemoryStore(), &mockSender{})
	for _, msg := range []string{"quero me inscrever", "como faço o cadastro?", "Quero participar do BioSummit"} {
		state := models.NewConversationState("u1")
		hint, _ := m.HandleMessage(state, msg)
		if state.RegistrationStep != models.StepAskingName {
			t.Errorf("%q: expected asking_name, got %s", msg, state.RegistrationStep)
		}
		if !hint.InRegistrationFlow || hint.CurrentField != "full_name" {
			t.Errorf("%q: unexpected hint %+v", msg, hint)
		}
	}
}

func TestInvalidInputIsIdempotent(t *testing.T) {
	m := NewManager(store.NewInMemoryStore(), &mockSender{})
	state := models.NewConversationState("u1")
	runFlow(t, m, state, []string{"quero me inscrever", "Maria da Silva"})

	first, _ := m.HandleMessage(state, "sem arroba")
	second, _ := m.HandleMessage(state, "sem arroba")
	if state.RegistrationStep != models.StepAskingEmail {
		t.Errorf("expected no progression, got %s", state.RegistrationStep)
	}
	if first != second {
		t.Errorf("expected identical re-prompt hints, got %+v vs %+v", first, second)
	}
	if first.FieldCaptured {
		t.Error("invalid input must not mark the field as captured")
	}
}

func TestHappyPathCompletesOnce(t *testing.T) {
	st := store.NewInMemoryStore()
	sender := &mockSender{}
	m := NewManager(st, sender)
	state := models.NewConversationState("5541999380969")

	runFlow(t, m, state, happyPath)
	if state.RegistrationStep != models.StepConfirming {
		t.Fatalf("expected confirming before the final yes, got %s", state.RegistrationStep)
	}

	hint, err := m.HandleMessage(state, "sim, está correto")
	if err != nil {
		t.Fatalf("unexpected error on confirm: %v", err)
	}
	if state.RegistrationStep != models.StepCompleted {
		t.Errorf("expected completed, got %s", state.RegistrationStep)
	}
	if !hint.FieldCaptured || hint.Instruction == "" {
		t.Errorf("expected completion hint, got %+v", hint)
	}

	participants, err := st.ListParticipants()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("expected exactly one participant, got %d", len(participants))
	}
	p := participants[0]
	if p.FullName != "Maria da Silva" || p.Email != "maria.silva@example.com" ||
		p.CPF != "52998224725" || p.Phone != "+55 41 99938-0969" ||
		p.City != "Londrina" || p.State != "PR" || p.Profile != "Produtor rural" {
		t.Errorf("unexpected participant: %+v", p)
	}
	if sender.calls != 1 {
		t.Errorf("expected exactly one email attempt, got %d", sender.calls)
	}
	if sender.to != "maria.silva@example.com" || sender.name != "Maria da Silva" {
		t.Errorf("unexpected email recipient: %s / %s", sender.to, sender.name)
	}

	// COMPLETED is terminal but chatting continues with a neutral hint.
	after, _ := m.HandleMessage(state, "obrigada!")
	if after.InRegistrationFlow || after.Instruction != "" {
		t.Errorf("expected neutral hint after completion, got %+v", after)
	}
}

func TestCityWithoutStateAsksForUF(t *testing.T) {
	m := NewManager(store.NewInMemoryStore(), &mockSender{})
	state := models.NewConversationState("u1")
	runFlow(t, m, state, []string{
		"quero me inscrever", "Maria da Silva", "maria@example.com", "52998224725", "41999380969",
	})

	m.HandleMessage(state, "Maringá")
	if state.RegistrationStep != models.StepAskingState {
		t.Fatalf("expected asking_state, got %s", state.RegistrationStep)
	}
	if state.RegistrationData.City != "Maringá" {
		t.Errorf("expected city captured, got %q", state.RegistrationData.City)
	}

	m.HandleMessage(state, "sou do Paraná, PR")
	if state.RegistrationStep != models.StepAskingProfile {
		t.Errorf("expected asking_profile, got %s", state.RegistrationStep)
	}
	if state.RegistrationData.State != "PR" {
		t.Errorf("expected UF resolved, got %q", state.RegistrationData.State)
	}
}

func TestDuplicateCPFResetsFlow(t *testing.T) {
	st := store.NewInMemoryStore()
	sender := &mockSender{}
	m := NewManager(st, sender)

	first := models.NewConversationState("u1")
	runFlow(t, m, first, append(happyPath, "sim"))

	// Second attempt with the same CPF in a fresh conversation.
	second := models.NewConversationState("u2")
	hint := runFlow(t, m, second, []string{
		"quero fazer minha inscrição", "João Pereira", "joao@example.com", "529.982.247-25",
	})

	if second.RegistrationStep != models.StepIdle {
		t.Errorf("expected reset to idle, got %s", second.RegistrationStep)
	}
	if !second.RegistrationData.IsEmpty() {
		t.Errorf("expected registration data cleared, got %+v", second.RegistrationData)
	}
	if !strings.Contains(hint.Instruction, "Maria da Silva") || !strings.Contains(hint.Instruction, "maria.silva@example.com") {
		t.Errorf("expected instruction to reveal the existing registrant, got %q", hint.Instruction)
	}
	if !strings.Contains(hint.Instruction, "contato@biosummit.com.br") {
		t.Errorf("expected organizer contact in instruction, got %q", hint.Instruction)
	}

	participants, _ := st.ListParticipants()
	if len(participants) != 1 {
		t.Errorf("expected no second participant row, got %d", len(participants))
	}
	if sender.calls != 1 {
		t.Errorf("expected no second email, got %d attempts", sender.calls)
	}
}

// duplicateOnCreateStore simulates the concurrent-confirmation race: the
// pre-check sees no registrant but the insert hits the unique constraint.
type duplicateOnCreateStore struct {
	*store.InMemoryStore
	existing models.Participant
}

func (s *duplicateOnCreateStore) CreateParticipant(p models.Participant) (models.Participant, error) {
	return models.Participant{}, store.ErrDuplicateCPF
}

func (s *duplicateOnCreateStore) GetParticipantByCPF(cpf string) (*models.Participant, error) {
	return &s.existing, nil
}

func TestCommitRaceTakesDuplicatePath(t *testing.T) {
	st := &duplicateOnCreateStore{
		InMemoryStore: store.NewInMemoryStore(),
		existing:      models.Participant{ID: 7, FullName: "Ana Souza", Email: "ana@example.com", CPF: "52998224725"},
	}
	sender := &mockSender{}
	m := NewManager(st, sender)
	state := models.NewConversationState("u1")

	// The pre-check at ASKING_CPF answers with the existing registrant here,
	// so drive the state to CONFIRMING directly.
	state.RegistrationStep = models.StepConfirming
	state.RegistrationData = models.RegistrationData{
		FullName: "João Pereira", Email: "joao@example.com", CPF: "52998224725",
	}

	hint, err := m.HandleMessage(state, "sim")
	if err != nil {
		t.Fatalf("duplicate at commit must not be an error: %v", err)
	}
	if state.RegistrationStep != models.StepIdle || !state.RegistrationData.IsEmpty() {
		t.Errorf("expected reset, got step=%s data=%+v", state.RegistrationStep, state.RegistrationData)
	}
	if !strings.Contains(hint.Instruction, "Ana Souza") {
		t.Errorf("expected existing registrant in instruction, got %q", hint.Instruction)
	}
	if sender.calls != 0 {
		t.Errorf("expected no email on duplicate, got %d", sender.calls)
	}
}

type failingCreateStore struct {
	*store.InMemoryStore
	err     error
	created models.Participant
}

func (s *failingCreateStore) CreateParticipant(p models.Participant) (models.Participant, error) {
	if s.err != nil {
		return models.Participant{}, s.err
	}
	return s.created, nil
}

func TestPersistenceFailureKeepsConfirming(t *testing.T) {
	st := &failingCreateStore{InMemoryStore: store.NewInMemoryStore(), err: errors.New("disk full")}
	sender := &mockSender{}
	m := NewManager(st, sender)
	state := models.NewConversationState("u1")
	state.RegistrationStep = models.StepConfirming
	state.RegistrationData = models.RegistrationData{FullName: "Maria", Email: "m@x.com", CPF: "52998224725"}

	_, err := m.HandleMessage(state, "sim")
	if err == nil {
		t.Fatal("expected persistence failure to propagate")
	}
	if state.RegistrationStep != models.StepConfirming {
		t.Errorf("expected step unchanged for retry, got %s", state.RegistrationStep)
	}
	if sender.calls != 0 {
		t.Errorf("expected no email on failure, got %d", sender.calls)
	}
}

func TestMissingParticipantIDIsFatal(t *testing.T) {
	st := &failingCreateStore{InMemoryStore: store.NewInMemoryStore(), created: models.Participant{ID: 0}}
	m := NewManager(st, &mockSender{})
	state := models.NewConversationState("u1")
	state.RegistrationStep = models.StepConfirming
	state.RegistrationData = models.RegistrationData{FullName: "Maria", Email: "m@x.com", CPF: "52998224725"}

	_, err := m.HandleMessage(state, "sim")
	if !errors.Is(err, store.ErrParticipantIDMissing) {
		t.Errorf("expected ErrParticipantIDMissing, got %v", err)
	}
}

func TestEmailFailureIsNonFatal(t *testing.T) {
	st := store.NewInMemoryStore()
	sender := &mockSender{err: errors.New("smtp down")}
	m := NewManager(st, sender)
	state := models.NewConversationState("u1")

	runFlow(t, m, state, happyPath)
	_, err := m.HandleMessage(state, "sim")
	if err != nil {
		t.Fatalf("email failure must not fail the registration: %v", err)
	}
	if state.RegistrationStep != models.StepCompleted {
		t.Errorf("expected completed despite email failure, got %s", state.RegistrationStep)
	}
	participants, _ := st.ListParticipants()
	if len(participants) != 1 {
		t.Errorf("expected participant persisted, got %d", len(participants))
	}
}

func TestRestartClearsData(t *testing.T) {
	m := NewManager(store.NewInMemoryStore(), &mockSender{})
	state := models.NewConversationState("u1")
	runFlow(t, m, state, happyPath)

	hint, err := m.HandleMessage(state, "não, quero corrigir")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.RegistrationStep != models.StepAskingName {
		t.Errorf("expected asking_name after restart, got %s", state.RegistrationStep)
	}
	if !state.RegistrationData.IsEmpty() {
		t.Errorf("expected data cleared, got %+v", state.RegistrationData)
	}
	if hint.CurrentField != "full_name" || !hint.InRegistrationFlow {
		t.Errorf("unexpected restart hint: %+v", hint)
	}
}

func TestAmbiguousConfirmationReprompts(t *testing.T) {
	m := NewManager(store.NewInMemoryStore(), &mockSender{})
	state := models.NewConversationState("u1")
	runFlow(t, m, state, happyPath)

	hint, _ := m.HandleMessage(state, "talvez")
	if state.RegistrationStep != models.StepConfirming {
		t.Errorf("expected to stay confirming, got %s", state.RegistrationStep)
	}
	if hint.CurrentField != "confirmation" || hint.FieldCaptured {
		t.Errorf("unexpected hint: %+v", hint)
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "maria.silva@sub.example.com.br"}
	invalid := []string{"", "sem-arroba", "a@semponto", "ponto.antes@do"}
	for _, addr := range valid {
		if !isValidEmail(addr) {
			t.Errorf("expected %q valid", addr)
		}
	}
	for _, addr := range invalid {
		if isValidEmail(addr) {
			t.Errorf("expected %q invalid", addr)
		}
	}
}
