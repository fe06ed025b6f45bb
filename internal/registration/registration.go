// Package registration implements the event registration state machine.
//
// The machine walks a user through collecting name, email, CPF, phone,
// city/state, and profile, validating each field before advancing. It never
// phrases the bot's reply itself: each message yields a FlowHint describing
// what should happen next, and the language model turns that guidance into
// the actual answer. The machine is the authority on data validity and flow
// progression; the model is the authority on phrasing.
package registration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BioSummitBR/eventbot/internal/email"
	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/BioSummitBR/eventbot/internal/normalize"
	"github.com/BioSummitBR/eventbot/internal/store"
)

// intentKeywords trigger the registration flow from IDLE, matched as
// lower-cased substrings.
var intentKeywords = []string{
	"inscrever",
	"inscrição",
	"inscricao",
	"quero participar",
	"como participar",
	"quero ir",
	"fazer inscrição",
	"fazer inscricao",
	"me inscrever",
	"cadastrar",
	"cadastro",
}

// organizerContact is surfaced when a CPF is already registered.
const organizerContact = "contato@biosummit.com.br"

// Manager advances the registration flow for one message at a time. It is
// stateless itself; all flow state lives in the ConversationState.
type Manager struct {
	store store.Store
	email email.Sender
}

// NewManager creates a registration manager over the participant store and
// the confirmation email sender.
func NewManager(st store.Store, sender email.Sender) *Manager {
	return &Manager{store: st, email: sender}
}

// HandleMessage consumes one user message, mutates the conversation state
// according to the current step, and returns the flow hint for prompt
// construction. Only unrecoverable persistence failures return an error; in
// that case the registration step is left unchanged so the user can retry.
func (m *Manager) HandleMessage(state *models.ConversationState, userText string) (models.FlowHint, error) {
	switch state.RegistrationStep {
	case models.StepIdle:
		return m.handleIdle(state, userText), nil
	case models.StepAskingName:
		return m.handleName(state, userText), nil
	case models.StepAskingEmail:
		return m.handleEmail(state, userText), nil
	case models.StepAskingCPF:
		return m.handleCPF(state, userText), nil
	case models.StepAskingPhone:
		return m.handlePhone(state, userText), nil
	case models.StepAskingCity:
		return m.handleCity(state, userText), nil
	case models.StepAskingState:
		return m.handleState(state, userText), nil
	case models.StepAskingProfile:
		return m.handleProfile(state, userText), nil
	case models.StepConfirming:
		return m.handleConfirming(state, userText)
	case models.StepCompleted:
		return models.FlowHint{}, nil
	default:
		slog.Warn("Unknown registration step, resetting", "step", state.RegistrationStep, "userID", state.UserID)
		state.RegistrationStep = models.StepIdle
		return models.FlowHint{}, nil
	}
}

// hasRegistrationIntent reports whether the text asks to register.
func hasRegistrationIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range intentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isValidEmail applies the deliberately lenient rule: an "@" with a "."
// somewhere after it.
func isValidEmail(addr string) bool {
	at := strings.Index(addr, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(addr[at+1:], ".")
}

func (m *Manager) handleIdle(state *models.ConversationState, userText string) models.FlowHint {
	if !hasRegistrationIntent(userText) {
		return models.FlowHint{}
	}
	state.RegistrationStep = models.StepAskingName
	slog.Info("Registration flow started", "userID", state.UserID)
	return models.FlowHint{
		Instruction:        "O usuário quer se inscrever no BioSummit 2026. Dê boas-vindas ao fluxo de inscrição e peça o nome completo.",
		CurrentField:       "full_name",
		InRegistrationFlow: true,
	}
}

func (m *Manager) handleName(state *models.ConversationState, userText string) models.FlowHint {
	name := strings.TrimSpace(userText)
	if name == "" {
		return askAgain("full_name", "O usuário não informou um nome válido. Peça novamente o nome completo.")
	}
	state.RegistrationData.FullName = name
	state.RegistrationStep = models.StepAskingEmail
	return advance("email", "Nome completo capturado. Peça agora o e-mail principal do usuário.")
}

func (m *Manager) handleEmail(state *models.ConversationState, userText string) models.FlowHint {
	addr := strings.TrimSpace(userText)
	if !isValidEmail(addr) {
		return askAgain("email", "O e-mail informado é inválido. Peça um e-mail válido (exemplo: seu.nome@email.com).")
	}
	state.RegistrationData.Email = addr
	state.RegistrationStep = models.StepAskingCPF
	return advance("cpf", "E-mail capturado. Peça agora o CPF do usuário (somente números).")
}

func (m *Manager) handleCPF(state *models.ConversationState, userText string) models.FlowHint {
	cpf := normalize.CPF(userText)
	if cpf == "" {
		return askAgain("cpf", "O CPF informado é inválido. Peça um CPF com 11 dígitos, por exemplo: 123.456.789-01.")
	}

	// Optimization only; the store's unique index is the real guard.
	existing, err := m.store.GetParticipantByCPF(cpf)
	if err != nil {
		slog.Error("CPF pre-check failed, relying on store constraint", "error", err, "userID", state.UserID)
	}
	if existing != nil {
		return m.resetForDuplicate(state, existing)
	}

	state.RegistrationData.CPF = cpf
	state.RegistrationStep = models.StepAskingPhone
	return advance("phone", "CPF capturado. Peça agora o telefone com DDD, por exemplo: 41999999999.")
}

func (m *Manager) handlePhone(state *models.ConversationState, userText string) models.FlowHint {
	phone := normalize.Phone(userText)
	if phone == "" {
		return askAgain("phone", "O telefone informado é inválido. Peça o telefone com DDD, por exemplo: 41999999999.")
	}
	state.RegistrationData.Phone = phone
	state.RegistrationStep = models.StepAskingCity
	return advance("city", "Telefone capturado. Peça agora a cidade onde o usuário mora.")
}

func (m *Manager) handleCity(state *models.ConversationState, userText string) models.FlowHint {
	city, uf := normalize.CityState(userText)
	if city == "" {
		return askAgain("city", "Não foi possível entender a cidade. Peça novamente o nome da cidade.")
	}
	state.RegistrationData.City = city
	if uf != "" {
		state.RegistrationData.State = uf
		state.RegistrationStep = models.StepAskingProfile
		return advance("profile", "Cidade e estado capturados. Peça agora o perfil do usuário (exemplos: Produtor rural, Pesquisador(a), Empresa/Expositor, Estudante).")
	}
	state.RegistrationStep = models.StepAskingState
	return advance("state", "Cidade capturada. Peça agora o estado (UF) do usuário.")
}

func (m *Manager) handleState(state *models.ConversationState, userText string) models.FlowHint {
	uf := resolveState(userText)
	if uf == "" {
		return askAgain("state", "Não foi possível entender o estado. Peça a sigla do estado (UF), por exemplo: PR, SP, MG.")
	}
	state.RegistrationData.State = uf
	state.RegistrationStep = models.StepAskingProfile
	return advance("profile", "Estado capturado. Peça agora o perfil do usuário (exemplos: Produtor rural, Pesquisador(a), Empresa/Expositor, Estudante).")
}

// resolveState tries the city/state normalizer, then a literal two-letter
// code, then scans the words of phrases like "sou do PR" for a code.
func resolveState(userText string) string {
	if _, uf := normalize.CityState(userText); uf != "" {
		return uf
	}
	upper := strings.ToUpper(strings.TrimSpace(userText))
	if len(upper) == 2 && normalize.UFMap[upper] {
		return upper
	}
	for _, word := range strings.Fields(upper) {
		if len(word) == 2 && normalize.UFMap[word] {
			return word
		}
	}
	return ""
}

func (m *Manager) handleProfile(state *models.ConversationState, userText string) models.FlowHint {
	if strings.TrimSpace(userText) == "" {
		return askAgain("profile", "O usuário não informou o perfil. Peça o perfil (exemplos: Produtor rural, Pesquisador(a), Empresa/Expositor, Estudante).")
	}
	state.RegistrationData.Profile = normalize.Profile(userText)
	state.RegistrationStep = models.StepConfirming
	return models.FlowHint{
		Instruction: fmt.Sprintf(
			"Todos os dados foram coletados: %s. Apresente esse resumo ao usuário e peça que responda 'sim' para confirmar a inscrição ou 'não' para reiniciar o cadastro.",
			state.RegistrationData.Summary()),
		FieldCaptured:      true,
		CurrentField:       "confirmation",
		InRegistrationFlow: true,
	}
}

func (m *Manager) handleConfirming(state *models.ConversationState, userText string) (models.FlowHint, error) {
	answer := strings.ToLower(strings.TrimSpace(userText))
	switch {
	case strings.HasPrefix(answer, "sim"):
		return m.commit(state)
	case strings.HasPrefix(answer, "não"), strings.HasPrefix(answer, "nao"):
		state.RegistrationData = models.RegistrationData{}
		state.RegistrationStep = models.StepAskingName
		slog.Info("Registration restarted by user", "userID", state.UserID)
		return models.FlowHint{
			Instruction:        "O usuário pediu para reiniciar o cadastro. Os dados anteriores foram descartados. Peça novamente o nome completo.",
			CurrentField:       "full_name",
			InRegistrationFlow: true,
		}, nil
	default:
		return askAgain("confirmation", "A resposta não ficou clara. Peça que o usuário responda apenas 'sim' para confirmar ou 'não' para reiniciar o cadastro."), nil
	}
}

// commit persists the participant and finalizes the flow. A uniqueness
// violation surfaced by the store takes the same reset path as the pre-check;
// any other persistence failure leaves the step at CONFIRMING so the user can
// retry. A missing participant id after a successful insert is a fatal
// invariant violation and is propagated, not masked.
func (m *Manager) commit(state *models.ConversationState) (models.FlowHint, error) {
	data := state.RegistrationData
	created, err := m.store.CreateParticipant(models.Participant{
		FullName: data.FullName,
		Email:    data.Email,
		CPF:      data.CPF,
		Phone:    data.Phone,
		City:     data.City,
		State:    data.State,
		Profile:  data.Profile,
	})
	if errors.Is(err, store.ErrDuplicateCPF) {
		existing, lookupErr := m.store.GetParticipantByCPF(data.CPF)
		if lookupErr != nil {
			slog.Error("Failed to look up existing registrant after duplicate", "error", lookupErr, "userID", state.UserID)
		}
		return m.resetForDuplicate(state, existing), nil
	}
	if err != nil {
		slog.Error("Participant persistence failed", "error", err, "userID", state.UserID)
		return models.FlowHint{}, fmt.Errorf("failed to persist participant: %w", err)
	}
	if created.ID == 0 {
		return models.FlowHint{}, fmt.Errorf("%w: cpf %s", store.ErrParticipantIDMissing, data.CPF)
	}

	if sendErr := m.email.SendRegistrationConfirmation(data.Email, data.FullName); sendErr != nil {
		// Delivery failure does not undo the registration.
		slog.Error("Confirmation email failed", "error", sendErr, "participantID", created.ID, "email", data.Email)
	}

	state.RegistrationStep = models.StepCompleted
	slog.Info("Registration completed", "userID", state.UserID, "participantID", created.ID)
	return models.FlowHint{
		Instruction:        "A inscrição foi registrada com sucesso. Informe que um e-mail de confirmação será enviado em breve e que o usuário pode continuar tirando dúvidas sobre o BioSummit 2026.",
		FieldCaptured:      true,
		InRegistrationFlow: true,
	}, nil
}

// resetForDuplicate clears the flow and tells the model to inform the user
// that the CPF is already registered.
func (m *Manager) resetForDuplicate(state *models.ConversationState, existing *models.Participant) models.FlowHint {
	state.RegistrationData = models.RegistrationData{}
	state.RegistrationStep = models.StepIdle
	slog.Info("Duplicate CPF, registration reset", "userID", state.UserID)

	instruction := fmt.Sprintf(
		"O CPF informado já possui uma inscrição no BioSummit 2026. Informe ao usuário que a inscrição já existe e que, para alterações ou dúvidas, ele deve entrar em contato direto com a organização pelo e-mail %s.",
		organizerContact)
	if existing != nil {
		instruction = fmt.Sprintf(
			"O CPF informado já possui uma inscrição no BioSummit 2026 em nome de %s (e-mail: %s). Informe ao usuário que a inscrição já existe e que, para alterações ou dúvidas, ele deve entrar em contato direto com a organização pelo e-mail %s.",
			existing.FullName, existing.Email, organizerContact)
	}
	return models.FlowHint{Instruction: instruction}
}

func askAgain(field, instruction string) models.FlowHint {
	return models.FlowHint{
		Instruction:        instruction,
		CurrentField:       field,
		InRegistrationFlow: true,
	}
}

func advance(nextField, instruction string) models.FlowHint {
	return models.FlowHint{
		Instruction:        instruction,
		FieldCaptured:      true,
		CurrentField:       nextField,
		InRegistrationFlow: true,
	}
}
