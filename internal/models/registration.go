package models

import "strings"

// RegistrationStep enumerates the states of the registration flow.
type RegistrationStep string

const (
	StepIdle          RegistrationStep = "idle"
	StepAskingName    RegistrationStep = "asking_name"
	StepAskingEmail   RegistrationStep = "asking_email"
	StepAskingCPF     RegistrationStep = "asking_cpf"
	StepAskingPhone   RegistrationStep = "asking_phone"
	StepAskingCity    RegistrationStep = "asking_city"
	StepAskingState   RegistrationStep = "asking_state"
	StepAskingProfile RegistrationStep = "asking_profile"
	StepConfirming    RegistrationStep = "confirming"
	StepCompleted     RegistrationStep = "completed"
)

// RegistrationData holds the fields collected during the registration flow.
// Fields are only ever set after validation/normalization, never raw input.
type RegistrationData struct {
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	CPF      string `json:"cpf,omitempty"`
	Phone    string `json:"phone,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Profile  string `json:"profile,omitempty"`
}

// IsEmpty reports whether no field has been collected yet.
func (d RegistrationData) IsEmpty() bool {
	return d == RegistrationData{}
}

// Summary renders the collected fields for the prompt context block.
func (d RegistrationData) Summary() string {
	var parts []string
	if d.FullName != "" {
		parts = append(parts, "nome="+d.FullName)
	}
	if d.Email != "" {
		parts = append(parts, "e-mail="+d.Email)
	}
	if d.CPF != "" {
		parts = append(parts, "cpf="+d.CPF)
	}
	if d.Phone != "" {
		parts = append(parts, "telefone="+d.Phone)
	}
	if d.City != "" {
		parts = append(parts, "cidade="+d.City)
	}
	if d.State != "" {
		parts = append(parts, "uf="+d.State)
	}
	if d.Profile != "" {
		parts = append(parts, "perfil="+d.Profile)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}

// FlowHint is the structured guidance the registration state machine hands to
// prompt construction. It is rebuilt on every message and never persisted.
type FlowHint struct {
	Instruction        string
	FieldCaptured      bool
	CurrentField       string
	InRegistrationFlow bool
}
