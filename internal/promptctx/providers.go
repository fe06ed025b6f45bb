package promptctx

import (
	"fmt"
	"strings"

	"github.com/BioSummitBR/eventbot/internal/eventinfo"
)

// DefaultSystemPrompt is the base persona shipped with the bot. Deployments
// can override it through configuration.
const DefaultSystemPrompt = `Você é o assistente oficial do BioSummit 2026.

### Comportamento e diretrizes:

- Use as informações do evento fornecidas no bloco [Informações do evento BioSummit 2026] para responder perguntas sobre o evento.
- Responda sempre de forma clara, objetiva e educada.
- Nunca invente informações que não estejam no bloco de informações do evento.
- Se uma informação não estiver disponível no bloco de informações, diga: "Não tenho essa informação no momento. Posso encaminhar sua dúvida para a organização."
- Sempre ofereça encaminhamento para a organização quando for algo muito específico ou não disponível.
- IMPORTANTE: Sempre responda no mesmo idioma em que a mensagem foi escrita. Detecte automaticamente o idioma da mensagem e mantenha a conversa nesse idioma.

### Sobre o fluxo de inscrição:
- Você receberá, às vezes, um contexto adicional de fluxo de inscrição em um bloco chamado [Contexto do fluxo de inscrição].
- Sempre respeite essas instruções, mantendo um tom natural e humano.
- Integre as instruções do fluxo de inscrição de forma suave na conversa, sem parecer robótico.
- Quando estiver no fluxo de inscrição, pode responder dúvidas sobre o evento, mas sempre retome suavemente ao próximo passo necessário.`

// BasePromptProvider contributes the base persona prompt.
type BasePromptProvider struct {
	prompt string
}

// NewBasePromptProvider creates the base persona provider. An empty prompt
// falls back to DefaultSystemPrompt.
func NewBasePromptProvider(prompt string) *BasePromptProvider {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultSystemPrompt
	}
	return &BasePromptProvider{prompt: prompt}
}

func (p *BasePromptProvider) ContextType() string { return "base" }
func (p *BasePromptProvider) Priority() int       { return 1 }

// GetContext returns the base persona. It has no section heading since it
// opens the prompt.
func (p *BasePromptProvider) GetContext(req Request) (*ContextResult, error) {
	return &ContextResult{
		Content:  strings.TrimSpace(p.prompt),
		Priority: p.Priority(),
		Metadata: map[string]any{"type": "base_system_prompt"},
	}, nil
}

// EventInfoProvider contributes the event facts block.
type EventInfoProvider struct {
	event eventinfo.Event
}

// NewEventInfoProvider creates the event info provider. With mock enabled the
// simulated data set is used instead of the published facts.
func NewEventInfoProvider(mock bool) *EventInfoProvider {
	if mock {
		return &EventInfoProvider{event: eventinfo.Mock()}
	}
	return &EventInfoProvider{event: eventinfo.Real()}
}

func (p *EventInfoProvider) ContextType() string { return "event_info" }
func (p *EventInfoProvider) Priority() int       { return 50 }

func (p *EventInfoProvider) GetContext(req Request) (*ContextResult, error) {
	block := p.event.FormatBlock()
	if block == "" {
		return nil, nil
	}
	return &ContextResult{
		Content:     block,
		Priority:    p.Priority(),
		SectionName: "[Informações do evento BioSummit 2026]",
		Metadata:    map[string]any{"type": "event_info", "mock": p.event.Simulated},
	}, nil
}

// RegistrationProvider contributes flow guidance derived from the state
// machine's hint: the pending instruction, the field currently expected, the
// data collected so far, and behavioral rules for staying in the flow.
type RegistrationProvider struct{}

func NewRegistrationProvider() *RegistrationProvider { return &RegistrationProvider{} }

func (p *RegistrationProvider) ContextType() string { return "registration" }
func (p *RegistrationProvider) Priority() int       { return 30 }

func (p *RegistrationProvider) GetContext(req Request) (*ContextResult, error) {
	hint := req.FlowHint
	if hint == nil {
		return nil, nil
	}

	var parts []string
	if hint.Instruction != "" {
		parts = append(parts, hint.Instruction)
	}
	if hint.CurrentField != "" {
		parts = append(parts, fmt.Sprintf("No fluxo de inscrição, o campo atual esperado é: %q.", hint.CurrentField))
	}
	if req.State != nil {
		if summary := req.State.RegistrationData.Summary(); summary != "" {
			parts = append(parts, "Dados de inscrição já coletados: "+summary+".")
		}
	}
	if hint.InRegistrationFlow {
		parts = append(parts,
			"Você deve sempre responder de forma natural e humana, como um assistente do congresso. "+
				"Se o usuário fizer uma pergunta ou sair do tema da inscrição, responda à dúvida com clareza e simpatia "+
				"e, em seguida, conduza suavemente de volta ao próximo passo do fluxo de inscrição. "+
				"Se o usuário forneceu claramente o dado esperado, confirme esse dado e avance naturalmente para o próximo campo. "+
				"IMPORTANTE: Durante o fluxo de inscrição, NÃO mencione pagamento ou próximos passos de pagamento. "+
				"O bot apenas coleta os dados do participante. O pagamento (se necessário) será feito posteriormente na área do usuário do site oficial.")
	} else if hint.Instruction != "" {
		parts = append(parts, "Siga a instrução acima de forma natural e humana.")
	}

	if len(parts) == 0 {
		return nil, nil
	}
	return &ContextResult{
		Content:     strings.Join(parts, "\n"),
		Priority:    p.Priority(),
		SectionName: "[Contexto do fluxo de inscrição]",
		Metadata: map[string]any{
			"type":                 "registration",
			"in_registration_flow": hint.InRegistrationFlow,
			"current_field":        hint.CurrentField,
			"field_captured":       hint.FieldCaptured,
		},
	}, nil
}

// amigoPersona is the casual validation persona. It fully replaces the base
// persona when the amigo context type is requested.
const amigoPersona = `Você é o Alex, um amigo virtual de 28 anos.

SUA PERSONALIDADE:
- Estilo: casual
- Comunicação: descontraída e amigável
- Nível de formalidade: informal
- Uso de emojis: Sim, use ocasionalmente

SEUS INTERESSES:
- tecnologia
- música
- filmes e séries
- jogos
- comida
- viagens
- esportes

TÓPICOS QUE VOCÊ GOSTA DE CONVERSAR:
- conversar sobre o dia a dia
- compartilhar experiências
- dar conselhos quando pedido
- falar sobre hobbies
- discutir cultura pop

EXPRESSÕES QUE VOCÊ USA:
- "E aí, tudo bem?"
- "Que legal!"
- "Massa!"
- "Show de bola!"
- "Bora conversar!"

REGRAS DE COMPORTAMENTO (MUITO IMPORTANTE):
- Sempre seja amigável e descontraído
- Use linguagem informal e natural
- Não seja robótico ou formal
- Mostre interesse genuíno na conversa
- Use emojis ocasionalmente (mas não exagere)
- Seja empático e compreensivo
- Não fale sobre eventos, congressos ou inscrições
- Não seja um assistente de vendas ou suporte
- Aja como um amigo de verdade conversando
- Pode fazer piadas leves e ter opiniões pessoais (mas respeitosas)

IMPORTANTE - O QUE VOCÊ NÃO É:
- Você NÃO é um assistente de evento
- Você NÃO fala sobre congressos, eventos ou inscrições
- Você NÃO é um bot de atendimento ou suporte
- Você NÃO vende nada
- Você NÃO coleta dados para cadastro

DIRETRIZES DE RESPOSTA:
- Responda sempre de forma natural e amigável
- Use linguagem informal e descontraída
- Se não souber algo, seja honesto
- Mantenha o tom de amigo, não de assistente
- Se o usuário perguntar sobre eventos/congressos, diga educadamente que você não trabalha com isso
- Foque em ter uma conversa agradável e natural`

// AmigoProvider contributes the casual persona used for validation runs.
type AmigoProvider struct{}

func NewAmigoProvider() *AmigoProvider { return &AmigoProvider{} }

func (p *AmigoProvider) ContextType() string { return "amigo" }
func (p *AmigoProvider) Priority() int       { return 1 }

func (p *AmigoProvider) GetContext(req Request) (*ContextResult, error) {
	return &ContextResult{
		Content:  amigoPersona,
		Priority: p.Priority(),
		Metadata: map[string]any{"type": "amigo", "name": "Alex"},
	}, nil
}
