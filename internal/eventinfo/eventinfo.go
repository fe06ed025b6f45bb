// Package eventinfo holds the BioSummit 2026 event facts used to ground the
// assistant's answers.
//
// All data is hard-coded; nothing here performs scraping or HTTP requests. The
// real data set mirrors the public event site, and a simulated set exists for
// test environments where prices and agenda are stand-ins.
package eventinfo

import (
	"fmt"
	"strings"
)

// PriceTier is one price window for a ticket category.
type PriceTier struct {
	AmountBRL float64
	Label     string
}

// TicketCategory is one ticket category with its price tiers.
type TicketCategory struct {
	Name  string
	Tiers []PriceTier
}

// CommitteeMember is one technical committee member.
type CommitteeMember struct {
	Name        string
	Institution string
}

// Event carries the factual event data rendered into the prompt block.
type Event struct {
	Name            string
	Theme           string
	Dates           string
	TimeWindow      string
	Location        string
	LocationNote    string
	Format          string
	Description     string
	Organizer       string
	OrganizerPhone  string
	ContactEmail    string
	Website         string
	TargetAudience  []string
	AreaM2          int
	Structure       []string
	Tickets         []TicketCategory
	TicketStatus    []string
	Cancellation    string
	RegistrationHow string
	SpeakersNote    string
	Committee       []CommitteeMember
	Sponsorship     []string
	UserAreaURL     string
	UserAreaNotes   []string
	BotGuidance     string
	Simulated       bool
}

// Real returns the BioSummit 2026 facts as published on the official site.
func Real() Event {
	return Event{
		Name:           "BioSummit 2026",
		Theme:          "Bioinsumos e Agricultura Regenerativa: Cultivando o Futuro Sustentável",
		Dates:          "06 e 07 de maio de 2026",
		TimeWindow:     "das 08:00 às 18:00",
		Location:       "Expo Dom Pedro, Campinas - SP",
		LocationNote:   "Um dos maiores centros de eventos do interior paulista, integrado ao Parque Dom Pedro Shopping, facilitando acesso, hospedagem e alimentação.",
		Format:         "presencial",
		Description:    "O BioSummit 2026 é um encontro focado em bioinsumos e agricultura regenerativa, reunindo produtores, pesquisadores, empresas e profissionais do agro para discutir o futuro da produção agrícola no Brasil. Ao longo de dois dias, o evento promove debates técnicos, apresentação de soluções biológicas e tecnologias, troca de experiências de campo e conexões entre diferentes elos da cadeia do agro.",
		Organizer:      "FB Group Brasil (FB GROUP)",
		OrganizerPhone: "(43) 3025-5223",
		ContactEmail:   "contato@biosummit.com.br",
		Website:        "https://biosummit.com.br",
		TargetAudience: []string{
			"Produtores rurais e técnicos de campo",
			"Pesquisadores e profissionais de universidades e instituições de pesquisa",
			"Empresas de bioinsumos, biológicos, sementes, fertilizantes, maquinário e tecnologia",
			"Consultores, agrônomos, engenheiros e profissionais de assistência técnica",
			"Estudantes e entusiastas de agricultura regenerativa e inovação no agro",
		},
		AreaM2: 6500,
		Structure: []string{
			"Road TRIP pré-evento",
			"Mais de 6.500 m² de pavilhão com estandes das principais empresas do setor",
			"Espaço imprensa e podcast",
			"Programação intensa com painéis e palestras",
			"Espaços para reuniões e networking",
		},
		Tickets: []TicketCategory{
			{Name: "Profissional", Tiers: []PriceTier{
				{AmountBRL: 700, Label: "Até 13/02/2026"},
				{AmountBRL: 850, Label: "Até 30/04/2026"},
				{AmountBRL: 950, Label: "Após 30/04/2026"},
			}},
			{Name: "Estudante", Tiers: []PriceTier{
				{AmountBRL: 450, Label: "Até 13/02/2026"},
				{AmountBRL: 650, Label: "Até 30/04/2026"},
				{AmountBRL: 800, Label: "Após 30/04/2026"},
			}},
			{Name: "Produtor", Tiers: []PriceTier{
				{AmountBRL: 450, Label: "Até 13/02/2026"},
				{AmountBRL: 650, Label: "Até 30/04/2026"},
				{AmountBRL: 800, Label: "Após 30/04/2026"},
			}},
			{Name: "Patrocinador", Tiers: []PriceTier{
				{AmountBRL: 450, Label: "Até 13/02/2026"},
				{AmountBRL: 650, Label: "Até 30/04/2026"},
				{AmountBRL: 800, Label: "Após 30/04/2026"},
			}},
		},
		TicketStatus: []string{
			"Ingressos presenciais esgotados, mas ainda podem existir alternativas (lista de espera, formato online ou outras soluções) divulgadas nos canais oficiais.",
		},
		Cancellation:    "Não efetuamos devolução, reembolso ou estornos.",
		RegistrationHow: "Após o preenchimento do formulário o participante recebe uma mensagem de confirmação e é direcionado para a área de usuário, onde poderá editar os dados, efetuar pagamentos e baixar recibos. Só é possível fazer a inscrição uma única vez. Após o cadastro, acesse a Área do Inscrito e informe os dados de acesso.",
		SpeakersNote:    "O evento contará com a participação dos principais nomes da indústria e da academia. Lista completa a ser divulgada em https://biosummit.com.br/convidados.",
		Committee: []CommitteeMember{
			{Name: "Wagner Betiol", Institution: "Embrapa"},
			{Name: "Sérgio Mazaro", Institution: "UTFPR"},
			{Name: "Flávio Medeiros", Institution: "UFLA"},
		},
		Sponsorship: []string{
			"Público qualificado estimado: mais de 1000 participantes",
			"Visibilidade institucional, geração de leads e relacionamento com decisores do agro",
			"Cotas e formatos de patrocínio devem ser tratados diretamente com a organização: https://biosummit.com.br/patrocinio",
		},
		UserAreaURL: "https://biosummit.com.br/acesso",
		UserAreaNotes: []string{
			"Login com e-mail, CPF ou login",
			"Acesso à conta e dados de inscrição",
			"Reset de senha",
		},
		BotGuidance: "Quando o usuário perguntar sobre valores ou lotes, informe a tabela básica de preços, mas recomende sempre a consulta em tempo real à página oficial de inscrições em biosummit.com.br, pois os valores e condições podem ser atualizados pelos organizadores.",
	}
}

// Mock returns the simulated data set used in test environments. Prices and
// agenda here are stand-ins, not the published values.
func Mock() Event {
	return Event{
		Name:         "BioSummit (3ª edição - 2026)",
		Theme:        "Bioinsumos e Agricultura Regenerativa: Cultivando o Futuro Sustentável",
		Dates:        "06 e 07 de maio de 2026",
		Location:     "Expo Dom Pedro, Campinas - SP",
		Format:       "presencial",
		ContactEmail: "contato@biosummit.com.br",
		Website:      "https://www.biosummit.com.br",
		Tickets: []TicketCategory{
			{Name: "Produtor rural", Tiers: []PriceTier{{AmountBRL: 390, Label: "primeiro lote"}}},
			{Name: "Pesquisador / Professor", Tiers: []PriceTier{{AmountBRL: 490, Label: "primeiro lote"}}},
			{Name: "Estudante", Tiers: []PriceTier{{AmountBRL: 250, Label: "primeiro lote"}}},
			{Name: "Profissional da indústria / empresa privada", Tiers: []PriceTier{{AmountBRL: 690, Label: "primeiro lote"}}},
		},
		Structure: []string{
			"Painéis técnicos sobre manejo biológico de doenças em grandes culturas",
			"Fóruns sobre regulamentação, registro e políticas públicas de bioinsumos",
			"Sessões de networking entre empresas, produtores e pesquisadores",
		},
		TicketStatus: []string{
			"Certificado de participação digital previsto para inscritos com check-in no evento.",
			"Evento conduzido principalmente em português, com algumas palestras possivelmente em inglês.",
			"Praça de alimentação terceirizada no local, não inclusa no valor da inscrição.",
		},
		Simulated: true,
	}
}

// FormatBlock renders the event data as the text block injected into the
// system prompt.
func (e Event) FormatBlock() string {
	var b strings.Builder
	if e.Simulated {
		b.WriteString("ATENÇÃO: As informações abaixo são SIMULADAS para ambiente de teste e não representam necessariamente os valores finais do evento.\n")
		b.WriteString("Quando o modo de dados simulados está ativo, use as informações abaixo para responder perguntas sobre valores, categorias de ingresso e demais informações do evento.\n\n")
	}
	fmt.Fprintf(&b, "Nome: %s\n", e.Name)
	fmt.Fprintf(&b, "Tema: %s\n", e.Theme)
	dates := e.Dates
	if e.TimeWindow != "" {
		dates += ", " + e.TimeWindow
	}
	fmt.Fprintf(&b, "Datas: %s\n", dates)
	loc := e.Location
	if e.LocationNote != "" {
		loc += " - " + e.LocationNote
	}
	fmt.Fprintf(&b, "Local: %s\n", loc)
	if e.Format != "" {
		fmt.Fprintf(&b, "Formato: %s\n", e.Format)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, "\nDescrição:\n%s\n", e.Description)
	}
	if len(e.TargetAudience) > 0 {
		b.WriteString("\nPúblico-alvo:\n")
		writeList(&b, e.TargetAudience)
	}
	if len(e.Structure) > 0 {
		b.WriteString("\nEstrutura e destaques:\n")
		if e.AreaM2 > 0 {
			fmt.Fprintf(&b, "Área total: %d m²\n", e.AreaM2)
		}
		writeList(&b, e.Structure)
	}
	if e.Organizer != "" {
		b.WriteString("\nOrganização:\n")
		fmt.Fprintf(&b, "Nome: %s\n", e.Organizer)
		if e.OrganizerPhone != "" {
			fmt.Fprintf(&b, "Telefone: %s\n", e.OrganizerPhone)
		}
		fmt.Fprintf(&b, "E-mail: %s\n", e.ContactEmail)
		fmt.Fprintf(&b, "Site: %s\n", e.Website)
	} else if e.ContactEmail != "" {
		fmt.Fprintf(&b, "Contato: %s / %s\n", e.ContactEmail, e.Website)
	}
	if len(e.Tickets) > 0 {
		b.WriteString("\nCategorias de ingresso e valores:\n")
		for _, cat := range e.Tickets {
			tiers := make([]string, 0, len(cat.Tiers))
			for _, t := range cat.Tiers {
				tiers = append(tiers, fmt.Sprintf("R$ %.2f (%s)", t.AmountBRL, t.Label))
			}
			fmt.Fprintf(&b, "- %s: %s\n", cat.Name, strings.Join(tiers, " / "))
		}
	}
	if len(e.TicketStatus) > 0 {
		b.WriteString("\nStatus de inscrições:\n")
		writeList(&b, e.TicketStatus)
	}
	if e.Cancellation != "" {
		fmt.Fprintf(&b, "\nPolítica de cancelamento:\n- %s\n", e.Cancellation)
	}
	if e.RegistrationHow != "" {
		fmt.Fprintf(&b, "\nProcesso de inscrição:\n%s\n", e.RegistrationHow)
	}
	if e.SpeakersNote != "" {
		fmt.Fprintf(&b, "\nPalestrantes:\n%s\n", e.SpeakersNote)
	}
	if len(e.Committee) > 0 {
		b.WriteString("\nComitê Técnico:\n")
		for _, m := range e.Committee {
			fmt.Fprintf(&b, "- %s (%s)\n", m.Name, m.Institution)
		}
	}
	if len(e.Sponsorship) > 0 {
		b.WriteString("\nPatrocínio:\n")
		writeList(&b, e.Sponsorship)
	}
	if e.UserAreaURL != "" {
		fmt.Fprintf(&b, "\nÁrea do usuário: %s\n", e.UserAreaURL)
		writeList(&b, e.UserAreaNotes)
	}
	if e.BotGuidance != "" {
		fmt.Fprintf(&b, "\nRecomendação: %s\n", e.BotGuidance)
	}
	return strings.TrimSpace(b.String())
}

func writeList(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
