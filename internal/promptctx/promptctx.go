// Package promptctx assembles the system prompt from pluggable context
// providers.
//
// Each provider contributes one prioritized block of text (persona, event
// facts, registration flow guidance). The manager expands the requested
// logical context types to provider lists, invokes each provider, and
// concatenates the non-empty results in ascending priority order.
package promptctx

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/BioSummitBR/eventbot/internal/models"
)

// ContextResult is one provider's contribution to the system prompt.
// Lower priority sorts earlier in the final prompt.
type ContextResult struct {
	Content     string
	Priority    int
	SectionName string
	Metadata    map[string]any
}

// FormatSection renders the result as a prompt section. Results with a
// section name render as "\n\n[name]\ncontent", others as "\n\ncontent".
func (r ContextResult) FormatSection() string {
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return ""
	}
	if r.SectionName != "" {
		return fmt.Sprintf("\n\n%s\n%s", r.SectionName, content)
	}
	return "\n\n" + content
}

// Request carries the per-message inputs available to providers.
type Request struct {
	UserID      string
	MessageText string
	State       *models.ConversationState
	FlowHint    *models.FlowHint
}

// Provider contributes one block of context to the system prompt.
type Provider interface {
	// ContextType names the provider in the registry.
	ContextType() string
	// Priority orders the provider's output; lower sorts first.
	Priority() int
	// GetContext builds the provider's contribution, or nil when not applicable.
	GetContext(req Request) (*ContextResult, error)
}

// Manager holds the provider registry and builds system prompts.
type Manager struct {
	providers map[string]Provider
	order     []string
}

// NewManager registers the given providers. A duplicated context type
// replaces the earlier registration.
func NewManager(providers ...Provider) *Manager {
	m := &Manager{providers: make(map[string]Provider)}
	for _, p := range providers {
		m.Register(p)
	}
	slog.Info("Context manager initialized", "providers", m.order)
	return m
}

// Register adds or replaces a provider in the registry.
func (m *Manager) Register(p Provider) {
	name := p.ContextType()
	if _, exists := m.providers[name]; exists {
		slog.Warn("Replacing context provider", "contextType", name)
	} else {
		m.order = append(m.order, name)
	}
	m.providers[name] = p
}

// expansions maps each logical context type to the provider names it selects.
// The amigo persona replaces the base persona entirely.
var expansions = map[models.ContextType][]string{
	models.ContextDefault:      {"base", "event_info", "registration"},
	models.ContextEventInfo:    {"base", "event_info"},
	models.ContextRegistration: {"base", "registration"},
	models.ContextSupport:      {"base", "event_info"},
	models.ContextSales:        {"base", "event_info"},
	models.ContextAmigo:        {"amigo"},
	models.ContextCustom:       {"base"},
}

// BuildSystemPrompt expands the requested context types, invokes the selected
// providers, and concatenates their results in ascending priority order. A
// provider error is logged and skipped; it never aborts the whole prompt.
func (m *Manager) BuildSystemPrompt(contextTypes []models.ContextType, req Request) string {
	if len(contextTypes) == 0 {
		contextTypes = []models.ContextType{models.ContextDefault}
	}

	selected := m.selectProviders(contextTypes)

	var results []ContextResult
	for _, p := range selected {
		result, err := p.GetContext(req)
		if err != nil {
			slog.Error("Context provider failed, skipping", "contextType", p.ContextType(), "error", err)
			continue
		}
		if result != nil && strings.TrimSpace(result.Content) != "" {
			results = append(results, *result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Priority < results[j].Priority })

	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.FormatSection())
	}
	prompt := strings.TrimSpace(b.String())
	slog.Debug("System prompt built", "userID", req.UserID, "contextTypes", contextTypes, "sections", len(results))
	return prompt
}

// selectProviders expands each requested type and deduplicates the resulting
// provider list by identity, preserving first-seen order.
func (m *Manager) selectProviders(contextTypes []models.ContextType) []Provider {
	var selected []Provider
	seen := make(map[Provider]bool)
	for _, ct := range contextTypes {
		for _, name := range expansions[ct] {
			p, ok := m.providers[name]
			if !ok || seen[p] {
				continue
			}
			seen[p] = true
			selected = append(selected, p)
		}
	}
	return selected
}
