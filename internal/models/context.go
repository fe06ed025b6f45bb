package models

import (
	"fmt"
	"strings"
)

// ContextType names a logical prompt composition requested by a caller. Each
// type expands to a fixed list of context providers (see promptctx).
type ContextType string

const (
	// ContextDefault combines the base persona, event info, and registration flow.
	ContextDefault ContextType = "default"
	// ContextEventInfo answers event FAQ only.
	ContextEventInfo ContextType = "event_info"
	// ContextRegistration focuses on the registration flow.
	ContextRegistration ContextType = "registration"
	// ContextSupport is the support persona (no registration flow).
	ContextSupport ContextType = "support"
	// ContextSales is the commercial persona (no registration flow).
	ContextSales ContextType = "sales"
	// ContextCustom is base persona only, for future extension.
	ContextCustom ContextType = "custom"
	// ContextAmigo is the casual validation persona; it replaces the base persona.
	ContextAmigo ContextType = "amigo"
)

// validContextTypes is the closed set accepted by ParseContextTypes.
var validContextTypes = map[ContextType]bool{
	ContextDefault:      true,
	ContextEventInfo:    true,
	ContextRegistration: true,
	ContextSupport:      true,
	ContextSales:        true,
	ContextCustom:       true,
	ContextAmigo:        true,
}

// ParseContextTypes parses a comma-separated context type string. An empty
// string yields the default context. Unknown names are rejected.
func ParseContextTypes(raw string) ([]ContextType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []ContextType{ContextDefault}, nil
	}
	var types []ContextType
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		ct := ContextType(part)
		if !validContextTypes[ct] {
			return nil, fmt.Errorf("invalid context type %q", part)
		}
		types = append(types, ct)
	}
	if len(types) == 0 {
		return []ContextType{ContextDefault}, nil
	}
	return types, nil
}
