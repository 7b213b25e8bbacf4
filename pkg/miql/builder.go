package miql

import (
	"fmt"
	"strings"
)

// QueryBuilder constructs MIQL query strings for the interaction data
// services. All methods are pure functions with no side effects.
// Zero value is ready to use.
type QueryBuilder struct{}

// InteractionParams defines inputs for interaction lookup queries.
type InteractionParams struct {
	Identifiers     []string
	Species         string
	DetectionMethod string
	InteractionType string
}

// BuildInteractionQuery returns a MIQL query selecting interactions for the
// given identifiers, optionally narrowed by species, detection method and
// interaction type. Identifiers are OR'ed together; field filters are AND'ed.
func (b QueryBuilder) BuildInteractionQuery(p InteractionParams) string {
	var parts []string

	if idClause := b.buildIdentifierClause(p.Identifiers); idClause != "" {
		parts = append(parts, idClause)
	}
	if p.Species != "" {
		parts = append(parts, b.field("species", p.Species))
	}
	if p.DetectionMethod != "" {
		parts = append(parts, b.field("detmethod", p.DetectionMethod))
	}
	if p.InteractionType != "" {
		parts = append(parts, b.field("type", p.InteractionType))
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " AND ")
}

func (b QueryBuilder) buildIdentifierClause(identifiers []string) string {
	if len(identifiers) == 0 {
		return ""
	}
	terms := make([]string, len(identifiers))
	for i, id := range identifiers {
		terms[i] = b.field("identifier", id)
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// field renders a field:value term, quoting values that contain whitespace
// or MIQL metacharacters (MI ontology terms carry a colon).
func (b QueryBuilder) field(name, value string) string {
	if strings.ContainsAny(value, " \t:()") {
		return fmt.Sprintf(`%s:"%s"`, name, value)
	}
	return fmt.Sprintf("%s:%s", name, value)
}
