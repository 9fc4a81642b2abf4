// Package rubric loads the declarative rule set that drives legal triage:
// red-flag keyword sets, clarifying question templates, guardrail texts and
// the routing policy. A loaded Rubric is immutable and shared by every
// triage call for the lifetime of the process.
package rubric

// Severity ranks how dangerous a red flag is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rank orders severities from low (1) to critical (4). Unknown severities
// rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Routing is the bucket a description is sent to.
type Routing string

const (
	// RoutingLegalReview (TYPE_1) requires formal legal review.
	RoutingLegalReview Routing = "TYPE_1"

	// RoutingGuardrails (TYPE_2) may proceed under the prescribed guardrails.
	RoutingGuardrails Routing = "TYPE_2"
)

// Valid reports whether r is TYPE_1 or TYPE_2.
func (r Routing) Valid() bool {
	return r == RoutingLegalReview || r == RoutingGuardrails
}

// RedFlag is a keyword set that marks a description as risky.
type RedFlag struct {
	Code     string   `json:"code"`
	Keywords []string `json:"keywords"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
}

// QuestionTemplate is a clarifying question asked when a contextual field is
// unknown or when the description mentions one of the trigger keywords.
type QuestionTemplate struct {
	Category          string   `json:"category"`
	Question          string   `json:"question"`
	Options           []string `json:"options,omitempty"`
	TriggerIfUnknown  bool     `json:"trigger_if_unknown"`
	TriggerIfContains []string `json:"trigger_if_contains,omitempty"`
}

// Guardrail is a safety statement applied when its named condition holds.
type Guardrail struct {
	Condition string `json:"condition"`
	Text      string `json:"text"`
}

// RoutingPolicy holds the constants the routing cascade defers to.
type RoutingPolicy struct {
	Default             Routing `json:"default"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	MissingInfoAction   Routing `json:"missing_info_action"`
}

// Policy defaults used when routing_policy omits a field.
const (
	DefaultRouting             = RoutingLegalReview
	DefaultConfidenceThreshold = 0.7
	DefaultMissingInfoAction   = RoutingLegalReview
)

// Rubric is the full rule set. Callers must treat it as read-only.
type Rubric struct {
	Version           string             `json:"version,omitempty"`
	RedFlags          []RedFlag          `json:"red_flags"`
	QuestionTemplates []QuestionTemplate `json:"question_templates"`
	SafeGuardrails    []Guardrail        `json:"safe_guardrails"`
	RoutingPolicy     RoutingPolicy      `json:"routing_policy"`
}

// Summary is an operator-facing digest of a rubric.
type Summary struct {
	Version           string        `json:"version,omitempty"`
	RedFlags          int           `json:"red_flags"`
	QuestionTemplates int           `json:"question_templates"`
	SafeGuardrails    int           `json:"safe_guardrails"`
	Codes             []string      `json:"codes"`
	Conditions        []string      `json:"conditions"`
	RoutingPolicy     RoutingPolicy `json:"routing_policy"`
}

// Summary returns counts, flag codes and guardrail conditions in declaration order.
func (r *Rubric) Summary() Summary {
	codes := make([]string, 0, len(r.RedFlags))
	for _, f := range r.RedFlags {
		codes = append(codes, f.Code)
	}
	conds := make([]string, 0, len(r.SafeGuardrails))
	for _, g := range r.SafeGuardrails {
		conds = append(conds, g.Condition)
	}
	return Summary{
		Version:           r.Version,
		RedFlags:          len(r.RedFlags),
		QuestionTemplates: len(r.QuestionTemplates),
		SafeGuardrails:    len(r.SafeGuardrails),
		Codes:             codes,
		Conditions:        conds,
		RoutingPolicy:     r.RoutingPolicy,
	}
}
