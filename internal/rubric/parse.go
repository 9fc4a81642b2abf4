package rubric

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigError reports a rubric that could not be read or is malformed.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return "rubric: " + e.Err.Error()
	}
	return fmt.Sprintf("rubric: %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// document mirrors the on-disk layout. Required sections are pointers so a
// missing key can be told apart from an empty list.
type document struct {
	Version           string            `yaml:"version"`
	RedFlags          *[]redFlagDoc     `yaml:"red_flags"`
	QuestionTemplates *[]questionDoc    `yaml:"question_templates"`
	SafeGuardrails    *[]guardrailDoc   `yaml:"safe_guardrails"`
	RoutingPolicy     *routingPolicyDoc `yaml:"routing_policy"`
}

type redFlagDoc struct {
	Code     string   `yaml:"code"`
	Keywords []string `yaml:"keywords"`
	Severity string   `yaml:"severity"`
	Reason   string   `yaml:"reason"`
}

type questionDoc struct {
	Category          string   `yaml:"category"`
	Question          string   `yaml:"question"`
	Options           []string `yaml:"options"`
	TriggerIfUnknown  bool     `yaml:"trigger_if_unknown"`
	TriggerIfContains []string `yaml:"trigger_if_contains"`
}

type guardrailDoc struct {
	Condition string `yaml:"condition"`
	Text      string `yaml:"text"`
}

type routingPolicyDoc struct {
	Default             string   `yaml:"default"`
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`
	MissingInfoAction   string   `yaml:"missing_info_action"`
}

// Parse decodes and validates a rubric document. JSON documents are accepted
// since they are valid YAML. All failures are returned as *ConfigError.
func Parse(data []byte) (*Rubric, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("decode: %w", err)}
	}
	r, err := doc.build()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return r, nil
}

func (d *document) build() (*Rubric, error) {
	var missing []string
	if d.RedFlags == nil {
		missing = append(missing, "red_flags")
	}
	if d.QuestionTemplates == nil {
		missing = append(missing, "question_templates")
	}
	if d.SafeGuardrails == nil {
		missing = append(missing, "safe_guardrails")
	}
	if d.RoutingPolicy == nil {
		missing = append(missing, "routing_policy")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}

	var errs []error

	flags := make([]RedFlag, 0, len(*d.RedFlags))
	seen := make(map[string]int, len(*d.RedFlags))
	for i, f := range *d.RedFlags {
		if f.Code == "" {
			errs = append(errs, fmt.Errorf("red_flags[%d]: code is required", i))
			continue
		}
		if j, dup := seen[f.Code]; dup {
			errs = append(errs, fmt.Errorf("red_flags[%d]: duplicate code %q (first at %d)", i, f.Code, j))
			continue
		}
		seen[f.Code] = i

		sev := Severity(f.Severity)
		if !sev.Valid() {
			errs = append(errs, fmt.Errorf("red_flags[%d] %s: invalid severity %q", i, f.Code, f.Severity))
		}
		for k, kw := range f.Keywords {
			if strings.TrimSpace(kw) == "" {
				errs = append(errs, fmt.Errorf("red_flags[%d] %s: keywords[%d] is empty", i, f.Code, k))
			}
		}
		flags = append(flags, RedFlag{
			Code:     f.Code,
			Keywords: nonNil(f.Keywords),
			Severity: sev,
			Reason:   f.Reason,
		})
	}

	templates := make([]QuestionTemplate, 0, len(*d.QuestionTemplates))
	for i, q := range *d.QuestionTemplates {
		if q.Category == "" || q.Question == "" {
			errs = append(errs, fmt.Errorf("question_templates[%d]: category and question are required", i))
			continue
		}
		templates = append(templates, QuestionTemplate{
			Category:          q.Category,
			Question:          q.Question,
			Options:           nonNil(q.Options),
			TriggerIfUnknown:  q.TriggerIfUnknown,
			TriggerIfContains: nonNil(q.TriggerIfContains),
		})
	}

	guardrails := make([]Guardrail, 0, len(*d.SafeGuardrails))
	for i, g := range *d.SafeGuardrails {
		if g.Condition == "" || g.Text == "" {
			errs = append(errs, fmt.Errorf("safe_guardrails[%d]: condition and text are required", i))
			continue
		}
		guardrails = append(guardrails, Guardrail{Condition: g.Condition, Text: g.Text})
	}

	policy, err := d.RoutingPolicy.build()
	if err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Rubric{
		Version:           d.Version,
		RedFlags:          flags,
		QuestionTemplates: templates,
		SafeGuardrails:    guardrails,
		RoutingPolicy:     policy,
	}, nil
}

func (p *routingPolicyDoc) build() (RoutingPolicy, error) {
	out := RoutingPolicy{
		Default:             DefaultRouting,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MissingInfoAction:   DefaultMissingInfoAction,
	}
	var errs []error
	if p.Default != "" {
		out.Default = Routing(p.Default)
		if !out.Default.Valid() {
			errs = append(errs, fmt.Errorf("routing_policy.default: invalid routing %q", p.Default))
		}
	}
	if p.MissingInfoAction != "" {
		out.MissingInfoAction = Routing(p.MissingInfoAction)
		if !out.MissingInfoAction.Valid() {
			errs = append(errs, fmt.Errorf("routing_policy.missing_info_action: invalid routing %q", p.MissingInfoAction))
		}
	}
	if p.ConfidenceThreshold != nil {
		t := *p.ConfidenceThreshold
		if t < 0 || t > 1 {
			errs = append(errs, fmt.Errorf("routing_policy.confidence_threshold: %v is outside [0,1]", t))
		}
		out.ConfidenceThreshold = t
	}
	return out, errors.Join(errs...)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
