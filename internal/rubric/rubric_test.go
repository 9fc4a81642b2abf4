package rubric

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const minimal = `
red_flags:
  - code: A
    severity: high
    reason: a
    keywords: [alpha]
question_templates: []
safe_guardrails: []
routing_policy: {}
`

func TestDefault(t *testing.T) {
	t.Parallel()

	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if r.Version != "2.0" {
		t.Errorf("version = %q, want 2.0", r.Version)
	}
	if len(r.RedFlags) != 25 {
		t.Errorf("red flags = %d, want 25", len(r.RedFlags))
	}
	if len(r.QuestionTemplates) != 6 {
		t.Errorf("question templates = %d, want 6", len(r.QuestionTemplates))
	}
	if len(r.SafeGuardrails) != 18 {
		t.Errorf("guardrails = %d, want 18", len(r.SafeGuardrails))
	}

	want := RoutingPolicy{Default: RoutingLegalReview, ConfidenceThreshold: 0.7, MissingInfoAction: RoutingLegalReview}
	if diff := cmp.Diff(want, r.RoutingPolicy); diff != "" {
		t.Errorf("routing policy (-want +got):\n%s", diff)
	}

	again, err := Default()
	if err != nil {
		t.Fatalf("Default (second call): %v", err)
	}
	if again != r {
		t.Error("Default returned a different rubric on the second call")
	}
}

func TestDefault_EveryFlagHasKeywords(t *testing.T) {
	t.Parallel()

	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, f := range r.RedFlags {
		if len(f.Keywords) == 0 {
			t.Errorf("%s has no keywords", f.Code)
		}
		if f.Reason == "" {
			t.Errorf("%s has no reason", f.Code)
		}
	}
}

func TestParse_PolicyDefaults(t *testing.T) {
	t.Parallel()

	r, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := RoutingPolicy{
		Default:             DefaultRouting,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MissingInfoAction:   DefaultMissingInfoAction,
	}
	if diff := cmp.Diff(want, r.RoutingPolicy); diff != "" {
		t.Errorf("routing policy (-want +got):\n%s", diff)
	}
}

func TestParse_ExplicitZeroThreshold(t *testing.T) {
	t.Parallel()

	doc := strings.Replace(minimal, "routing_policy: {}", "routing_policy: {confidence_threshold: 0, default: TYPE_2}", 1)
	r, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.RoutingPolicy.ConfidenceThreshold != 0 {
		t.Errorf("threshold = %v, want 0", r.RoutingPolicy.ConfidenceThreshold)
	}
	if r.RoutingPolicy.Default != RoutingGuardrails {
		t.Errorf("default = %q, want TYPE_2", r.RoutingPolicy.Default)
	}
}

func TestParse_OptionalFieldsBecomeEmpty(t *testing.T) {
	t.Parallel()

	doc := `
red_flags:
  - code: BARE
    severity: low
question_templates:
  - category: exposure
    question: who?
safe_guardrails: []
routing_policy: {}
`
	r, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.RedFlags[0].Keywords == nil || len(r.RedFlags[0].Keywords) != 0 {
		t.Errorf("keywords = %#v, want empty non-nil", r.RedFlags[0].Keywords)
	}
	q := r.QuestionTemplates[0]
	if q.TriggerIfUnknown {
		t.Error("trigger_if_unknown should default to false")
	}
	if q.TriggerIfContains == nil || q.Options == nil {
		t.Error("optional lists should be empty, not nil")
	}
}

func TestParse_JSON(t *testing.T) {
	t.Parallel()

	doc := `{"red_flags":[{"code":"X","severity":"critical","keywords":["x"],"reason":"r"}],
"question_templates":[],"safe_guardrails":[{"condition":"marketing","text":"t"}],
"routing_policy":{"default":"TYPE_1","confidence_threshold":0.5,"missing_info_action":"TYPE_2"}}`

	r, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &Rubric{
		RedFlags:          []RedFlag{{Code: "X", Keywords: []string{"x"}, Severity: SeverityCritical, Reason: "r"}},
		QuestionTemplates: []QuestionTemplate{},
		SafeGuardrails:    []Guardrail{{Condition: "marketing", Text: "t"}},
		RoutingPolicy:     RoutingPolicy{Default: RoutingLegalReview, ConfidenceThreshold: 0.5, MissingInfoAction: RoutingGuardrails},
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("rubric (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "malformed yaml",
			doc:     "red_flags: [",
			wantMsg: "decode",
		},
		{
			name:    "missing every key",
			doc:     "version: x\n",
			wantMsg: "missing required keys: red_flags, question_templates, safe_guardrails, routing_policy",
		},
		{
			name:    "missing routing policy",
			doc:     "red_flags: []\nquestion_templates: []\nsafe_guardrails: []\n",
			wantMsg: "missing required keys: routing_policy",
		},
		{
			name:    "red flags not a list",
			doc:     "red_flags: nope\nquestion_templates: []\nsafe_guardrails: []\nrouting_policy: {}\n",
			wantMsg: "decode",
		},
		{
			name:    "invalid severity",
			doc:     strings.Replace(minimal, "severity: high", "severity: urgent", 1),
			wantMsg: `invalid severity "urgent"`,
		},
		{
			name:    "empty keyword",
			doc:     strings.Replace(minimal, "[alpha]", `[alpha, "  "]`, 1),
			wantMsg: "keywords[1] is empty",
		},
		{
			name:    "missing code",
			doc:     strings.Replace(minimal, "code: A", "code: ''", 1),
			wantMsg: "code is required",
		},
		{
			name: "duplicate code",
			doc: strings.Replace(minimal, "question_templates: []",
				"  - code: A\n    severity: low\nquestion_templates: []", 1),
			wantMsg: `duplicate code "A"`,
		},
		{
			name:    "template without question",
			doc:     strings.Replace(minimal, "question_templates: []", "question_templates:\n  - category: exposure", 1),
			wantMsg: "question_templates[0]: category and question are required",
		},
		{
			name:    "guardrail without text",
			doc:     strings.Replace(minimal, "safe_guardrails: []", "safe_guardrails:\n  - condition: refund", 1),
			wantMsg: "safe_guardrails[0]: condition and text are required",
		},
		{
			name:    "invalid default routing",
			doc:     strings.Replace(minimal, "routing_policy: {}", "routing_policy: {default: TYPE_3}", 1),
			wantMsg: `routing_policy.default: invalid routing "TYPE_3"`,
		},
		{
			name:    "invalid missing info action",
			doc:     strings.Replace(minimal, "routing_policy: {}", "routing_policy: {missing_info_action: legal}", 1),
			wantMsg: "routing_policy.missing_info_action",
		},
		{
			name:    "threshold above one",
			doc:     strings.Replace(minimal, "routing_policy: {}", "routing_policy: {confidence_threshold: 1.5}", 1),
			wantMsg: "outside [0,1]",
		},
		{
			name:    "threshold wrong type",
			doc:     strings.Replace(minimal, "routing_policy: {}", "routing_policy: {confidence_threshold: high}", 1),
			wantMsg: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not a *ConfigError: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_FileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rubric.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Load(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(r.RedFlags) != 1 || r.RedFlags[0].Code != "A" {
		t.Errorf("red flags = %+v", r.RedFlags)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Load(context.Background(), FileSource{Path: path})

	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if ce.Source != path {
		t.Errorf("source = %q, want %q", ce.Source, path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped fs.ErrNotExist, got %v", err)
	}
}

func TestLoad_ParseErrorCarriesSource(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), BytesSource{Label: "inline", Data: []byte("version: 1\n")})

	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if ce.Source != "inline" {
		t.Errorf("source = %q, want inline", ce.Source)
	}
	if !strings.HasPrefix(err.Error(), "rubric: inline: ") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestLoad_EmptyBytes(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), BytesSource{Label: "empty"})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	r, err := Parse([]byte(strings.Replace(minimal, "safe_guardrails: []",
		"safe_guardrails:\n  - {condition: refund, text: r}\n  - {condition: marketing, text: m}", 1)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := r.Summary()
	want := Summary{
		RedFlags:          1,
		QuestionTemplates: 0,
		SafeGuardrails:    2,
		Codes:             []string{"A"},
		Conditions:        []string{"refund", "marketing"},
		RoutingPolicy:     r.RoutingPolicy,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}
}

func TestSeverity_Rank(t *testing.T) {
	t.Parallel()

	order := []Severity{"", SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%q.Rank() = %d, want > %q.Rank() = %d",
				order[i], order[i].Rank(), order[i-1], order[i-1].Rank())
		}
	}
	if got := Severity("severe").Rank(); got != 0 {
		t.Errorf("unknown severity rank = %d, want 0", got)
	}
}
