package triage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectRedFlags_DefaultRubric(t *testing.T) {
	t.Parallel()

	rb := defaultRubric(t)

	got := DetectRedFlags("BOTOX 시술 50% 할인", rb)
	want := []DetectedRedFlag{
		{
			Code:            "PRICE_DISCOUNT_EVENT",
			Reason:          rb.RedFlags[indexOf(t, rb.RedFlags, "PRICE_DISCOUNT_EVENT")].Reason,
			MatchedKeywords: []string{"할인"},
			Severity:        "medium",
		},
		{
			Code:            "PROCEDURE_MENTION",
			Reason:          rb.RedFlags[indexOf(t, rb.RedFlags, "PROCEDURE_MENTION")].Reason,
			MatchedKeywords: []string{"시술", "botox"},
			Severity:        "medium",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("flags (-want +got):\n%s", diff)
	}
}

func TestDetectRedFlags_Cases(t *testing.T) {
	t.Parallel()

	rb := parseRubric(t, `
red_flags:
  - code: CASE
    severity: high
    reason: mixed case keyword
    keywords: [BoTox, Filler]
  - code: SUBSTR
    severity: low
    reason: short keyword
    keywords: [ad]
  - code: KOREAN
    severity: medium
    reason: hangul
    keywords: [할인, 이벤트]
question_templates: []
safe_guardrails: []
routing_policy: {}
`)

	tests := []struct {
		name string
		text string
		want map[string][]string
	}{
		{
			name: "no match",
			text: "rename the settings button",
			want: map[string][]string{},
		},
		{
			name: "case insensitive keeps declared casing",
			text: "I LOVE botox",
			want: map[string][]string{"CASE": {"BoTox"}},
		},
		{
			name: "only matched subset in declared order",
			text: "filler then BOTOX",
			want: map[string][]string{"CASE": {"BoTox", "Filler"}},
		},
		{
			name: "substring inside a larger word",
			text: "we advance the roadmap",
			want: map[string][]string{"SUBSTR": {"ad"}},
		},
		{
			name: "several rules at once",
			text: "보톡스 이벤트 할인 for botox, read the AD",
			want: map[string][]string{
				"CASE":   {"BoTox"},
				"SUBSTR": {"ad"},
				"KOREAN": {"할인", "이벤트"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DetectRedFlags(tt.text, rb)
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			gotMap := make(map[string][]string, len(got))
			for _, f := range got {
				gotMap[f.Code] = f.MatchedKeywords
			}
			if diff := cmp.Diff(tt.want, gotMap); diff != "" {
				t.Errorf("matches (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectRedFlags_RubricOrder(t *testing.T) {
	t.Parallel()

	rb := defaultRubric(t)
	got := DetectRedFlags("할인 이벤트로 주민등록번호를 수집", rb)

	var codes []string
	for _, f := range got {
		codes = append(codes, f.Code)
	}
	want := []string{"PII_COLLECTION", "PRICE_DISCOUNT_EVENT"}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Errorf("codes (-want +got):\n%s", diff)
	}
}

func TestDetectRedFlags_EmptyKeywordNeverMatches(t *testing.T) {
	t.Parallel()

	if containsFold("anything", "") {
		t.Error("empty keyword matched")
	}
}
