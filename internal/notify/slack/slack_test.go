package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/counsel/internal/rubric"
	"github.com/linnemanlabs/counsel/internal/triage"
)

func sampleResult() *triage.Result {
	return &triage.Result{
		Routing:    rubric.RoutingLegalReview,
		Confidence: 0.95,
		RedFlags: []triage.DetectedRedFlag{
			{Code: "PRICE_DISCOUNT_EVENT", Severity: rubric.SeverityMedium, Reason: "discount", MatchedKeywords: []string{"할인"}},
			{Code: "PII_COLLECTION", Severity: rubric.SeverityCritical, Reason: "personal data", MatchedKeywords: []string{"개인정보"}},
		},
		MissingInfoQuestions: []string{"Who will see this?"},
		SafeGuardrails:       []string{"State the refund policy <clearly> & visibly."},
		RecommendedNextStep:  triage.NextLegalReview,
		Timestamp:            "2026-03-01T01:02:03.456Z",
		InputHash:            "ba7816bf8f01cfea",
	}
}

func TestSend_PostsToWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	if err := n.Send(context.Background(), "01JN123", sampleResult()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	blocks, ok := got["blocks"].([]any)
	if !ok {
		t.Fatal("expected blocks array in payload")
	}

	// header, divider, fields, divider, flags, questions, guardrails, divider, context
	if len(blocks) != 9 {
		t.Errorf("blocks count = %d, want 9", len(blocks))
	}

	header := blocks[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "Legal Review Requested") {
		t.Errorf("header text = %q", headerText)
	}
	if !strings.Contains(headerText, "\U0001f534") {
		t.Errorf("header should contain red circle for a critical flag")
	}

	flags := blocks[4].(map[string]any)["text"].(map[string]any)["text"].(string)
	if !strings.Contains(flags, "PII_COLLECTION [critical]") {
		t.Errorf("flags section = %q", flags)
	}

	guardrails := blocks[6].(map[string]any)["text"].(map[string]any)["text"].(string)
	if !strings.Contains(guardrails, "&lt;clearly&gt; &amp; visibly") {
		t.Errorf("guardrails section not escaped: %q", guardrails)
	}

	ctxText := blocks[8].(map[string]any)["elements"].([]any)[0].(map[string]any)["text"].(string)
	if !strings.Contains(ctxText, "01JN123") || !strings.Contains(ctxText, "ba7816bf8f01cfea") {
		t.Errorf("context = %q, want id and input hash", ctxText)
	}
}

func TestSend_NoOpWithoutURL(t *testing.T) {
	t.Parallel()

	n := New("", log.Nop())
	if err := n.Send(context.Background(), "id", &triage.Result{}); err != nil {
		t.Fatalf("Send with empty URL should be no-op, got: %v", err)
	}
}

func TestSend_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	n := New(srv.URL, nil)
	err := n.Send(context.Background(), "01JN789", sampleResult())
	if err == nil {
		t.Fatal("expected error on non-OK status")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %q, want to contain status code 500", err.Error())
	}
}

func TestBuildMessage_EmptyListsSayNone(t *testing.T) {
	t.Parallel()

	msg := buildMessage("id", &triage.Result{Routing: rubric.RoutingGuardrails, RecommendedNextStep: triage.NextProceedWithGuardrails})
	blocks := msg["blocks"].([]map[string]any)

	for _, i := range []int{4, 5, 6} {
		text := blocks[i]["text"].(map[string]any)["text"].(string)
		if !strings.HasSuffix(text, "_None._") {
			t.Errorf("block %d = %q, want _None._", i, text)
		}
	}
	header := blocks[0]["text"].(map[string]any)["text"].(string)
	if !strings.Contains(header, "Proceed With Guardrails") || !strings.Contains(header, "\U0001f7e2") {
		t.Errorf("header = %q", header)
	}
}

func TestHighestSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sevs []rubric.Severity
		want string
	}{
		{"none", nil, "none"},
		{"low only", []rubric.Severity{rubric.SeverityLow}, "low"},
		{"medium beats low", []rubric.Severity{rubric.SeverityLow, rubric.SeverityMedium}, "medium"},
		{"critical anywhere", []rubric.Severity{rubric.SeverityMedium, rubric.SeverityCritical, rubric.SeverityHigh}, "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &triage.Result{}
			for _, s := range tt.sevs {
				r.RedFlags = append(r.RedFlags, triage.DetectedRedFlag{Severity: s})
			}
			if got := highestSeverity(r); got != tt.want {
				t.Errorf("highestSeverity = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	t.Parallel()

	s := strings.Repeat("할", 10)
	got := truncate(s, 5)
	if got != "할할..." {
		t.Errorf("truncate = %q", got)
	}
	if truncate("short", 10) != "short" {
		t.Error("short strings must pass through")
	}
}

func FuzzSlackBuild(f *testing.F) {
	f.Add("CODE", "critical", "reason", "question?", "guardrail")
	f.Add("", "", "", "", "")
	f.Add("<@U123> mention", "medium", "*bold* _italic_ ~strike~", "```q```", "<http://example.com|link>")
	f.Add("code\x00\x01", "sev\nline", "reason\ttab", "질문", "환불 규정")
	f.Add(strings.Repeat("A", 5000), "high", strings.Repeat("x", 10000), strings.Repeat("q", 4000), "g")

	f.Fuzz(func(t *testing.T, code, severity, reason, question, guardrail string) {
		result := &triage.Result{
			Routing:              rubric.RoutingLegalReview,
			Confidence:           0.6,
			RedFlags:             []triage.DetectedRedFlag{{Code: code, Severity: rubric.Severity(severity), Reason: reason}},
			MissingInfoQuestions: []string{question},
			SafeGuardrails:       []string{guardrail},
			RecommendedNextStep:  triage.NextLegalReview,
		}

		data, err := json.Marshal(buildMessage("fuzz-id", result))
		if err != nil {
			t.Fatalf("buildMessage produced non-marshalable output: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("buildMessage JSON does not round-trip: %v", err)
		}
		blocks, ok := decoded["blocks"].([]any)
		if !ok || len(blocks) != 9 {
			t.Fatalf("blocks = %v, want 9", len(blocks))
		}
	})
}
