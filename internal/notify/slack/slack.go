// Package slack sends legal review requests to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/counsel/internal/rubric"
	"github.com/linnemanlabs/counsel/internal/triage"
)

const (
	maxSectionLen = 2900
	httpTimeout   = 10 * time.Second
)

// Notifier posts triage results to a Slack webhook. It satisfies
// triage.Notifier. The original description is never included.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Send posts a triage result to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, id string, result *triage.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(id, result))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "slack notification sent", "id", id, "input_hash", result.InputHash)
	return nil
}

func buildMessage(id string, r *triage.Result) map[string]any {
	return map[string]any{
		"text": fmt.Sprintf("Legal review requested: %s (%s)", r.Routing, r.InputHash),
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			listBlock("Red flags", flagLines(r.RedFlags)),
			listBlock("Missing information", r.MissingInfoQuestions),
			listBlock("Guardrails", r.SafeGuardrails),
			{"type": "divider"},
			contextBlock(id, r),
		},
	}
}

func headerBlock(r *triage.Result) map[string]any {
	title := "Legal Review Requested"
	if r.RecommendedNextStep == triage.NextProceedWithGuardrails {
		title = "Proceed With Guardrails"
	}
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s", severityEmoji(r), title),
		},
	}
}

func fieldsBlock(r *triage.Result) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Routing:* %s", r.Routing),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Confidence:* %.2f", r.Confidence),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Next step:* %s", r.RecommendedNextStep),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Highest severity:* %s", highestSeverity(r)),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func listBlock(title string, lines []string) map[string]any {
	text := "_None._"
	if len(lines) > 0 {
		var b strings.Builder
		for _, l := range lines {
			b.WriteString("• ")
			b.WriteString(escape(l))
			b.WriteByte('\n')
		}
		text = truncate(strings.TrimSuffix(b.String(), "\n"), maxSectionLen)
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*%s*\n%s", title, text),
		},
	}
}

func flagLines(flags []triage.DetectedRedFlag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, fmt.Sprintf("%s [%s] %s", f.Code, f.Severity, f.Reason))
	}
	return out
}

func contextBlock(id string, r *triage.Result) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("counsel • triage %s • input %s • %s", id, r.InputHash, r.Timestamp),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

// highestSeverity returns the most severe detected flag, or "none".
func highestSeverity(r *triage.Result) string {
	var best rubric.Severity
	for _, f := range r.RedFlags {
		if f.Severity.Rank() > best.Rank() {
			best = f.Severity
		}
	}
	if best == "" {
		return "none"
	}
	return string(best)
}

func severityEmoji(r *triage.Result) string {
	switch rubric.Severity(highestSeverity(r)) {
	case rubric.SeverityCritical, rubric.SeverityHigh:
		return "\U0001f534" // red circle
	case rubric.SeverityMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return mrkdwnEscaper.Replace(s)
}

// truncate shortens s to at most limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
