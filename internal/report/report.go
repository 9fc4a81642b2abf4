// Package report renders triage results for terminals, scripts and logs.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/linnemanlabs/counsel/internal/rubric"
	"github.com/linnemanlabs/counsel/internal/triage"
)

// Options controls human-readable rendering.
type Options struct {
	// Color enables ANSI styling. The terminal's color profile still
	// applies, so piped output stays plain.
	Color bool
}

const labelWidth = 12

type styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Severity map[rubric.Severity]lipgloss.Style
	Routing  map[rubric.Routing]lipgloss.Style
}

func newStyles(color bool) styles {
	plain := lipgloss.NewStyle()
	if !color {
		return styles{
			Title:    plain,
			Label:    plain.Width(labelWidth),
			Muted:    plain,
			Severity: map[rubric.Severity]lipgloss.Style{},
			Routing:  map[rubric.Routing]lipgloss.Style{},
		}
	}
	return styles{
		Title: plain.Bold(true).Underline(true),
		Label: plain.Bold(true).Width(labelWidth),
		Muted: plain.Foreground(lipgloss.Color("#8a8f98")),
		Severity: map[rubric.Severity]lipgloss.Style{
			rubric.SeverityCritical: plain.Bold(true).Foreground(lipgloss.Color("#e53935")),
			rubric.SeverityHigh:     plain.Foreground(lipgloss.Color("#ff7043")),
			rubric.SeverityMedium:   plain.Foreground(lipgloss.Color("#ffc107")),
			rubric.SeverityLow:      plain.Foreground(lipgloss.Color("#2196f3")),
		},
		Routing: map[rubric.Routing]lipgloss.Style{
			rubric.RoutingLegalReview: plain.Bold(true).Foreground(lipgloss.Color("#e53935")),
			rubric.RoutingGuardrails:  plain.Bold(true).Foreground(lipgloss.Color("#8bc34a")),
		},
	}
}

func (s styles) severity(sev rubric.Severity) lipgloss.Style {
	if st, ok := s.Severity[sev]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

func (s styles) routing(r rubric.Routing) lipgloss.Style {
	if st, ok := s.Routing[r]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// Human renders r as a multi-section report for people reading a terminal.
func Human(r *triage.Result, opts Options) string {
	st := newStyles(opts.Color)
	var b strings.Builder

	field := func(label, value string) {
		b.WriteString(st.Label.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	field("Routing", st.routing(r.Routing).Render(fmt.Sprintf("%s (%s)", r.Routing, routingLabel(r.Routing))))
	field("Confidence", fmt.Sprintf("%.2f", r.Confidence))
	field("Next step", string(r.RecommendedNextStep))
	field("Input hash", st.Muted.Render(r.InputHash))
	field("Timestamp", st.Muted.Render(r.Timestamp))

	section := func(title string, n int) {
		b.WriteByte('\n')
		b.WriteString(st.Title.Render(fmt.Sprintf("%s (%d)", title, n)))
		b.WriteByte('\n')
		if n == 0 {
			b.WriteString("  ")
			b.WriteString(st.Muted.Render("none"))
			b.WriteByte('\n')
		}
	}

	section("Red flags", len(r.RedFlags))
	for _, f := range r.RedFlags {
		sev := st.severity(f.Severity).Render(fmt.Sprintf("[%s]", f.Severity))
		fmt.Fprintf(&b, "  %s %s  %s\n", sev, f.Code, f.Reason)
		if len(f.MatchedKeywords) > 0 {
			fmt.Fprintf(&b, "      %s\n", st.Muted.Render("matched: "+strings.Join(f.MatchedKeywords, ", ")))
		}
	}

	section("Missing information", len(r.MissingInfoQuestions))
	for i, q := range r.MissingInfoQuestions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, q)
	}

	section("Guardrails", len(r.SafeGuardrails))
	for _, g := range r.SafeGuardrails {
		fmt.Fprintf(&b, "  - %s\n", g)
	}

	return b.String()
}

func routingLabel(r rubric.Routing) string {
	switch r {
	case rubric.RoutingLegalReview:
		return "legal review"
	case rubric.RoutingGuardrails:
		return "proceed with guardrails"
	}
	return "unknown"
}

// JSON encodes r for machine consumers. Empty lists encode as [].
func JSON(r *triage.Result, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}

// Summary renders r on one line, e.g.
// "[TYPE_1] confidence=0.95 flags=PII_COLLECTION next=LEGAL_REVIEW".
func Summary(r *triage.Result) string {
	flags := "none"
	if codes := r.FlagCodes(); len(codes) > 0 {
		flags = strings.Join(codes, ",")
	}
	return fmt.Sprintf("[%s] confidence=%.2f flags=%s next=%s",
		r.Routing, r.Confidence, flags, r.RecommendedNextStep)
}
