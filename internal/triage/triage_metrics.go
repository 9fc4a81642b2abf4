package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	TriagesTotal      *prometheus.CounterVec
	RoutingRuleTotal  *prometheus.CounterVec
	RedFlagsTotal     *prometheus.CounterVec
	TriageConfidence  prometheus.Histogram
	MissingQuestions  prometheus.Histogram
	Guardrails        prometheus.Histogram
	RejectedTotal     *prometheus.CounterVec
	SubmitsTotal      *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_triages_total",
			Help: "Total completed triages by routing and recommended next step.",
		}, []string{"routing", "next_step"}),
		RoutingRuleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_routing_rule_total",
			Help: "Routing decisions by the rule that fired.",
		}, []string{"rule"}),
		RedFlagsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_red_flags_total",
			Help: "Detected red flags by code and severity.",
		}, []string{"code", "severity"}),
		TriageConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "counsel_triage_confidence",
			Help:    "Confidence of completed triages.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10), // 0.1 .. 1.0
		}),
		MissingQuestions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "counsel_missing_questions",
			Help:    "Clarifying questions asked per triage.",
			Buckets: prometheus.LinearBuckets(0, 1, 8), // 0 .. 7
		}),
		Guardrails: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "counsel_guardrails",
			Help:    "Guardrails applied per triage.",
			Buckets: prometheus.LinearBuckets(0, 2, 10), // 0 .. 18
		}),
		RejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_triage_rejected_total",
			Help: "Inputs rejected before evaluation, by offending field.",
		}, []string{"reason"}),
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_submits_total",
			Help: "Total triage submissions by result.",
		}, []string{"result"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counsel_legal_notifications_total",
			Help: "Legal review notifications by outcome.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.RoutingRuleTotal,
		m.RedFlagsTotal,
		m.TriageConfidence,
		m.MissingQuestions,
		m.Guardrails,
		m.RejectedTotal,
		m.SubmitsTotal,
		m.NotificationsSent,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnComplete: func(e *CompleteEvent) {
			m.TriagesTotal.WithLabelValues(string(e.Routing), string(e.NextStep)).Inc()
			m.RoutingRuleTotal.WithLabelValues(e.Rule).Inc()
			for _, f := range e.RedFlags {
				m.RedFlagsTotal.WithLabelValues(f.Code, string(f.Severity)).Inc()
			}
			m.TriageConfidence.Observe(e.Confidence)
			m.MissingQuestions.Observe(float64(e.Questions))
			m.Guardrails.Observe(float64(e.Guardrails))
		},
		OnRejected: func(reason string) {
			m.RejectedTotal.WithLabelValues(reason).Inc()
		},
	}
}
