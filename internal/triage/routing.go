package triage

import "github.com/linnemanlabs/counsel/internal/rubric"

// Routing confidences. These values are part of the classification contract.
const (
	ConfidenceCritical       = 0.95
	ConfidenceHigh           = 0.85
	ConfidenceMissingInfo    = 0.6
	ConfidenceExternalMedium = 0.75
	ConfidenceMedium         = 0.65
	ConfidenceClean          = 0.9
	ConfidenceFallback       = 0.5

	// QuestionDecay is subtracted per open question when no flag matched.
	QuestionDecay = 0.15

	// MissingInfoQuestionLimit is the question count at which missing
	// information alone decides the routing.
	MissingInfoQuestionLimit = 2

	// ProceedConfidenceFloor is the minimum TYPE_2 confidence to proceed
	// without legal review. Independent of the rubric threshold.
	ProceedConfidenceFloor = 0.8
)

// Decision is a routing outcome together with the rule that produced it.
type Decision struct {
	Routing    rubric.Routing
	Confidence float64
	Rule       string
}

// routeFacts is the summary of a triage the routing rules look at.
type routeFacts struct {
	critical  bool
	high      bool
	medium    bool
	flags     int
	questions int
	comm      ExternalCommunication
	policy    rubric.RoutingPolicy
}

// routeRule fires when `when` holds; `then` computes the decision.
type routeRule struct {
	name string
	when func(*routeFacts) bool
	then func(*routeFacts) (rubric.Routing, float64)
}

// routeTable is evaluated top-down; the first matching rule wins.
var routeTable = []routeRule{
	{
		name: "critical_flag",
		when: func(f *routeFacts) bool { return f.critical },
		then: fixed(rubric.RoutingLegalReview, ConfidenceCritical),
	},
	{
		name: "high_flag",
		when: func(f *routeFacts) bool { return f.high },
		then: fixed(rubric.RoutingLegalReview, ConfidenceHigh),
	},
	{
		name: "missing_info",
		when: func(f *routeFacts) bool { return f.questions >= MissingInfoQuestionLimit },
		then: func(f *routeFacts) (rubric.Routing, float64) {
			return f.policy.MissingInfoAction, ConfidenceMissingInfo
		},
	},
	{
		name: "external_medium",
		when: func(f *routeFacts) bool {
			return f.medium && (f.comm == CommMedia || f.comm == CommCustomerFacing)
		},
		then: fixed(rubric.RoutingLegalReview, ConfidenceExternalMedium),
	},
	{
		name: "medium_flag",
		when: func(f *routeFacts) bool { return f.medium },
		then: func(f *routeFacts) (rubric.Routing, float64) {
			return thresholded(ConfidenceMedium, f.policy.ConfidenceThreshold)
		},
	},
	{
		name: "clean",
		when: func(f *routeFacts) bool { return f.flags == 0 && f.questions == 0 },
		then: fixed(rubric.RoutingGuardrails, ConfidenceClean),
	},
	{
		name: "missing_only",
		when: func(f *routeFacts) bool { return f.flags == 0 && f.questions > 0 },
		then: func(f *routeFacts) (rubric.Routing, float64) {
			return thresholded(1-QuestionDecay*float64(f.questions), f.policy.ConfidenceThreshold)
		},
	},
	{
		name: "fallback",
		when: func(*routeFacts) bool { return true },
		then: func(f *routeFacts) (rubric.Routing, float64) {
			return f.policy.Default, ConfidenceFallback
		},
	},
}

func fixed(r rubric.Routing, c float64) func(*routeFacts) (rubric.Routing, float64) {
	return func(*routeFacts) (rubric.Routing, float64) { return r, c }
}

// thresholded routes to legal review when confidence is below the threshold.
func thresholded(confidence, threshold float64) (rubric.Routing, float64) {
	if confidence < threshold {
		return rubric.RoutingLegalReview, confidence
	}
	return rubric.RoutingGuardrails, confidence
}

// Route decides the routing and confidence for a triage.
func Route(flags []DetectedRedFlag, questions []string, in *Input, policy rubric.RoutingPolicy) Decision {
	f := &routeFacts{
		flags:     len(flags),
		questions: len(questions),
		comm:      in.ExternalCommunication,
		policy:    policy,
	}
	for _, fl := range flags {
		switch fl.Severity {
		case rubric.SeverityCritical:
			f.critical = true
		case rubric.SeverityHigh:
			f.high = true
		case rubric.SeverityMedium:
			f.medium = true
		}
	}

	for _, rule := range routeTable {
		if !rule.when(f) {
			continue
		}
		routing, confidence := rule.then(f)
		return Decision{Routing: routing, Confidence: clamp(confidence), Rule: rule.name}
	}
	// unreachable: the fallback rule always matches
	return Decision{Routing: policy.Default, Confidence: ConfidenceFallback, Rule: "fallback"}
}

// NextStepFor derives the recommended next step from a routing decision.
func NextStepFor(routing rubric.Routing, confidence float64) NextStep {
	if routing == rubric.RoutingGuardrails && confidence >= ProceedConfidenceFloor {
		return NextProceedWithGuardrails
	}
	return NextLegalReview
}

func clamp(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
