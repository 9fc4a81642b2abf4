package triage

import "github.com/linnemanlabs/counsel/internal/rubric"

// Exposure describes who will see the feature or campaign.
type Exposure string

const (
	ExposurePublic        Exposure = "public"
	ExposureMembersOnly   Exposure = "members_only"
	ExposureSpecificGroup Exposure = "specific_group"
	ExposureInternalTest  Exposure = "internal_test"
)

// DataUsage describes whether personal data is collected.
type DataUsage string

const (
	DataCollects     DataUsage = "collects"
	DataNoCollection DataUsage = "no_collection"
	DataUnclear      DataUsage = "unclear"
)

// RevenueModel describes how the feature makes money.
type RevenueModel string

const (
	RevenueFree         RevenueModel = "free"
	RevenuePaidOnce     RevenueModel = "paid_once"
	RevenueSubscription RevenueModel = "subscription"
	RevenueAds          RevenueModel = "ads"
	RevenueCommission   RevenueModel = "commission"
)

// ExternalCommunication describes the outward-facing audience of any messaging.
type ExternalCommunication string

const (
	CommCustomerFacing ExternalCommunication = "customer_facing"
	CommMedia          ExternalCommunication = "media"
	CommInternal       ExternalCommunication = "internal"
)

// CrossBorder describes whether users or data cross national borders.
type CrossBorder string

const (
	CrossBorderDomesticOnly CrossBorder = "domestic_only"
	CrossBorderOverseas     CrossBorder = "includes_overseas"
	CrossBorderUnclear      CrossBorder = "unclear"
)

// Input is a single triage request. Empty contextual fields mean unknown.
type Input struct {
	Description           string                `json:"description"`
	Exposure              Exposure              `json:"exposure,omitempty"`
	DataUsage             DataUsage             `json:"data_usage,omitempty"`
	RevenueModel          RevenueModel          `json:"revenue_model,omitempty"`
	ExternalCommunication ExternalCommunication `json:"external_communication,omitempty"`
	CrossBorder           CrossBorder           `json:"cross_border,omitempty"`
}

// NextStep is the recommended action for the requester.
type NextStep string

const (
	NextLegalReview           NextStep = "LEGAL_REVIEW"
	NextProceedWithGuardrails NextStep = "PROCEED_WITH_GUARDRAILS"
)

// DetectedRedFlag is a rubric red flag that matched the description.
// MatchedKeywords holds only the keywords that occurred, in rubric order.
type DetectedRedFlag struct {
	Code            string          `json:"code"`
	Reason          string          `json:"reason"`
	MatchedKeywords []string        `json:"matched_keywords"`
	Severity        rubric.Severity `json:"severity"`
}

// Result is the outcome of one triage call. It is never mutated after
// Engine.Triage returns it.
type Result struct {
	Routing              rubric.Routing    `json:"routing"`
	Confidence           float64           `json:"confidence"`
	RedFlags             []DetectedRedFlag `json:"red_flags"`
	MissingInfoQuestions []string          `json:"missing_info_questions"`
	SafeGuardrails       []string          `json:"safe_guardrails"`
	RecommendedNextStep  NextStep          `json:"recommended_next_step"`
	Timestamp            string            `json:"timestamp"`
	InputHash            string            `json:"input_hash"`
}

// FlagCodes returns the detected red flag codes in detection order.
func (r *Result) FlagCodes() []string {
	codes := make([]string, 0, len(r.RedFlags))
	for _, f := range r.RedFlags {
		codes = append(codes, f.Code)
	}
	return codes
}
