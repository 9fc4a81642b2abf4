package triage

import (
	"strings"

	"github.com/linnemanlabs/counsel/internal/rubric"
)

// Condition names a guardrail predicate.
type Condition string

const (
	CondDataCollection              Condition = "data_collection"
	CondMarketing                   Condition = "marketing"
	CondUserContent                 Condition = "user_content"
	CondTermsUpdate                 Condition = "terms_update"
	CondRefund                      Condition = "refund"
	CondMedicalAdGeneral            Condition = "medical_ad_general"
	CondIndividualVariance          Condition = "individual_variance"
	CondSideEffectDisclosure        Condition = "side_effect_disclosure"
	CondMedicalConsultationRequired Condition = "medical_consultation_required"
	CondBeforeAfterRestriction      Condition = "before_after_restriction"
	CondReviewRestriction           Condition = "review_restriction"
	CondPriceEventRestriction       Condition = "price_event_restriction"
	CondGiftRestriction             Condition = "gift_restriction"
	CondSuperlativeRemoval          Condition = "superlative_removal"
	CondGuaranteeRemoval            Condition = "guarantee_removal"
	CondEndorsementDisclosure       Condition = "endorsement_disclosure"
	CondUGCMonitoring               Condition = "ugc_monitoring"
	CondReviewIncentiveProhibition  Condition = "review_incentive_prohibition"
)

// Conditions lists every recognized condition.
var Conditions = []Condition{
	CondDataCollection,
	CondMarketing,
	CondUserContent,
	CondTermsUpdate,
	CondRefund,
	CondMedicalAdGeneral,
	CondIndividualVariance,
	CondSideEffectDisclosure,
	CondMedicalConsultationRequired,
	CondBeforeAfterRestriction,
	CondReviewRestriction,
	CondPriceEventRestriction,
	CondGiftRestriction,
	CondSuperlativeRemoval,
	CondGuaranteeRemoval,
	CondEndorsementDisclosure,
	CondUGCMonitoring,
	CondReviewIncentiveProhibition,
}

// Red flag codes the guardrail predicates refer to.
const (
	FlagPIICollection           = "PII_COLLECTION"
	FlagExaggeratedAd           = "EXAGGERATED_AD"
	FlagCelebrityEndorsement    = "CELEBRITY_MEDICAL_ENDORSEMENT"
	FlagUserContentLiability    = "USER_CONTENT_LIABILITY"
	FlagPaymentHandling         = "PAYMENT_HANDLING"
	FlagProcedureMention        = "PROCEDURE_MENTION"
	FlagMedicalClaim            = "MEDICAL_CLAIM"
	FlagEffectGuarantee         = "EFFECT_GUARANTEE"
	FlagNoSideEffectDisclosure  = "NO_SIDE_EFFECT_DISCLOSURE"
	FlagExaggeratedMedicalClaim = "EXAGGERATED_MEDICAL_CLAIM"
	FlagBeforeAfterPhoto        = "BEFORE_AFTER_PHOTO"
	FlagPatientTestimonial      = "PATIENT_TESTIMONIAL"
	FlagPriceDiscountEvent      = "PRICE_DISCOUNT_EVENT"
	FlagGiftIncentive           = "GIFT_INCENTIVE"
	FlagComparativeSuperiority  = "COMPARATIVE_SUPERIORITY"
	FlagReviewManipulation      = "REVIEW_MANIPULATION"
)

// medicalFlags trigger the shared medical advertising guardrails.
var medicalFlags = []string{
	FlagProcedureMention,
	FlagMedicalClaim,
	FlagEffectGuarantee,
	FlagNoSideEffectDisclosure,
	FlagExaggeratedMedicalClaim,
}

// guardrailFacts is everything a condition may look at.
type guardrailFacts struct {
	in    *Input
	lower string
	codes map[string]struct{}
}

func (f *guardrailFacts) has(codes ...string) bool {
	for _, c := range codes {
		if _, ok := f.codes[c]; ok {
			return true
		}
	}
	return false
}

// matches evaluates the condition. Unrecognized names never match.
func (c Condition) matches(f *guardrailFacts) bool {
	switch c {
	case CondDataCollection:
		return f.in.DataUsage == DataCollects || f.in.DataUsage == DataUnclear ||
			f.has(FlagPIICollection)
	case CondMarketing:
		return containsAny(f.lower, "마케팅", "광고", "marketing") ||
			f.has(FlagExaggeratedAd, FlagCelebrityEndorsement)
	case CondUserContent:
		return containsAny(f.lower, "ugc", "사용자 생성", "댓글", "리뷰") ||
			f.has(FlagUserContentLiability)
	case CondTermsUpdate:
		return containsAny(f.lower, "약관", "정책 변경", "terms")
	case CondRefund:
		return f.in.RevenueModel == RevenuePaidOnce || f.in.RevenueModel == RevenueSubscription ||
			f.has(FlagPaymentHandling)
	case CondMedicalAdGeneral, CondIndividualVariance, CondSideEffectDisclosure, CondMedicalConsultationRequired:
		return f.has(medicalFlags...)
	case CondBeforeAfterRestriction:
		return f.has(FlagBeforeAfterPhoto)
	case CondReviewRestriction:
		return f.has(FlagPatientTestimonial)
	case CondPriceEventRestriction:
		return f.has(FlagPriceDiscountEvent)
	case CondGiftRestriction:
		return f.has(FlagGiftIncentive)
	case CondSuperlativeRemoval:
		return f.has(FlagComparativeSuperiority)
	case CondGuaranteeRemoval:
		return f.has(FlagEffectGuarantee)
	case CondEndorsementDisclosure:
		return f.has(FlagCelebrityEndorsement)
	case CondUGCMonitoring:
		return f.has(FlagUserContentLiability)
	case CondReviewIncentiveProhibition:
		return f.has(FlagReviewManipulation)
	default:
		return false
	}
}

// Known reports whether c is a recognized condition.
func (c Condition) Known() bool {
	for _, k := range Conditions {
		if c == k {
			return true
		}
	}
	return false
}

// ResolveGuardrails returns the text of every rubric guardrail whose
// condition holds, in rubric order. Duplicate conditions each contribute.
func ResolveGuardrails(in *Input, flags []DetectedRedFlag, rb *rubric.Rubric) []string {
	return resolveGuardrails(in, strings.ToLower(in.Description), flags, rb)
}

func resolveGuardrails(in *Input, lower string, flags []DetectedRedFlag, rb *rubric.Rubric) []string {
	facts := &guardrailFacts{
		in:    in,
		lower: lower,
		codes: make(map[string]struct{}, len(flags)),
	}
	for _, f := range flags {
		facts.codes[f.Code] = struct{}{}
	}

	out := []string{}
	for _, g := range rb.SafeGuardrails {
		if Condition(g.Condition).matches(facts) {
			out = append(out, g.Text)
		}
	}
	return out
}
