package triage

import (
	"strings"

	"github.com/linnemanlabs/counsel/internal/rubric"
)

// Category names a contextual input field a question template can ask about.
type Category string

const (
	CategoryExposure              Category = "exposure"
	CategoryDataUsage             Category = "data_usage"
	CategoryRevenueModel          Category = "revenue_model"
	CategoryExternalCommunication Category = "external_communication"
	CategoryCrossBorder           Category = "cross_border"
)

// unknown reports whether the input leaves the category's field unset.
// Categories outside the closed set are never considered unknown.
func (c Category) unknown(in *Input) bool {
	switch c {
	case CategoryExposure:
		return in.Exposure == ""
	case CategoryDataUsage:
		return in.DataUsage == ""
	case CategoryRevenueModel:
		return in.RevenueModel == ""
	case CategoryExternalCommunication:
		return in.ExternalCommunication == ""
	case CategoryCrossBorder:
		return in.CrossBorder == ""
	default:
		return false
	}
}

// MissingInfoQuestions returns the clarifying questions for in, in rubric
// order. A template is asked at most once per call, when its field is unset
// (trigger_if_unknown) or when the description contains one of its
// trigger_if_contains keywords.
func MissingInfoQuestions(in *Input, rb *rubric.Rubric) []string {
	return missingInfo(in, strings.ToLower(in.Description), rb)
}

func missingInfo(in *Input, lower string, rb *rubric.Rubric) []string {
	out := []string{}
	for _, tmpl := range rb.QuestionTemplates {
		ask := tmpl.TriggerIfUnknown && Category(tmpl.Category).unknown(in)
		if !ask {
			ask = containsAny(lower, tmpl.TriggerIfContains...)
		}
		if ask {
			out = append(out, tmpl.Question)
		}
	}
	return out
}
