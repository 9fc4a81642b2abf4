package triage

import (
	"strings"

	"github.com/linnemanlabs/counsel/internal/rubric"
)

// DetectRedFlags returns one DetectedRedFlag per rubric rule with at least one
// keyword occurring in text. Matching is case-insensitive substring
// containment with no word boundaries, so a keyword may match inside a
// longer word.
func DetectRedFlags(text string, rb *rubric.Rubric) []DetectedRedFlag {
	return detect(strings.ToLower(text), rb)
}

// detect expects text already lowercased.
func detect(lower string, rb *rubric.Rubric) []DetectedRedFlag {
	out := []DetectedRedFlag{}
	for _, rule := range rb.RedFlags {
		var matched []string
		for _, kw := range rule.Keywords {
			if containsFold(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}
		out = append(out, DetectedRedFlag{
			Code:            rule.Code,
			Reason:          rule.Reason,
			MatchedKeywords: matched,
			Severity:        rule.Severity,
		})
	}
	return out
}

// containsFold reports whether keyword occurs in the lowercased text.
// An empty keyword never matches.
func containsFold(lower, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(lower, strings.ToLower(keyword))
}

func containsAny(lower string, keywords ...string) bool {
	for _, kw := range keywords {
		if containsFold(lower, kw) {
			return true
		}
	}
	return false
}
