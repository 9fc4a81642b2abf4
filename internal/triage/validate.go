package triage

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports an input that cannot be triaged. No partial result
// is produced alongside it.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks that the description is present and every contextual field
// is either unset or one of its known values.
func (in *Input) Validate() error {
	if in == nil || strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}

	checks := []struct {
		field string
		value string
		ok    bool
	}{
		{"exposure", string(in.Exposure), in.Exposure.valid()},
		{"data_usage", string(in.DataUsage), in.DataUsage.valid()},
		{"revenue_model", string(in.RevenueModel), in.RevenueModel.valid()},
		{"external_communication", string(in.ExternalCommunication), in.ExternalCommunication.valid()},
		{"cross_border", string(in.CrossBorder), in.CrossBorder.valid()},
	}
	for _, c := range checks {
		if c.value != "" && !c.ok {
			return &ValidationError{Field: c.field, Value: c.value, Reason: "unknown value"}
		}
	}
	return nil
}

func (e Exposure) valid() bool {
	switch e {
	case ExposurePublic, ExposureMembersOnly, ExposureSpecificGroup, ExposureInternalTest:
		return true
	}
	return false
}

func (d DataUsage) valid() bool {
	switch d {
	case DataCollects, DataNoCollection, DataUnclear:
		return true
	}
	return false
}

func (r RevenueModel) valid() bool {
	switch r {
	case RevenueFree, RevenuePaidOnce, RevenueSubscription, RevenueAds, RevenueCommission:
		return true
	}
	return false
}

func (c ExternalCommunication) valid() bool {
	switch c {
	case CommCustomerFacing, CommMedia, CommInternal:
		return true
	}
	return false
}

func (c CrossBorder) valid() bool {
	switch c {
	case CrossBorderDomesticOnly, CrossBorderOverseas, CrossBorderUnclear:
		return true
	}
	return false
}
