package rules

import (
	"fmt"
	"sort"
	"strings"
)

// LegalityResult represents the outcome of a legality check.
type LegalityResult struct {
	Legal   bool
	Reason  string
	Details map[string]string
}

// Legal returns a passing result.
func Legal() LegalityResult {
	return LegalityResult{Legal: true}
}

// Illegal returns a failing result. details is read as key/value pairs; a
// trailing key without a value is dropped.
func Illegal(reason string, details ...any) LegalityResult {
	result := LegalityResult{Legal: false, Reason: reason}
	if len(details) >= 2 {
		result.Details = make(map[string]string, len(details)/2)
		for i := 0; i+1 < len(details); i += 2 {
			result.Details[fmt.Sprint(details[i])] = fmt.Sprint(details[i+1])
		}
	}
	return result
}

// Check is a single legality predicate.
type Check func() LegalityResult

// CheckAll runs checks in order and returns the first failure, or a passing
// result when every check passes.
func CheckAll(checks ...Check) LegalityResult {
	for _, check := range checks {
		if check == nil {
			continue
		}
		if result := check(); !result.Legal {
			return result
		}
	}
	return Legal()
}

// String renders the reason with its details in a stable order.
func (r LegalityResult) String() string {
	if r.Legal {
		return "legal"
	}
	if len(r.Details) == 0 {
		return r.Reason
	}
	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+r.Details[k])
	}
	return r.Reason + " (" + strings.Join(parts, ", ") + ")"
}
