package inspection

import (
	"math"

	"atsnet/pkg/domain"
)

// exactTolerance is the half-open tolerance for "exact" checks: the observed
// value passes when its absolute difference from the threshold is below it.
const exactTolerance = 0.001

// Evaluate derives pass/fail for one quality check. An unknown kind never
// passes.
func Evaluate(check QualityCheck) bool {
	switch check.Kind {
	case domain.CheckMaximum:
		return check.Observed <= check.Threshold
	case domain.CheckMinimum:
		return check.Observed >= check.Threshold
	case domain.CheckExact:
		return math.Abs(check.Observed-check.Threshold) < exactTolerance
	default:
		return false
	}
}

// AllPassed is the logical AND over a quality check list, vacuously true for
// an empty list.
func AllPassed(checks []QualityCheck) bool {
	for _, check := range checks {
		if !check.Passed {
			return false
		}
	}
	return true
}
