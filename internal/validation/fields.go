package validation

import (
	"regexp"
	"time"
)

// FieldValidator is a pure predicate over one field's value. Implementations
// must be deterministic and must not perform I/O; a value of the wrong
// run-time type simply fails the predicate.
type FieldValidator func(value any) bool

var (
	emailPattern        = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern        = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)
	centerCodePattern   = regexp.MustCompile(`^ATS\d{6}$`)
	pinCodePattern      = regexp.MustCompile(`^\d{6}$`)
	sessionCodePattern  = regexp.MustCompile(`^TS\d{12}$`)
	registrationPattern = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z]{1,2}\d{4}$`)
)

func matchString(pattern *regexp.Regexp, value any) bool {
	s, ok := value.(string)
	return ok && pattern.MatchString(s)
}

// ValidEmail checks basic email format.
func ValidEmail(value any) bool {
	return matchString(emailPattern, value)
}

// ValidPhone checks E.164-style phone numbers, optional leading plus.
func ValidPhone(value any) bool {
	return matchString(phonePattern, value)
}

// ValidCenterCode checks the ATS center code format: "ATS" + 6 digits.
func ValidCenterCode(value any) bool {
	return matchString(centerCodePattern, value)
}

// ValidPINCode checks a 6-digit postal PIN code.
func ValidPINCode(value any) bool {
	return matchString(pinCodePattern, value)
}

// ValidSessionCode checks the test session code format: "TS" + 12 digits.
func ValidSessionCode(value any) bool {
	return matchString(sessionCodePattern, value)
}

// ValidRegistrationNumber checks the vehicle registration plate format.
func ValidRegistrationNumber(value any) bool {
	return matchString(registrationPattern, value)
}

// ValidCoordinates checks a {latitude, longitude} object against geographic
// bounds: latitude in [-90, 90], longitude in [-180, 180].
func ValidCoordinates(value any) bool {
	coords, ok := value.(map[string]any)
	if !ok {
		return false
	}
	lat, ok := asFloat(coords["latitude"])
	if !ok {
		return false
	}
	lon, ok := asFloat(coords["longitude"])
	if !ok {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ManufacturingYear returns a validator bound to the given clock: the year
// must fall in [1900, current year].
func ManufacturingYear(clock func() time.Time) FieldValidator {
	return func(value any) bool {
		year, ok := asInt(value)
		if !ok {
			return false
		}
		return year >= 1900 && year <= clock().UTC().Year()
	}
}

// asFloat accepts the numeric representations a JSON document or a typed
// caller may carry.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// asInt accepts integral values, including JSON's float64 when whole.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}
