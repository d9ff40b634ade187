package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"

	dErrors "atsnet/pkg/domain-errors"
)

// SessionCode is the human-facing identifier of a test session,
// "TS" followed by exactly twelve digits.
type SessionCode string

var sessionCodePattern = regexp.MustCompile(`^TS\d{12}$`)

// ParseSessionCode validates external input against the TS+12-digit format.
func ParseSessionCode(s string) (SessionCode, error) {
	if !sessionCodePattern.MatchString(s) {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "session code %q must match TS followed by 12 digits", s)
	}
	return SessionCode(s), nil
}

// NewSessionCode generates a fresh code. Uniqueness is enforced by the
// document store's unique-field constraint, not here.
func NewSessionCode() SessionCode {
	return SessionCode(fmt.Sprintf("TS%012d", rand.Int64N(1_000_000_000_000)))
}

func (c SessionCode) IsValid() bool {
	return sessionCodePattern.MatchString(string(c))
}

func (c SessionCode) String() string {
	return string(c)
}
