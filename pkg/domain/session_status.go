package domain

import (
	"strings"

	dErrors "atsnet/pkg/domain-errors"
)

// SessionStatus is the lifecycle state of a test session.
//
// Transitions follow the table below; no other path is legal. Verified,
// rejected, and cancelled are terminal.
type SessionStatus string

const (
	SessionScheduled   SessionStatus = "scheduled"
	SessionInProgress  SessionStatus = "in_progress"
	SessionCompleted   SessionStatus = "completed"
	SessionInterrupted SessionStatus = "interrupted"
	SessionVerified    SessionStatus = "verified"
	SessionRejected    SessionStatus = "rejected"
	SessionCancelled   SessionStatus = "cancelled"
)

// sessionTransitions is the single source of truth for legal status moves.
// Terminal states map to an empty set.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionScheduled:   {SessionInProgress, SessionCancelled},
	SessionInProgress:  {SessionCompleted, SessionInterrupted},
	SessionInterrupted: {SessionInProgress, SessionCancelled},
	SessionCompleted:   {SessionVerified, SessionRejected},
	SessionVerified:    {},
	SessionRejected:    {},
	SessionCancelled:   {},
}

// ParseSessionStatus normalizes external input (lowercase, exact match) and
// rejects anything outside the seven known states. Normalization is explicit
// here rather than a fallback hook on lookup.
func ParseSessionStatus(s string) (SessionStatus, error) {
	status := SessionStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sessionTransitions[status]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown session status %q", s)
	}
	return status, nil
}

func (s SessionStatus) IsValid() bool {
	_, ok := sessionTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is in the table.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStates returns a copy of the allowed-next set for s, oldest-declared
// first. Terminal states return an empty slice.
func (s SessionStatus) NextStates() []SessionStatus {
	return append([]SessionStatus{}, sessionTransitions[s]...)
}

// IsTerminal reports whether s admits no further transitions.
func (s SessionStatus) IsTerminal() bool {
	return s.IsValid() && len(sessionTransitions[s]) == 0
}

func (s SessionStatus) String() string {
	return string(s)
}
