package validation

import (
	"sort"
	"strings"
	"time"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

// requiredEquipment lists the equipment categories every center must declare
// at onboarding.
var requiredEquipment = []string{"speedTest", "brakeTest", "noiseTest"}

// applyBusinessRules dispatches to the collection-specific rule set. The
// switch is closed over the known collections so adding a collection forces a
// decision here rather than falling through a lookup table.
func (v *Validator) applyBusinessRules(collection domain.Collection, doc map[string]any, op Operation) error {
	switch collection {
	case domain.CollectionSessions:
		return v.sessionRules(doc, op)
	case domain.CollectionCenters:
		return v.centerRules(doc, op)
	case domain.CollectionUsers, domain.CollectionVehicles:
		return nil
	default:
		return nil
	}
}

// sessionRules enforces the scheduling constraint on create and transition
// legality on update.
func (v *Validator) sessionRules(doc map[string]any, op Operation) error {
	switch op {
	case OpCreate:
		scheduled, ok := doc["scheduledTime"]
		if !ok {
			return nil
		}
		at, ok := asTime(scheduled)
		if !ok {
			return dErrors.New(dErrors.CodeValidationFailed, "scheduledTime is not a date-time")
		}
		if at.Before(v.clock()) {
			return dErrors.New(dErrors.CodeValidationFailed, "test session cannot be scheduled in the past")
		}
		return nil

	case OpUpdate:
		rawNew, hasNew := doc["status"]
		rawCurrent, hasCurrent := doc["currentStatus"]
		if !hasNew || !hasCurrent {
			return nil
		}
		next, err := parseStatusValue(rawNew)
		if err != nil {
			return err
		}
		current, err := parseStatusValue(rawCurrent)
		if err != nil {
			return err
		}
		if !current.CanTransitionTo(next) {
			return dErrors.Newf(dErrors.CodeTransitionViolation,
				"illegal status transition from %s to %s", current, next)
		}
		return nil
	}
	return nil
}

// centerRules enforces equipment completeness on create and the status
// allowlist on update.
func (v *Validator) centerRules(doc map[string]any, op Operation) error {
	switch op {
	case OpCreate:
		raw, ok := doc["equipment"]
		if !ok {
			return nil
		}
		equipment, ok := raw.(map[string]any)
		if !ok {
			return dErrors.New(dErrors.CodeValidationFailed, "equipment must be an object keyed by category")
		}
		var missing []string
		for _, category := range requiredEquipment {
			if _, ok := equipment[category]; !ok {
				missing = append(missing, category)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return dErrors.Newf(dErrors.CodeValidationFailed,
				"missing required equipment: %s", strings.Join(missing, ", "))
		}
		return nil

	case OpUpdate:
		raw, ok := doc["status"]
		if !ok {
			return nil
		}
		s, ok := raw.(string)
		if !ok {
			return dErrors.New(dErrors.CodeValidationFailed, "center status must be a string")
		}
		if _, err := domain.ParseCenterStatus(s); err != nil {
			return dErrors.Newf(dErrors.CodeValidationFailed, "invalid center status %q", s)
		}
		return nil
	}
	return nil
}

func parseStatusValue(raw any) (domain.SessionStatus, error) {
	s, ok := raw.(string)
	if !ok {
		return "", dErrors.New(dErrors.CodeValidationFailed, "status must be a string")
	}
	status, err := domain.ParseSessionStatus(s)
	if err != nil {
		return "", dErrors.Newf(dErrors.CodeValidationFailed, "unknown session status %q", s)
	}
	return status, nil
}

func asTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return at, true
	default:
		return time.Time{}, false
	}
}
