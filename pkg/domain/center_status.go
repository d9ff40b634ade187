package domain

import (
	"strings"

	dErrors "atsnet/pkg/domain-errors"
)

// CenterStatus is the operational state of an ATS center.
type CenterStatus string

const (
	CenterActive    CenterStatus = "active"
	CenterInactive  CenterStatus = "inactive"
	CenterSuspended CenterStatus = "suspended"
)

var validCenterStatuses = map[CenterStatus]bool{
	CenterActive:    true,
	CenterInactive:  true,
	CenterSuspended: true,
}

// ParseCenterStatus normalizes external input (lowercase, exact match).
func ParseCenterStatus(s string) (CenterStatus, error) {
	status := CenterStatus(strings.ToLower(strings.TrimSpace(s)))
	if !validCenterStatuses[status] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown center status %q", s)
	}
	return status, nil
}

func (s CenterStatus) IsValid() bool {
	return validCenterStatuses[s]
}

func (s CenterStatus) String() string {
	return string(s)
}
