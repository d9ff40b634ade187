package domain

import (
	"strings"

	dErrors "atsnet/pkg/domain-errors"
)

// Role is the access level a user holds across the testing network.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleATSOwner   Role = "ats_owner"
	RoleATSTesting Role = "ats_testing"
	RoleRTOOfficer Role = "rto_officer"
)

var validRoles = map[Role]bool{
	RoleAdmin:      true,
	RoleATSOwner:   true,
	RoleATSTesting: true,
	RoleRTOOfficer: true,
}

// ParseRole normalizes external input (lowercase, exact match).
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !validRoles[role] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", s)
	}
	return role, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}
