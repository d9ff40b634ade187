package domain

import (
	"github.com/google/uuid"

	dErrors "atsnet/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types keep a vehicle ID from being passed
// where a center ID is expected; the compiler enforces the distinction.
//
// Construct via the Parse* functions at trust boundaries; direct casting
// bypasses validation.
type (
	UserID    uuid.UUID
	CenterID  uuid.UUID
	VehicleID uuid.UUID
	SessionID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return id, nil
}

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s)
	return UserID(id), err
}

func ParseCenterID(s string) (CenterID, error) {
	id, err := parseUUID(s)
	return CenterID(id), err
}

func ParseVehicleID(s string) (VehicleID, error) {
	id, err := parseUUID(s)
	return VehicleID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s)
	return SessionID(id), err
}

func NewUserID() UserID       { return UserID(uuid.New()) }
func NewCenterID() CenterID   { return CenterID(uuid.New()) }
func NewVehicleID() VehicleID { return VehicleID(uuid.New()) }
func NewSessionID() SessionID { return SessionID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id CenterID) String() string  { return uuid.UUID(id).String() }
func (id VehicleID) String() string { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CenterID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id VehicleID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
