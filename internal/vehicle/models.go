// Package vehicle manages vehicle records: registration, document
// verification and operator-style document updates.
package vehicle

import (
	"time"

	"atsnet/pkg/domain"
)

// DocumentRecord is one compliance document held against a vehicle, keyed in
// the Documents map by document type (insurance, pollution, fitness, ...).
type DocumentRecord struct {
	Number     string     `json:"number,omitempty"`
	IssuedAt   *time.Time `json:"issuedAt,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
	Verified   bool       `json:"verified"`
	VerifiedBy string     `json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

// TestRecord is one historical test outcome for the vehicle.
type TestRecord struct {
	SessionID   domain.SessionID   `json:"sessionId"`
	SessionCode domain.SessionCode `json:"sessionCode"`
	Status      string             `json:"status"`
	TestedAt    time.Time          `json:"testedAt"`
}

// Vehicle is one registered vehicle known to the network.
type Vehicle struct {
	ID                 domain.VehicleID          `json:"id"`
	RegistrationNumber string                    `json:"registrationNumber"`
	VehicleType        string                    `json:"vehicleType"`
	ManufacturingYear  int                       `json:"manufacturingYear"`
	ChassisNumber      string                    `json:"chassisNumber,omitempty"`
	EngineNumber       string                    `json:"engineNumber,omitempty"`
	OwnerID            *domain.UserID            `json:"ownerId,omitempty"`
	CenterID           *domain.CenterID          `json:"centerId,omitempty"`
	Documents          map[string]DocumentRecord `json:"documents,omitempty"`
	TestHistory        []TestRecord              `json:"testHistory,omitempty"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}
