// Package center manages ATS testing center records: registration,
// operator-style document updates and the equipment requirements every
// center must satisfy.
package center

import (
	"time"

	"atsnet/pkg/domain"
)

// Address is the postal location of a center. City and state are the
// structural minimum; the PIN code is format-checked when present.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	PINCode string `json:"pinCode,omitempty"`
}

// Coordinates is an optional geographic position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EquipmentUnit describes one installed test lane instrument.
type EquipmentUnit struct {
	Model          string     `json:"model,omitempty"`
	SerialNumber   string     `json:"serialNumber,omitempty"`
	LastCalibrated *time.Time `json:"lastCalibrated,omitempty"`
}

// Center is one authorized testing station.
type Center struct {
	ID          domain.CenterID          `json:"id"`
	CenterName  string                   `json:"centerName"`
	CenterCode  string                   `json:"centerCode"`
	Address     Address                  `json:"address"`
	Status      domain.CenterStatus      `json:"status"`
	Coordinates *Coordinates             `json:"coordinates,omitempty"`
	Equipment   map[string]EquipmentUnit `json:"equipment,omitempty"`
	OwnerID     *domain.UserID           `json:"ownerId,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}
