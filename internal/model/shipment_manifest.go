package model

import (
	"time"
)

// ShipmentManifest status constants.
const (
	ShipmentStatusInTransit = "IN_TRANSIT"
	ShipmentStatusArrivedHQ = "ARRIVED_HQ"
)

// ShipmentManifest groups consolidated CollectionOrders for onward transport
// to the hub.
type ShipmentManifest struct {
	ID         string     `gorm:"type:varchar(50);primaryKey" json:"id"` // SHP-BKK-2024-0001
	VehicleNo  string     `gorm:"type:varchar(50)" json:"vehicle_no"`
	DriverName string     `gorm:"type:varchar(255)" json:"driver_name"`
	Status     string     `gorm:"type:varchar(20);not null;default:'IN_TRANSIT';index" json:"status"`
	DepartedAt *time.Time `json:"departed_at"`
	ArrivedAt  *time.Time `json:"arrived_at"`

	Orders []CollectionOrder `gorm:"foreignKey:ShipmentID" json:"orders,omitempty"`

	Version   int       `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
