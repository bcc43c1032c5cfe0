package model

import (
	"time"
)

// CollectionOrder status constants. The order lifecycle is independent of,
// but loosely synchronized with, the statuses of its linked records.
const (
	CollectionStatusPending      = "PENDING"
	CollectionStatusAssigned     = "ASSIGNED"
	CollectionStatusCollected    = "COLLECTED"
	CollectionStatusConsolidated = "CONSOLIDATED"
	CollectionStatusFailed       = "FAILED"
)

// CollectionOrder groups one or more ReturnRecords for a single branch pickup.
type CollectionOrder struct {
	ID         string     `gorm:"type:varchar(50);primaryKey" json:"id"` // COL-BKK-2024-0001
	Branch     string     `gorm:"type:varchar(100);not null;index" json:"branch"`
	Status     string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AssignedTo string     `gorm:"type:varchar(255)" json:"assigned_to"` // driver / courier name
	PickupDate *time.Time `json:"pickup_date"`
	Note       string     `gorm:"type:text" json:"note"`

	ShipmentID *string `gorm:"type:varchar(50);index" json:"shipment_id"`

	Records []ReturnRecord `gorm:"foreignKey:CollectionOrderID" json:"records,omitempty"`

	Version   int       `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
