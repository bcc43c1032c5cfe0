package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateReturn     = "CREATE_RETURN"
	ActionTransitionReturn = "TRANSITION_RETURN"
	ActionSplitReturn      = "SPLIT_RETURN"
	ActionUndoTransition   = "UNDO_TRANSITION"

	ActionCreateCollectionOrder = "CREATE_COLLECTION_ORDER"
	ActionAssignCollection      = "ASSIGN_COLLECTION_ORDER"
	ActionCollectOrder          = "COLLECT_ORDER"
	ActionConsolidateOrder      = "CONSOLIDATE_ORDER"
	ActionFailCollection        = "FAIL_COLLECTION_ORDER"

	ActionDispatchShipment = "DISPATCH_SHIPMENT"
	ActionArriveShipment   = "ARRIVE_SHIPMENT"

	ActionCreateNCR = "CREATE_NCR"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (running number/uuid)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
