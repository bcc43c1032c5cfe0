package model

import (
	"time"

	"github.com/google/uuid"
)

// NCRRecord is a non-conformance report raised against a return item during
// grading. It carries its own copy of the problem/cause/action fields plus a
// denormalized snapshot of the originating item, so the report stays readable
// even if the item moves on.
type NCRRecord struct {
	ID             string `gorm:"type:varchar(50);primaryKey" json:"id"` // NCR-BKK-2024-0001
	ReturnRecordID string `gorm:"type:varchar(50);not null;index" json:"return_record_id"`

	Problem     string `gorm:"type:text;not null" json:"problem"`
	Cause       string `gorm:"type:text" json:"cause"`
	ActionTaken string `gorm:"type:text" json:"action_taken"`
	Severity    string `gorm:"type:varchar(30)" json:"severity"`

	ItemSnapshot string `gorm:"type:jsonb" json:"item_snapshot"` // serialized copy of the item at report time

	ReportedBy *uuid.UUID `gorm:"type:uuid;index" json:"reported_by"`
	Reporter   *User      `gorm:"foreignKey:ReportedBy" json:"reporter,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
