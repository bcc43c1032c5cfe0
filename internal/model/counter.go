package model

import (
	"time"
)

// SequenceCounter backs running-number generation. One row per
// prefix+branch+year scope (e.g. "COL-CNX-2024"); the value is bumped with an
// atomic upsert so two concurrent writers can never compute the same number.
type SequenceCounter struct {
	Scope     string    `gorm:"type:varchar(50);primaryKey" json:"scope"`
	Value     int64     `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IdempotencyKey records a multi-step operation that has already been
// applied. The row is inserted in the same transaction as the mutation, so a
// retried request collapses into "already applied" instead of double-running
// side effects.
type IdempotencyKey struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Operation string    `gorm:"type:varchar(50);not null" json:"operation"`
	EntityID  string    `gorm:"type:varchar(50);not null" json:"entity_id"`
	CreatedAt time.Time `json:"created_at"`
}
