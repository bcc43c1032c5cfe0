package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReturnRecord is the central entity of the returns pipeline. IDs are
// human-readable running numbers (RET-BKK-2024-0001); the status field only
// ever holds canonical workflow statuses once a record has passed through the
// load-time migration.
type ReturnRecord struct {
	ID       string  `gorm:"type:varchar(50);primaryKey" json:"id"`
	RefNo    string  `gorm:"type:varchar(100);index" json:"ref_no"`
	ParentID *string `gorm:"type:varchar(50);index" json:"parent_id"` // set when produced by splitting another record

	Branch       string `gorm:"type:varchar(100);not null;index" json:"branch"`
	CustomerName string `gorm:"type:varchar(255)" json:"customer_name"`
	DestCustomer string `gorm:"type:varchar(255)" json:"dest_customer"`
	ProductCode  string `gorm:"type:varchar(100);not null;index" json:"product_code"`
	ProductName  string `gorm:"type:varchar(255)" json:"product_name"`

	Quantity  int64           `gorm:"not null" json:"quantity"`
	Unit      string          `gorm:"type:varchar(50)" json:"unit"`
	PriceUnit decimal.Decimal `gorm:"type:decimal(14,4)" json:"price_unit"`
	PriceBill decimal.Decimal `gorm:"type:decimal(14,4)" json:"price_bill"`
	PriceSell decimal.Decimal `gorm:"type:decimal(14,4)" json:"price_sell"`

	Status              string `gorm:"type:varchar(30);not null;index" json:"status"`
	Condition           string `gorm:"type:varchar(100)" json:"condition"`
	Disposition         string `gorm:"type:varchar(30);not null;default:'Pending'" json:"disposition"`
	PreliminaryDecision string `gorm:"type:varchar(50)" json:"preliminary_decision"` // non-binding hint set during consolidation
	PreliminaryRoute    string `gorm:"type:varchar(100)" json:"preliminary_route"`

	// Soft references resolved by string equality, matching the source data.
	NCRNumber         string  `gorm:"type:varchar(50);index" json:"ncr_number"`
	CollectionOrderID *string `gorm:"type:varchar(50);index" json:"collection_order_id"`
	NeoRefNo          string  `gorm:"type:varchar(100)" json:"neo_ref_no"`

	// Milestone timestamps are append-only; once set they are never cleared,
	// not even by an undo.
	RequestedAt  *time.Time `json:"requested_at"`
	ReceivedAt   *time.Time `json:"received_at"` // received at hub
	GradedAt     *time.Time `json:"graded_at"`
	DocumentedAt *time.Time `json:"documented_at"`
	CompletedAt  *time.Time `json:"completed_at"`

	// Version is bumped on every status write; stale writers are rejected.
	Version int `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
