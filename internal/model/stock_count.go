package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockCountType constants
const (
	CountTypeFull    = "FULL"
	CountTypePartial = "PARTIAL"
)

// StockCountStatus constants. The workflow is strictly linear:
// PENDING -> COUNTING -> REVIEWED -> COMPLETED.
const (
	CountStatusPending   = "PENDING"
	CountStatusCounting  = "COUNTING"
	CountStatusReviewed  = "REVIEWED"
	CountStatusCompleted = "COMPLETED"
)

// StockCountItemStatus constants
const (
	CountItemPending  = "PENDING"
	CountItemCounted  = "COUNTED"
	CountItemApproved = "APPROVED"
	CountItemRejected = "REJECTED"
)

// StockCount is a physical inventory count at one location. FULL counts
// snapshot every stock-tracked active product; PARTIAL counts only the
// products named at initiation.
type StockCount struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:uniq_count_idem_key,priority:1" json:"tenant_id"`
	LocationID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"location_id"`
	Type           string           `gorm:"type:varchar(20);not null" json:"type"`
	Status         string           `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Notes          string           `gorm:"type:text" json:"notes"`
	CreatedBy      *uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	IdempotencyKey *string          `gorm:"type:varchar(100);uniqueIndex:uniq_count_idem_key,priority:2" json:"idempotency_key,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at"`
	Items          []StockCountItem `gorm:"foreignKey:StockCountID" json:"items"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// StockCountItem is one product line of a stock count. SnapshotQuantity is
// the on-hand quantity captured at initiation (physical stock, deliberately
// not available-minus-allocated). Variance = counted - snapshot once counted.
type StockCountItem struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StockCountID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"stock_count_id"`
	ProductID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	SnapshotQuantity decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"snapshot_quantity"`
	CountedQuantity  decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"counted_quantity"`
	Variance         decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"variance"`
	Status           string              `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ReviewNotes      string              `gorm:"type:text" json:"review_notes"`
}

// Reviewed reports whether the line has reached a terminal review state.
func (i *StockCountItem) Reviewed() bool {
	return i.Status == CountItemApproved || i.Status == CountItemRejected
}

// SetCounted records the physical count and derives the variance.
func (i *StockCountItem) SetCounted(qty decimal.Decimal) {
	i.CountedQuantity = decimal.NewNullDecimal(qty)
	i.Variance = decimal.NewNullDecimal(qty.Sub(i.SnapshotQuantity))
	i.Status = CountItemCounted
}
