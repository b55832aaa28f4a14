package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus constants
const (
	TransferStatusDraft             = "DRAFT"
	TransferStatusShipped           = "SHIPPED"
	TransferStatusPartiallyReceived = "PARTIALLY_RECEIVED"
	TransferStatusCompleted         = "COMPLETED"
	TransferStatusCancelled         = "CANCELLED"
)

// InventoryTransfer moves stock between two locations of the same tenant.
// Lifecycle: DRAFT -> SHIPPED -> PARTIALLY_RECEIVED/COMPLETED; CANCELLED is
// reachable from DRAFT, or from SHIPPED while nothing has been received yet.
type InventoryTransfer struct {
	ID                    uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID              uuid.UUID               `gorm:"type:uuid;not null;index" json:"tenant_id"`
	SourceLocationID      uuid.UUID               `gorm:"type:uuid;not null;index" json:"source_location_id"`
	DestinationLocationID uuid.UUID               `gorm:"type:uuid;not null;index" json:"destination_location_id"`
	Status                string                  `gorm:"type:varchar(30);not null;default:'DRAFT';index" json:"status"`
	TrackingNumber        string                  `gorm:"type:varchar(100)" json:"tracking_number"`
	Notes                 string                  `gorm:"type:text" json:"notes"`
	CreatedBy             *uuid.UUID              `gorm:"type:uuid" json:"created_by"`
	ShippedAt             *time.Time              `json:"shipped_at"`
	CompletedAt           *time.Time              `json:"completed_at"`
	Items                 []InventoryTransferItem `gorm:"foreignKey:TransferID" json:"items"`
	CreatedAt             time.Time               `json:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at"`
}

// InventoryTransferItem is one product line of a transfer.
// QuantityRequested is stored in the unit the caller asked for, alongside the
// conversion factor resolved at creation time; QuantityReceived accumulates in
// base units so partial receipts in mixed units stay additive.
type InventoryTransferItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TransferID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"transfer_id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	QuantityRequested decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_requested"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity_received"`
	UomID            *uuid.UUID      `gorm:"type:uuid" json:"uom_id"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"conversion_factor"`
}

// BaseRequested resolves the requested quantity to base units.
func (i *InventoryTransferItem) BaseRequested() decimal.Decimal {
	return i.QuantityRequested.Mul(i.ConversionFactor)
}

// OutstandingBase is how much is still in transit, in base units.
func (i *InventoryTransferItem) OutstandingBase() decimal.Decimal {
	return i.BaseRequested().Sub(i.QuantityReceived)
}

// FullyReceived reports whether the line has received everything requested.
func (i *InventoryTransferItem) FullyReceived() bool {
	return i.QuantityReceived.GreaterThanOrEqual(i.BaseRequested())
}
