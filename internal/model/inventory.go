package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates the reasons stock can move.
const (
	TxTypeSale           = "SALE"
	TxTypeReturn         = "RETURN"
	TxTypeAdjustment     = "ADJUSTMENT"
	TxTypeTransferOut    = "TRANSFER_OUT"
	TxTypeTransferIn     = "TRANSFER_IN"
	TxTypeTransferCancel = "TRANSFER_CANCEL"
	TxTypePoReceipt      = "PO_RECEIPT"
	TxTypeCountReconcile = "COUNT_RECONCILE"
)

// RelatedKind tags which document a ledger row belongs to. Exactly one
// RelatedID is stored per row; the kind makes resolution exhaustive instead
// of spreading nullable foreign keys across columns.
const (
	RelatedNone          = "NONE"
	RelatedOrder         = "ORDER"
	RelatedPurchaseOrder = "PURCHASE_ORDER"
	RelatedTransfer      = "TRANSFER"
	RelatedAdjustment    = "ADJUSTMENT"
	RelatedStockCount    = "STOCK_COUNT"
)

// RelatedDocument pairs a ledger row with its originating document.
type RelatedDocument struct {
	Kind string
	ID   uuid.UUID
}

// NoRelatedDocument is used for movements with no originating document.
var NoRelatedDocument = RelatedDocument{Kind: RelatedNone}

// InventoryItem holds the live stock counters for one (tenant, product,
// location) triple. Rows are created lazily on first movement and never
// deleted, only zeroed. The counters are a projection of the ledger: the sum
// of all ledger quantity changes for the triple must equal QuantityOnHand.
type InventoryItem struct {
	ID                uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID          uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uniq_inventory_item,priority:1" json:"tenant_id"`
	ProductID         uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uniq_inventory_item,priority:2" json:"product_id"`
	LocationID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uniq_inventory_item,priority:3" json:"location_id"`
	QuantityOnHand    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"quantity_on_hand"`
	QuantityAllocated decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"quantity_allocated"`
	QuantityIncoming  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"quantity_incoming"`
	AverageCost       decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"average_cost"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// QuantityAvailable is the only quantity safe to sell: on hand minus what is
// already promised to open orders.
func (i *InventoryItem) QuantityAvailable() decimal.Decimal {
	return i.QuantityOnHand.Sub(i.QuantityAllocated)
}

// InventoryTransaction is the append-only stock ledger. Rows are never
// updated or deleted. The primary key is a plain bigserial so ledger order is
// monotonic and cheap to scan.
type InventoryTransaction struct {
	ID              int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID        uuid.UUID           `gorm:"type:uuid;not null;index:idx_ledger_item,priority:1;uniqueIndex:uniq_ledger_idem_key,priority:1" json:"tenant_id"`
	ProductID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_ledger_item,priority:2;uniqueIndex:uniq_ledger_idem_key,priority:3" json:"product_id"`
	LocationID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_ledger_item,priority:3;uniqueIndex:uniq_ledger_idem_key,priority:4" json:"location_id"`
	TransactionType string              `gorm:"type:varchar(30);not null;index" json:"transaction_type"`
	QuantityChange  decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"quantity_change"`
	UnitCost        decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"unit_cost"`
	UserID          *uuid.UUID          `gorm:"type:uuid" json:"user_id"`
	RelatedKind     string              `gorm:"type:varchar(20);not null;default:'NONE'" json:"related_kind"`
	RelatedID       *uuid.UUID          `gorm:"type:uuid;index" json:"related_id"`
	// Unique per (tenant, key, product, location): a multi-line post shares
	// one key across its lines, so uniqueness is per moved item. NULL keys
	// never collide.
	IdempotencyKey *string   `gorm:"type:varchar(100);uniqueIndex:uniq_ledger_idem_key,priority:2" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// Adjustment reason codes.
const (
	ReasonDamage     = "DAMAGE"
	ReasonTheft      = "THEFT"
	ReasonExpiry     = "EXPIRY"
	ReasonFound      = "FOUND"
	ReasonCorrection = "CORRECTION"
	ReasonOther      = "OTHER"
)

// InventoryAdjustment is a posted, immutable batch of manual stock
// corrections at one location.
type InventoryAdjustment struct {
	ID             uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID                 `gorm:"type:uuid;not null;index;uniqueIndex:uniq_adjustment_idem_key,priority:1" json:"tenant_id"`
	LocationID     uuid.UUID                 `gorm:"type:uuid;not null;index" json:"location_id"`
	ReasonCode     string                    `gorm:"type:varchar(30);not null" json:"reason_code"`
	Notes          string                    `gorm:"type:text" json:"notes"`
	CreatedBy      *uuid.UUID                `gorm:"type:uuid" json:"created_by"`
	IdempotencyKey *string                   `gorm:"type:varchar(100);uniqueIndex:uniq_adjustment_idem_key,priority:2" json:"idempotency_key,omitempty"`
	Items          []InventoryAdjustmentItem `gorm:"foreignKey:AdjustmentID" json:"items"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// InventoryAdjustmentItem is one product line of an adjustment.
type InventoryAdjustmentItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AdjustmentID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"adjustment_id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	QuantityChange decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_change"`
}
