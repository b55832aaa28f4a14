package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable/stockable catalog entry. Only products with
// StockTracked enabled participate in inventory movements.
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uniq_product_sku,priority:1" json:"tenant_id"`
	SKU          string          `gorm:"type:varchar(100);not null;uniqueIndex:uniq_product_sku,priority:2" json:"sku"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_price"`
	BaseUomID    *uuid.UUID      `gorm:"type:uuid" json:"base_uom_id"`
	StockTracked bool            `gorm:"not null;default:true" json:"stock_tracked"`
	Active       bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Location is a physical or logical stock-holding place (store, warehouse, van).
type Location struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_location_code,priority:1" json:"tenant_id"`
	Code      string         `gorm:"type:varchar(50);not null;uniqueIndex:uniq_location_code,priority:2" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UnitOfMeasure defines a counting unit and its multiplier relative to the
// product's base unit (e.g. "BOX12" with factor 12). Factor 1 means base unit.
type UnitOfMeasure struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uniq_uom_code,priority:1" json:"tenant_id"`
	Code             string          `gorm:"type:varchar(50);not null;uniqueIndex:uniq_uom_code,priority:2" json:"code"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"conversion_factor"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
