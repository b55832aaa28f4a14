package repository

import (
	"context"
	"time"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository is the append-only stock ledger. There is deliberately no
// update or delete method; a wrong entry is corrected by appending a
// compensating one.
type LedgerRepository interface {
	Append(ctx context.Context, entry *model.InventoryTransaction) error
	SumQuantityChange(ctx context.Context, tenantID, productID, locationID uuid.UUID) (decimal.Decimal, error)
	ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, page, limit int) ([]model.InventoryTransaction, int64, error)
	ListByDateRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time, page, limit int) ([]model.InventoryTransaction, int64, error)
	ListByRelated(ctx context.Context, tenantID uuid.UUID, kind string, relatedID uuid.UUID) ([]model.InventoryTransaction, error)
	HasIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (bool, error)
	// HasIdempotencyKeyForItem scopes the key check to one (product,
	// location), matching the uniqueness the ledger enforces: a multi-line
	// post shares one key, so per-call replay detection is per moved item.
	HasIdempotencyKeyForItem(ctx context.Context, tenantID, productID, locationID uuid.UUID, key string) (bool, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Append(ctx context.Context, entry *model.InventoryTransaction) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// SumQuantityChange totals all ledger rows for the triple. Used by the
// reconciliation sweep to verify the counters have not drifted.
func (r *ledgerRepository) SumQuantityChange(ctx context.Context, tenantID, productID, locationID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := GetDB(ctx, r.db).Model(&model.InventoryTransaction{}).
		Where("tenant_id = ? AND product_id = ? AND location_id = ?", tenantID, productID, locationID).
		Select("COALESCE(SUM(quantity_change), 0)").Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *ledgerRepository) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, page, limit int) ([]model.InventoryTransaction, int64, error) {
	var entries []model.InventoryTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryTransaction{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("id desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *ledgerRepository) ListByDateRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time, page, limit int) ([]model.InventoryTransaction, int64, error) {
	var entries []model.InventoryTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryTransaction{}).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, from, to)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("id desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *ledgerRepository) ListByRelated(ctx context.Context, tenantID uuid.UUID, kind string, relatedID uuid.UUID) ([]model.InventoryTransaction, error) {
	var entries []model.InventoryTransaction
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND related_kind = ? AND related_id = ?", tenantID, kind, relatedID).
		Order("id asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) HasIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.InventoryTransaction{}).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ledgerRepository) HasIdempotencyKeyForItem(ctx context.Context, tenantID, productID, locationID uuid.UUID, key string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.InventoryTransaction{}).
		Where("tenant_id = ? AND product_id = ? AND location_id = ? AND idempotency_key = ?",
			tenantID, productID, locationID, key).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
