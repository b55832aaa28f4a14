package repository

import (
	"context"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemRepository is the data access layer for the per (tenant, product,
// location) stock counters. Counter mutations are expressed as atomic SQL
// increments so concurrent movements never lose updates; callers that need a
// check-then-write (allocation guards, average cost) take the row lock via
// FindForUpdate inside a transaction.
type ItemRepository interface {
	GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error)
	Find(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error)
	FindForUpdate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error)
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryItem, error)
	IncrementOnHand(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error
	IncrementAllocated(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error
	IncrementIncoming(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error
	SetAverageCost(ctx context.Context, itemID uuid.UUID, avg decimal.Decimal) error
	ListByLocation(ctx context.Context, tenantID, locationID uuid.UUID, page, limit int) ([]model.InventoryItem, int64, error)
	ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]model.InventoryItem, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

// GetOrCreate inserts a zero-baseline row for the triple if none exists yet.
// ON CONFLICT DO NOTHING keeps concurrent first movements safe.
func (r *itemRepository) GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error) {
	db := GetDB(ctx, r.db)

	item := model.InventoryItem{
		TenantID:   tenantID,
		ProductID:  productID,
		LocationID: locationID,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error; err != nil {
		return nil, err
	}

	var existing model.InventoryItem
	if err := db.Where("tenant_id = ? AND product_id = ? AND location_id = ?", tenantID, productID, locationID).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *itemRepository) Find(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND product_id = ? AND location_id = ?", tenantID, productID, locationID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindForUpdate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND product_id = ? AND location_id = ?", tenantID, productID, locationID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) IncrementOnHand(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("id = ?", itemID).
		Update("quantity_on_hand", gorm.Expr("quantity_on_hand + ?", delta)).Error
}

func (r *itemRepository) IncrementAllocated(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("id = ?", itemID).
		Update("quantity_allocated", gorm.Expr("quantity_allocated + ?", delta)).Error
}

func (r *itemRepository) IncrementIncoming(ctx context.Context, itemID uuid.UUID, delta decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("id = ?", itemID).
		Update("quantity_incoming", gorm.Expr("quantity_incoming + ?", delta)).Error
}

func (r *itemRepository) SetAverageCost(ctx context.Context, itemID uuid.UUID, avg decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.InventoryItem{}).Where("id = ?", itemID).
		Update("average_cost", avg).Error
}

func (r *itemRepository) ListByLocation(ctx context.Context, tenantID, locationID uuid.UUID, page, limit int) ([]model.InventoryItem, int64, error) {
	var items []model.InventoryItem
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryItem{}).
		Where("tenant_id = ? AND location_id = ?", tenantID, locationID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *itemRepository) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
