package repository

import (
	"context"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdjustmentRepository interface {
	Create(ctx context.Context, adj *model.InventoryAdjustment) error
	CreateItem(ctx context.Context, item *model.InventoryAdjustmentItem) error
	FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryAdjustment, error)
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.InventoryAdjustment, error)
	List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, page, limit int) ([]model.InventoryAdjustment, int64, error)
}

type adjustmentRepository struct {
	db *gorm.DB
}

func NewAdjustmentRepository(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Create(ctx context.Context, adj *model.InventoryAdjustment) error {
	return GetDB(ctx, r.db).Create(adj).Error
}

func (r *adjustmentRepository) CreateItem(ctx context.Context, item *model.InventoryAdjustmentItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *adjustmentRepository) FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryAdjustment, error) {
	var adj model.InventoryAdjustment
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ?", tenantID).
		First(&adj, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &adj, nil
}

func (r *adjustmentRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.InventoryAdjustment, error) {
	var adj model.InventoryAdjustment
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&adj).Error; err != nil {
		return nil, err
	}
	return &adj, nil
}

func (r *adjustmentRepository) List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, page, limit int) ([]model.InventoryAdjustment, int64, error) {
	var adjustments []model.InventoryAdjustment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryAdjustment{}).Where("tenant_id = ?", tenantID)
	if locationID != nil {
		db = db.Where("location_id = ?", *locationID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Order("created_at desc").Offset(offset).Limit(limit).
		Find(&adjustments).Error; err != nil {
		return nil, 0, err
	}

	return adjustments, total, nil
}
