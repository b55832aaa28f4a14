package repository

import (
	"context"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer *model.InventoryTransfer) error
	CreateItem(ctx context.Context, item *model.InventoryTransferItem) error
	FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryTransfer, error)
	// FindByIDForUpdate locks the transfer header so concurrent receive/cancel
	// calls against the same transfer serialize.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryTransfer, error)
	Save(ctx context.Context, transfer *model.InventoryTransfer) error
	SaveItem(ctx context.Context, item *model.InventoryTransferItem) error
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.InventoryTransfer, int64, error)
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *model.InventoryTransfer) error {
	return GetDB(ctx, r.db).Create(transfer).Error
}

func (r *transferRepository) CreateItem(ctx context.Context, item *model.InventoryTransferItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *transferRepository) FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryTransfer, error) {
	var transfer model.InventoryTransfer
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ?", tenantID).
		First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.InventoryTransfer, error) {
	var transfer model.InventoryTransfer
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&transfer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	// Items loaded separately: FOR UPDATE cannot be combined with Preload joins.
	var items []model.InventoryTransferItem
	if err := GetDB(ctx, r.db).Where("transfer_id = ?", transfer.ID).Find(&items).Error; err != nil {
		return nil, err
	}
	transfer.Items = items
	return &transfer, nil
}

func (r *transferRepository) Save(ctx context.Context, transfer *model.InventoryTransfer) error {
	return GetDB(ctx, r.db).Omit("Items").Save(transfer).Error
}

func (r *transferRepository) SaveItem(ctx context.Context, item *model.InventoryTransferItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *transferRepository) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]model.InventoryTransfer, int64, error) {
	var transfers []model.InventoryTransfer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryTransfer{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Order("created_at desc").Offset(offset).Limit(limit).
		Find(&transfers).Error; err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}
