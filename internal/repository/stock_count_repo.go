package repository

import (
	"context"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockCountRepository interface {
	Create(ctx context.Context, count *model.StockCount) error
	CreateItem(ctx context.Context, item *model.StockCountItem) error
	FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.StockCount, error)
	// FindByIDForUpdate locks the count header; posting reads every line and
	// conditionally mutates stock, so it must not race with a second post.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.StockCount, error)
	Save(ctx context.Context, count *model.StockCount) error
	SaveItem(ctx context.Context, item *model.StockCountItem) error
	List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, status string, page, limit int) ([]model.StockCount, int64, error)
}

type stockCountRepository struct {
	db *gorm.DB
}

func NewStockCountRepository(db *gorm.DB) StockCountRepository {
	return &stockCountRepository{db: db}
}

func (r *stockCountRepository) Create(ctx context.Context, count *model.StockCount) error {
	return GetDB(ctx, r.db).Create(count).Error
}

func (r *stockCountRepository) CreateItem(ctx context.Context, item *model.StockCountItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *stockCountRepository) FindByIDWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.StockCount, error) {
	var count model.StockCount
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Where("tenant_id = ?", tenantID).
		First(&count, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &count, nil
}

func (r *stockCountRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.StockCount, error) {
	var count model.StockCount
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&count, "id = ?", id).Error; err != nil {
		return nil, err
	}
	var items []model.StockCountItem
	if err := GetDB(ctx, r.db).Where("stock_count_id = ?", count.ID).Find(&items).Error; err != nil {
		return nil, err
	}
	count.Items = items
	return &count, nil
}

func (r *stockCountRepository) Save(ctx context.Context, count *model.StockCount) error {
	return GetDB(ctx, r.db).Omit("Items").Save(count).Error
}

func (r *stockCountRepository) SaveItem(ctx context.Context, item *model.StockCountItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *stockCountRepository) List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, status string, page, limit int) ([]model.StockCount, int64, error) {
	var counts []model.StockCount
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockCount{}).Where("tenant_id = ?", tenantID)
	if locationID != nil {
		db = db.Where("location_id = ?", *locationID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&counts).Error; err != nil {
		return nil, 0, err
	}

	return counts, total, nil
}
