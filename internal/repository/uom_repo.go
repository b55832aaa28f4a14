package repository

import (
	"context"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UomRepository interface {
	Create(ctx context.Context, uom *model.UnitOfMeasure) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.UnitOfMeasure, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]model.UnitOfMeasure, error)
}

type uomRepository struct {
	db *gorm.DB
}

func NewUomRepository(db *gorm.DB) UomRepository {
	return &uomRepository{db: db}
}

func (r *uomRepository) Create(ctx context.Context, uom *model.UnitOfMeasure) error {
	return GetDB(ctx, r.db).Create(uom).Error
}

func (r *uomRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.UnitOfMeasure, error) {
	var uom model.UnitOfMeasure
	if err := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID).
		First(&uom, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &uom, nil
}

func (r *uomRepository) List(ctx context.Context, tenantID uuid.UUID) ([]model.UnitOfMeasure, error) {
	var uoms []model.UnitOfMeasure
	if err := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID).
		Order("code asc").Find(&uoms).Error; err != nil {
		return nil, err
	}
	return uoms, nil
}
