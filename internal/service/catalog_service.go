package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	SKU          string          `json:"sku" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	BasePrice    decimal.Decimal `json:"base_price"`
	BaseUomID    string          `json:"base_uom_id"`
	StockTracked *bool           `json:"stock_tracked"`
}

type UpdateProductRequest struct {
	Name         string           `json:"name"`
	BasePrice    *decimal.Decimal `json:"base_price"`
	StockTracked *bool            `json:"stock_tracked"`
	Active       *bool            `json:"active"`
}

type CreateLocationRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

type CreateUomRequest struct {
	Code             string          `json:"code" binding:"required"`
	Name             string          `json:"name" binding:"required"`
	ConversionFactor decimal.Decimal `json:"conversion_factor" binding:"required"`
}

// CatalogService manages the reference data inventory movements depend on:
// products, stock locations, and units of measure.
type CatalogService interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id string, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id string) error
	GetProduct(ctx context.Context, tenantID uuid.UUID, id string) (*model.Product, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.Product, int64, error)

	CreateLocation(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateLocationRequest) (*model.Location, error)
	GetLocation(ctx context.Context, tenantID uuid.UUID, id string) (*model.Location, error)
	ListLocations(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.Location, int64, error)

	CreateUom(ctx context.Context, tenantID uuid.UUID, req CreateUomRequest) (*model.UnitOfMeasure, error)
	ListUoms(ctx context.Context, tenantID uuid.UUID) ([]model.UnitOfMeasure, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	uomRepo      repository.UomRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	uomRepo repository.UomRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		locationRepo: locationRepo,
		uomRepo:      uomRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateProductRequest) (*model.Product, error) {
	if req.BasePrice.IsNegative() {
		return nil, validationf("base price cannot be negative")
	}

	product := model.Product{
		TenantID:     tenantID,
		SKU:          req.SKU,
		Name:         req.Name,
		BasePrice:    req.BasePrice,
		StockTracked: true,
		Active:       true,
	}
	if req.StockTracked != nil {
		product.StockTracked = *req.StockTracked
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.productRepo.FindBySKU(txCtx, tenantID, req.SKU); findErr == nil {
			return validationf("sku already exists: %s", req.SKU)
		} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		if req.BaseUomID != "" {
			uomID, parseErr := uuid.Parse(req.BaseUomID)
			if parseErr != nil {
				return validationf("invalid base_uom_id: %v", parseErr)
			}
			if _, findErr := s.uomRepo.FindByID(txCtx, tenantID, uomID); findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return validationf("unit of measure not found: %s", req.BaseUomID)
				}
				return findErr
			}
			product.BaseUomID = &uomID
		}

		if createErr := s.productRepo.Create(txCtx, &product); createErr != nil {
			return createErr
		}

		details, _ := json.Marshal(map[string]interface{}{"sku": req.SKU})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id string, req UpdateProductRequest) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("invalid product id: %v", err)
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, findErr := s.productRepo.FindByID(txCtx, tenantID, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("product not found: %s", id)
			}
			return findErr
		}
		product = found

		if req.Name != "" {
			product.Name = req.Name
		}
		if req.BasePrice != nil {
			if req.BasePrice.IsNegative() {
				return validationf("base price cannot be negative")
			}
			product.BasePrice = *req.BasePrice
		}
		if req.StockTracked != nil {
			product.StockTracked = *req.StockTracked
		}
		if req.Active != nil {
			product.Active = *req.Active
		}

		if updateErr := s.productRepo.Update(txCtx, product); updateErr != nil {
			return updateErr
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionUpdateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return validationf("invalid product id: %v", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.productRepo.FindByID(txCtx, tenantID, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("product not found: %s", id)
			}
			return findErr
		}

		if deleteErr := s.productRepo.Delete(txCtx, tenantID, productID); deleteErr != nil {
			return deleteErr
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionDeleteProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
		})
	})
}

func (s *catalogService) GetProduct(ctx context.Context, tenantID uuid.UUID, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("invalid product id: %v", err)
	}
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("product not found: %s", id)
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, tenantID, page, limit, search)
}

func (s *catalogService) CreateLocation(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateLocationRequest) (*model.Location, error) {
	location := model.Location{
		TenantID: tenantID,
		Code:     req.Code,
		Name:     req.Name,
		Address:  req.Address,
		Active:   true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.locationRepo.Create(txCtx, &location); createErr != nil {
			return createErr
		}
		details, _ := json.Marshal(map[string]interface{}{"code": req.Code})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionCreateLocation,
			EntityID:   location.ID.String(),
			EntityName: location.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (s *catalogService) GetLocation(ctx context.Context, tenantID uuid.UUID, id string) (*model.Location, error) {
	locationID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("invalid location id: %v", err)
	}
	location, err := s.locationRepo.FindByID(ctx, tenantID, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("location not found: %s", id)
		}
		return nil, err
	}
	return location, nil
}

func (s *catalogService) ListLocations(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.Location, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.locationRepo.List(ctx, tenantID, page, limit)
}

func (s *catalogService) CreateUom(ctx context.Context, tenantID uuid.UUID, req CreateUomRequest) (*model.UnitOfMeasure, error) {
	if !req.ConversionFactor.IsPositive() {
		return nil, validationf("conversion factor must be positive")
	}
	uom := model.UnitOfMeasure{
		TenantID:         tenantID,
		Code:             req.Code,
		Name:             req.Name,
		ConversionFactor: req.ConversionFactor,
	}
	if err := s.uomRepo.Create(ctx, &uom); err != nil {
		return nil, err
	}
	return &uom, nil
}

func (s *catalogService) ListUoms(ctx context.Context, tenantID uuid.UUID) ([]model.UnitOfMeasure, error) {
	return s.uomRepo.List(ctx, tenantID)
}
