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
type AdjustmentItemRequest struct {
	ProductID      string          `json:"product_id" binding:"required"`
	QuantityChange decimal.Decimal `json:"quantity_change" binding:"required"`
}

type PostAdjustmentRequest struct {
	LocationID     string                  `json:"location_id" binding:"required"`
	ReasonCode     string                  `json:"reason_code" binding:"required,oneof=DAMAGE THEFT EXPIRY FOUND CORRECTION OTHER"`
	Notes          string                  `json:"notes"`
	IdempotencyKey string                  `json:"idempotency_key"`
	Items          []AdjustmentItemRequest `json:"items" binding:"required,min=1,dive"`
}

type AdjustmentResponse struct {
	ID         string                    `json:"id"`
	LocationID string                    `json:"location_id"`
	ReasonCode string                    `json:"reason_code"`
	Notes      string                    `json:"notes"`
	Items      []AdjustmentItemResponse  `json:"items"`
	CreatedAt  string                    `json:"created_at"`
}

type AdjustmentItemResponse struct {
	ProductID      string          `json:"product_id"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
}

// AdjustmentService posts reason-coded manual stock corrections. Each posted
// adjustment is immutable: header, lines, one ledger entry per line and the
// counter updates all commit in a single transaction.
type AdjustmentService interface {
	PostAdjustment(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req PostAdjustmentRequest) (*AdjustmentResponse, error)
	GetAdjustment(ctx context.Context, tenantID uuid.UUID, id string) (*AdjustmentResponse, error)
	ListAdjustments(ctx context.Context, tenantID uuid.UUID, locationID string, page, limit int) ([]AdjustmentResponse, int64, error)
}

type adjustmentService struct {
	adjustmentRepo repository.AdjustmentRepository
	productRepo    repository.ProductRepository
	locationRepo   repository.LocationRepository
	auditRepo      repository.AuditRepository
	stock          StockService
	txManager      repository.TransactionManager
}

func NewAdjustmentService(
	adjustmentRepo repository.AdjustmentRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	txManager repository.TransactionManager,
) AdjustmentService {
	return &adjustmentService{
		adjustmentRepo: adjustmentRepo,
		productRepo:    productRepo,
		locationRepo:   locationRepo,
		auditRepo:      auditRepo,
		stock:          stock,
		txManager:      txManager,
	}
}

func (s *adjustmentService) PostAdjustment(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req PostAdjustmentRequest) (*AdjustmentResponse, error) {
	if len(req.Items) == 0 {
		return nil, validationf("adjustment must contain at least one item")
	}

	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, validationf("invalid location_id: %v", err)
	}

	adjustment := model.InventoryAdjustment{
		TenantID:   tenantID,
		LocationID: locationID,
		ReasonCode: req.ReasonCode,
		Notes:      req.Notes,
		CreatedBy:  userID,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		adjustment.IdempotencyKey = &key
	}

	var replay *model.InventoryAdjustment
	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		replay = nil

		// Replay short-circuit: a retried post with the same key returns the
		// previously created adjustment instead of double-applying. The
		// check runs inside the transaction; the unique key index on the
		// header catches the concurrent retry this lookup cannot see.
		if req.IdempotencyKey != "" {
			existing, findErr := s.adjustmentRepo.FindByIdempotencyKey(txCtx, tenantID, req.IdempotencyKey)
			if findErr == nil {
				replay = existing
				return nil
			}
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return findErr
			}
		}

		if _, findErr := s.locationRepo.FindByID(txCtx, tenantID, locationID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("location not found: %s", req.LocationID)
			}
			return findErr
		}

		// Validate every line before moving anything.
		productIDs := make([]uuid.UUID, 0, len(req.Items))
		seen := make(map[uuid.UUID]bool, len(req.Items))
		for _, itemReq := range req.Items {
			pid, parseErr := uuid.Parse(itemReq.ProductID)
			if parseErr != nil {
				return validationf("invalid product_id: %v", parseErr)
			}
			product, findErr := s.productRepo.FindByID(txCtx, tenantID, pid)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return validationf("product not found: %s", itemReq.ProductID)
				}
				return findErr
			}
			if !product.StockTracked || !product.Active {
				return validationf("product %s is not stock-tracked and active", product.SKU)
			}
			if itemReq.QuantityChange.IsZero() {
				return validationf("quantity change must be non-zero for product %s", product.SKU)
			}
			if seen[pid] {
				return validationf("duplicate product %s in adjustment", product.SKU)
			}
			seen[pid] = true
			productIDs = append(productIDs, pid)
		}

		adjustment.ID = uuid.Nil
		if createErr := s.adjustmentRepo.Create(txCtx, &adjustment); createErr != nil {
			return createErr
		}

		for i, itemReq := range req.Items {
			line := &model.InventoryAdjustmentItem{
				AdjustmentID:   adjustment.ID,
				ProductID:      productIDs[i],
				QuantityChange: itemReq.QuantityChange,
			}
			if createErr := s.adjustmentRepo.CreateItem(txCtx, line); createErr != nil {
				return createErr
			}

			if _, moveErr := s.stock.ApplyMovementTx(txCtx, MovementInput{
				TenantID:       tenantID,
				ProductID:      productIDs[i],
				LocationID:     locationID,
				Type:           model.TxTypeAdjustment,
				QuantityChange: itemReq.QuantityChange,
				UserID:         userID,
				Related:        model.RelatedDocument{Kind: model.RelatedAdjustment, ID: adjustment.ID},
			}); moveErr != nil {
				return moveErr
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"location_id": req.LocationID,
			"reason_code": req.ReasonCode,
			"item_count":  len(req.Items),
		})
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionPostAdjustment,
			EntityID:   adjustment.ID.String(),
			EntityName: req.ReasonCode,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})

	if err != nil {
		// Concurrent retry committed the same key first: surface its result.
		if req.IdempotencyKey != "" && isUniqueViolationOn(err, "uniq_adjustment_idem_key") {
			existing, findErr := s.adjustmentRepo.FindByIdempotencyKey(ctx, tenantID, req.IdempotencyKey)
			if findErr == nil {
				return toAdjustmentResponse(existing), nil
			}
		}
		return nil, err
	}
	if replay != nil {
		return toAdjustmentResponse(replay), nil
	}

	for i := range req.Items {
		pid, _ := uuid.Parse(req.Items[i].ProductID)
		s.stock.PublishStockLevel(ctx, tenantID, pid, locationID)
	}

	created, err := s.adjustmentRepo.FindByIDWithItems(ctx, tenantID, adjustment.ID)
	if err != nil {
		return nil, err
	}
	return toAdjustmentResponse(created), nil
}

func (s *adjustmentService) GetAdjustment(ctx context.Context, tenantID uuid.UUID, id string) (*AdjustmentResponse, error) {
	adjustmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("invalid adjustment id: %v", err)
	}

	adjustment, err := s.adjustmentRepo.FindByIDWithItems(ctx, tenantID, adjustmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("adjustment not found: %s", id)
		}
		return nil, err
	}
	return toAdjustmentResponse(adjustment), nil
}

func (s *adjustmentService) ListAdjustments(ctx context.Context, tenantID uuid.UUID, locationID string, page, limit int) ([]AdjustmentResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var locFilter *uuid.UUID
	if locationID != "" {
		parsed, err := uuid.Parse(locationID)
		if err != nil {
			return nil, 0, validationf("invalid location_id: %v", err)
		}
		locFilter = &parsed
	}

	adjustments, total, err := s.adjustmentRepo.List(ctx, tenantID, locFilter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AdjustmentResponse, 0, len(adjustments))
	for i := range adjustments {
		res = append(res, *toAdjustmentResponse(&adjustments[i]))
	}
	return res, total, nil
}

func toAdjustmentResponse(adj *model.InventoryAdjustment) *AdjustmentResponse {
	items := make([]AdjustmentItemResponse, 0, len(adj.Items))
	for _, item := range adj.Items {
		items = append(items, AdjustmentItemResponse{
			ProductID:      item.ProductID.String(),
			QuantityChange: item.QuantityChange,
		})
	}
	return &AdjustmentResponse{
		ID:         adj.ID.String(),
		LocationID: adj.LocationID.String(),
		ReasonCode: adj.ReasonCode,
		Notes:      adj.Notes,
		Items:      items,
		CreatedAt:  adj.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
