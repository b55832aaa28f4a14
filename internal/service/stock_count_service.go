package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type InitiateCountRequest struct {
	LocationID string   `json:"location_id" binding:"required"`
	Type       string   `json:"type" binding:"required,oneof=FULL PARTIAL"`
	Notes      string   `json:"notes"`
	ProductIDs []string `json:"product_ids"` // required for PARTIAL, ignored for FULL
}

type EnterCountItemRequest struct {
	ItemID          string          `json:"item_id" binding:"required"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
}

type EnterCountsRequest struct {
	Items []EnterCountItemRequest `json:"items" binding:"required,min=1,dive"`
}

type ReviewCountItemRequest struct {
	ItemID string `json:"item_id" binding:"required"`
	Action string `json:"action" binding:"required,oneof=APPROVED REJECTED"`
	Notes  string `json:"notes"`
}

type ReviewCountsRequest struct {
	Items []ReviewCountItemRequest `json:"items" binding:"required,min=1,dive"`
}

type PostCountRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
}

type StockCountItemResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	SnapshotQuantity decimal.Decimal  `json:"snapshot_quantity"`
	CountedQuantity  *decimal.Decimal `json:"counted_quantity,omitempty"`
	Variance         *decimal.Decimal `json:"variance,omitempty"`
	Status           string           `json:"status"`
}

type StockCountResponse struct {
	ID         string                   `json:"id"`
	LocationID string                   `json:"location_id"`
	Type       string                   `json:"type"`
	Status     string                   `json:"status"`
	Notes      string                   `json:"notes"`
	Items      []StockCountItemResponse `json:"items"`
	CreatedAt  string                   `json:"created_at"`
}

// StockCountService runs the physical count workflow:
// PENDING -> COUNTING -> REVIEWED -> COMPLETED. Initiation snapshots on-hand
// quantities, counting and review never touch inventory, and posting emits
// one COUNT_RECONCILE ledger entry per approved line with non-zero variance.
type StockCountService interface {
	Initiate(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req InitiateCountRequest) (*StockCountResponse, error)
	EnterCounts(ctx context.Context, tenantID uuid.UUID, countID string, req EnterCountsRequest) (*StockCountResponse, error)
	Review(ctx context.Context, tenantID uuid.UUID, countID string, req ReviewCountsRequest) (*StockCountResponse, error)
	Post(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, countID string, req PostCountRequest) (*StockCountResponse, error)
	Get(ctx context.Context, tenantID uuid.UUID, countID string) (*StockCountResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, locationID, status string, page, limit int) ([]StockCountResponse, int64, error)
}

type stockCountService struct {
	countRepo    repository.StockCountRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	itemRepo     repository.ItemRepository
	auditRepo    repository.AuditRepository
	stock        StockService
	txManager    repository.TransactionManager
}

func NewStockCountService(
	countRepo repository.StockCountRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	itemRepo repository.ItemRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	txManager repository.TransactionManager,
) StockCountService {
	return &stockCountService{
		countRepo:    countRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		itemRepo:     itemRepo,
		auditRepo:    auditRepo,
		stock:        stock,
		txManager:    txManager,
	}
}

func (s *stockCountService) Initiate(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req InitiateCountRequest) (*StockCountResponse, error) {
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, validationf("invalid location_id: %v", err)
	}
	if req.Type == model.CountTypePartial && len(req.ProductIDs) == 0 {
		return nil, validationf("partial count requires product_ids")
	}

	count := model.StockCount{
		TenantID:   tenantID,
		LocationID: locationID,
		Type:       req.Type,
		Status:     model.CountStatusPending,
		Notes:      req.Notes,
		CreatedBy:  userID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.locationRepo.FindByID(txCtx, tenantID, locationID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("location not found: %s", req.LocationID)
			}
			return findErr
		}

		var productIDs []uuid.UUID
		if req.Type == model.CountTypeFull {
			products, listErr := s.productRepo.ListStockTracked(txCtx, tenantID)
			if listErr != nil {
				return listErr
			}
			for _, p := range products {
				productIDs = append(productIDs, p.ID)
			}
		} else {
			for _, raw := range req.ProductIDs {
				pid, parseErr := uuid.Parse(raw)
				if parseErr != nil {
					return validationf("invalid product_id: %v", parseErr)
				}
				product, findErr := s.productRepo.FindByID(txCtx, tenantID, pid)
				if findErr != nil {
					if errors.Is(findErr, gorm.ErrRecordNotFound) {
						return validationf("product not found: %s", raw)
					}
					return findErr
				}
				if !product.StockTracked || !product.Active {
					return validationf("product %s is not stock-tracked and active", product.SKU)
				}
				productIDs = append(productIDs, pid)
			}
		}

		if len(productIDs) == 0 {
			return validationf("no stock-tracked products to count at this location")
		}

		if createErr := s.countRepo.Create(txCtx, &count); createErr != nil {
			return createErr
		}

		// Snapshot measures physical stock, so it captures on-hand directly
		// rather than available-minus-allocated.
		for _, pid := range productIDs {
			snapshot := decimal.Zero
			item, findErr := s.itemRepo.Find(txCtx, tenantID, pid, locationID)
			if findErr == nil {
				snapshot = item.QuantityOnHand
			} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return findErr
			}

			line := &model.StockCountItem{
				StockCountID:     count.ID,
				ProductID:        pid,
				SnapshotQuantity: snapshot,
				Status:           model.CountItemPending,
			}
			if createErr := s.countRepo.CreateItem(txCtx, line); createErr != nil {
				return createErr
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"location_id": req.LocationID,
			"type":        req.Type,
			"item_count":  len(productIDs),
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID: tenantID,
			UserID:   userID,
			Action:   model.ActionInitiateCount,
			EntityID: count.ID.String(),
			Details:  string(details),
		})
	})

	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, count.ID.String())
}

func (s *stockCountService) EnterCounts(ctx context.Context, tenantID uuid.UUID, countID string, req EnterCountsRequest) (*StockCountResponse, error) {
	id, err := uuid.Parse(countID)
	if err != nil {
		return nil, validationf("invalid stock count id: %v", err)
	}

	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		count, findErr := s.countRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("stock count not found: %s", countID)
			}
			return findErr
		}

		if count.Status != model.CountStatusPending && count.Status != model.CountStatusCounting {
			return invalidStatef("cannot enter counts in status %s", count.Status)
		}

		lineByID := make(map[uuid.UUID]*model.StockCountItem, len(count.Items))
		for i := range count.Items {
			lineByID[count.Items[i].ID] = &count.Items[i]
		}

		for _, itemReq := range req.Items {
			itemID, parseErr := uuid.Parse(itemReq.ItemID)
			if parseErr != nil {
				return validationf("invalid item_id: %v", parseErr)
			}
			line, ok := lineByID[itemID]
			if !ok {
				return validationf("item %s is not part of this stock count", itemReq.ItemID)
			}
			if line.Reviewed() {
				return invalidStatef("item %s has already been reviewed", itemReq.ItemID)
			}
			if itemReq.CountedQuantity.IsNegative() {
				return validationf("counted quantity cannot be negative")
			}

			line.SetCounted(itemReq.CountedQuantity)
			if saveErr := s.countRepo.SaveItem(txCtx, line); saveErr != nil {
				return saveErr
			}
		}

		if count.Status == model.CountStatusPending {
			count.Status = model.CountStatusCounting
			if saveErr := s.countRepo.Save(txCtx, count); saveErr != nil {
				return saveErr
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, countID)
}

func (s *stockCountService) Review(ctx context.Context, tenantID uuid.UUID, countID string, req ReviewCountsRequest) (*StockCountResponse, error) {
	id, err := uuid.Parse(countID)
	if err != nil {
		return nil, validationf("invalid stock count id: %v", err)
	}

	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		count, findErr := s.countRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("stock count not found: %s", countID)
			}
			return findErr
		}

		if count.Status != model.CountStatusCounting && count.Status != model.CountStatusReviewed {
			return invalidStatef("cannot review stock count in status %s", count.Status)
		}

		lineByID := make(map[uuid.UUID]*model.StockCountItem, len(count.Items))
		for i := range count.Items {
			lineByID[count.Items[i].ID] = &count.Items[i]
		}

		for _, itemReq := range req.Items {
			itemID, parseErr := uuid.Parse(itemReq.ItemID)
			if parseErr != nil {
				return validationf("invalid item_id: %v", parseErr)
			}
			line, ok := lineByID[itemID]
			if !ok {
				return validationf("item %s is not part of this stock count", itemReq.ItemID)
			}
			if itemReq.Action == model.CountItemApproved && line.Status == model.CountItemPending {
				return invalidStatef("item %s has no recorded count to approve", itemReq.ItemID)
			}

			line.Status = itemReq.Action
			line.ReviewNotes = itemReq.Notes
			if saveErr := s.countRepo.SaveItem(txCtx, line); saveErr != nil {
				return saveErr
			}
		}

		allReviewed := true
		for i := range count.Items {
			if !count.Items[i].Reviewed() {
				allReviewed = false
				break
			}
		}
		if allReviewed && count.Status != model.CountStatusReviewed {
			count.Status = model.CountStatusReviewed
			if saveErr := s.countRepo.Save(txCtx, count); saveErr != nil {
				return saveErr
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, countID)
}

func (s *stockCountService) Post(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, countID string, req PostCountRequest) (*StockCountResponse, error) {
	id, err := uuid.Parse(countID)
	if err != nil {
		return nil, validationf("invalid stock count id: %v", err)
	}

	var count *model.StockCount
	var replayed bool
	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		replayed = false
		found, findErr := s.countRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("stock count not found: %s", countID)
			}
			return findErr
		}
		count = found

		if count.Status == model.CountStatusCompleted {
			// Posting a completed count is a replay, not an error, when the
			// caller presents the key it was completed with.
			if req.IdempotencyKey != "" && count.IdempotencyKey != nil && *count.IdempotencyKey == req.IdempotencyKey {
				replayed = true
				return nil
			}
			return invalidStatef("stock count is already completed")
		}
		// A count that never reached REVIEWED still has unreviewed lines;
		// that is the incomplete-count case, not a lifecycle violation.
		if count.Status == model.CountStatusPending || count.Status == model.CountStatusCounting {
			return incompleteCountf("stock count is in status %s", count.Status)
		}
		if count.Status != model.CountStatusReviewed {
			return invalidStatef("cannot post stock count in status %s", count.Status)
		}

		for i := range count.Items {
			if !count.Items[i].Reviewed() {
				return incompleteCountf("item %s has not been reviewed", count.Items[i].ID)
			}
		}

		for i := range count.Items {
			line := &count.Items[i]
			if line.Status != model.CountItemApproved || !line.Variance.Valid || line.Variance.Decimal.IsZero() {
				continue
			}

			if _, moveErr := s.stock.ApplyMovementTx(txCtx, MovementInput{
				TenantID:       tenantID,
				ProductID:      line.ProductID,
				LocationID:     count.LocationID,
				Type:           model.TxTypeCountReconcile,
				QuantityChange: line.Variance.Decimal,
				UserID:         userID,
				Related:        model.RelatedDocument{Kind: model.RelatedStockCount, ID: count.ID},
				IdempotencyKey: req.IdempotencyKey,
			}); moveErr != nil {
				return moveErr
			}
		}

		now := time.Now()
		count.Status = model.CountStatusCompleted
		count.CompletedAt = &now
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			count.IdempotencyKey = &key
		}
		if saveErr := s.countRepo.Save(txCtx, count); saveErr != nil {
			if isUniqueViolationOn(saveErr, "uniq_count_idem_key") {
				return validationf("idempotency key already used by another stock count")
			}
			return saveErr
		}

		details, _ := json.Marshal(map[string]interface{}{
			"location_id": count.LocationID.String(),
			"type":        count.Type,
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID: tenantID,
			UserID:   userID,
			Action:   model.ActionPostCount,
			EntityID: count.ID.String(),
			Details:  string(details),
		})
	})

	if err != nil {
		if isUniqueViolationOn(err, "uniq_ledger_idem_key") {
			return nil, validationf("idempotency key already used by another document")
		}
		return nil, err
	}

	if !replayed {
		for i := range count.Items {
			line := &count.Items[i]
			if line.Status == model.CountItemApproved && line.Variance.Valid && !line.Variance.Decimal.IsZero() {
				s.stock.PublishStockLevel(ctx, tenantID, line.ProductID, count.LocationID)
			}
		}
	}
	return s.Get(ctx, tenantID, countID)
}

func (s *stockCountService) Get(ctx context.Context, tenantID uuid.UUID, countID string) (*StockCountResponse, error) {
	id, err := uuid.Parse(countID)
	if err != nil {
		return nil, validationf("invalid stock count id: %v", err)
	}

	count, err := s.countRepo.FindByIDWithItems(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("stock count not found: %s", countID)
		}
		return nil, err
	}
	return toStockCountResponse(count), nil
}

func (s *stockCountService) List(ctx context.Context, tenantID uuid.UUID, locationID, status string, page, limit int) ([]StockCountResponse, int64, error) {
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

	counts, total, err := s.countRepo.List(ctx, tenantID, locFilter, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]StockCountResponse, 0, len(counts))
	for i := range counts {
		res = append(res, *toStockCountResponse(&counts[i]))
	}
	return res, total, nil
}

func toStockCountResponse(count *model.StockCount) *StockCountResponse {
	items := make([]StockCountItemResponse, 0, len(count.Items))
	for i := range count.Items {
		line := &count.Items[i]
		res := StockCountItemResponse{
			ID:               line.ID.String(),
			ProductID:        line.ProductID.String(),
			SnapshotQuantity: line.SnapshotQuantity,
			Status:           line.Status,
		}
		if line.CountedQuantity.Valid {
			counted := line.CountedQuantity.Decimal
			res.CountedQuantity = &counted
		}
		if line.Variance.Valid {
			variance := line.Variance.Decimal
			res.Variance = &variance
		}
		items = append(items, res)
	}
	return &StockCountResponse{
		ID:         count.ID.String(),
		LocationID: count.LocationID.String(),
		Type:       count.Type,
		Status:     count.Status,
		Notes:      count.Notes,
		Items:      items,
		CreatedAt:  count.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
