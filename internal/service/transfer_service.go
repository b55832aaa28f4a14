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
type TransferItemRequest struct {
	ProductID         string          `json:"product_id" binding:"required"`
	QuantityRequested decimal.Decimal `json:"quantity_requested" binding:"required"`
	UomID             string          `json:"uom_id"`
}

type CreateTransferRequest struct {
	SourceLocationID      string                `json:"source_location_id" binding:"required"`
	DestinationLocationID string                `json:"destination_location_id" binding:"required"`
	TrackingNumber        string                `json:"tracking_number"`
	Notes                 string                `json:"notes"`
	Items                 []TransferItemRequest `json:"items" binding:"required,min=1,dive"`
}

type ReceiveTransferItemRequest struct {
	ProductID        string          `json:"product_id" binding:"required"`
	QuantityReceived decimal.Decimal `json:"quantity_received" binding:"required"`
	UomID            string          `json:"uom_id"`
}

type ReceiveTransferRequest struct {
	IdempotencyKey string                       `json:"idempotency_key"`
	Items          []ReceiveTransferItemRequest `json:"items" binding:"required,min=1,dive"`
}

type TransferItemResponse struct {
	ProductID         string          `json:"product_id"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	ConversionFactor  decimal.Decimal `json:"conversion_factor"`
	BaseRequested     decimal.Decimal `json:"base_requested"`
}

type TransferResponse struct {
	ID                    string                 `json:"id"`
	SourceLocationID      string                 `json:"source_location_id"`
	DestinationLocationID string                 `json:"destination_location_id"`
	Status                string                 `json:"status"`
	TrackingNumber        string                 `json:"tracking_number"`
	Items                 []TransferItemResponse `json:"items"`
	CreatedAt             string                 `json:"created_at"`
}

// TransferService moves stock between two locations through the
// DRAFT -> SHIPPED -> PARTIALLY_RECEIVED/COMPLETED lifecycle. Shipping debits
// the source in base units; each receipt credits the destination and tracks
// how much of every line is still in transit.
type TransferService interface {
	Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateTransferRequest) (*TransferResponse, error)
	Ship(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, transferID string) (*TransferResponse, error)
	Receive(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, transferID string, req ReceiveTransferRequest) (*TransferResponse, error)
	Cancel(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, transferID string) (*TransferResponse, error)
	Get(ctx context.Context, tenantID uuid.UUID, transferID string) (*TransferResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]TransferResponse, int64, error)
}

type transferService struct {
	transferRepo repository.TransferRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	uomRepo      repository.UomRepository
	ledgerRepo   repository.LedgerRepository
	auditRepo    repository.AuditRepository
	stock        StockService
	txManager    repository.TransactionManager
}

func NewTransferService(
	transferRepo repository.TransferRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	uomRepo repository.UomRepository,
	ledgerRepo repository.LedgerRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	txManager repository.TransactionManager,
) TransferService {
	return &transferService{
		transferRepo: transferRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		uomRepo:      uomRepo,
		ledgerRepo:   ledgerRepo,
		auditRepo:    auditRepo,
		stock:        stock,
		txManager:    txManager,
	}
}

func (s *transferService) Create(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateTransferRequest) (*TransferResponse, error) {
	if len(req.Items) == 0 {
		return nil, validationf("transfer must contain at least one item")
	}

	sourceID, err := uuid.Parse(req.SourceLocationID)
	if err != nil {
		return nil, validationf("invalid source_location_id: %v", err)
	}
	destinationID, err := uuid.Parse(req.DestinationLocationID)
	if err != nil {
		return nil, validationf("invalid destination_location_id: %v", err)
	}
	if sourceID == destinationID {
		return nil, validationf("source and destination locations must differ")
	}

	transfer := model.InventoryTransfer{
		TenantID:              tenantID,
		SourceLocationID:      sourceID,
		DestinationLocationID: destinationID,
		Status:                model.TransferStatusDraft,
		TrackingNumber:        req.TrackingNumber,
		Notes:                 req.Notes,
		CreatedBy:             userID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, locID := range []uuid.UUID{sourceID, destinationID} {
			if _, findErr := s.locationRepo.FindByID(txCtx, tenantID, locID); findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return validationf("location not found: %s", locID)
				}
				return findErr
			}
		}

		type resolvedLine struct {
			productID uuid.UUID
			uomID     *uuid.UUID
			factor    decimal.Decimal
		}
		lines := make([]resolvedLine, 0, len(req.Items))
		seen := make(map[uuid.UUID]bool, len(req.Items))
		for _, itemReq := range req.Items {
			pid, parseErr := uuid.Parse(itemReq.ProductID)
			if parseErr != nil {
				return validationf("invalid product_id: %v", parseErr)
			}
			if seen[pid] {
				return validationf("duplicate product %s in transfer", itemReq.ProductID)
			}
			seen[pid] = true
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
			if !itemReq.QuantityRequested.IsPositive() {
				return validationf("quantity requested must be positive for product %s", product.SKU)
			}

			line := resolvedLine{productID: pid, factor: decimal.NewFromInt(1)}
			if itemReq.UomID != "" {
				uomID, parseUomErr := uuid.Parse(itemReq.UomID)
				if parseUomErr != nil {
					return validationf("invalid uom_id: %v", parseUomErr)
				}
				uom, uomErr := s.uomRepo.FindByID(txCtx, tenantID, uomID)
				if uomErr != nil {
					if errors.Is(uomErr, gorm.ErrRecordNotFound) {
						return validationf("unit of measure not found: %s", itemReq.UomID)
					}
					return uomErr
				}
				line.uomID = &uomID
				line.factor = uom.ConversionFactor
			}
			lines = append(lines, line)
		}

		if createErr := s.transferRepo.Create(txCtx, &transfer); createErr != nil {
			return createErr
		}

		for i, itemReq := range req.Items {
			item := &model.InventoryTransferItem{
				TransferID:        transfer.ID,
				ProductID:         lines[i].productID,
				QuantityRequested: itemReq.QuantityRequested,
				UomID:             lines[i].uomID,
				ConversionFactor:  lines[i].factor,
			}
			if createErr := s.transferRepo.CreateItem(txCtx, item); createErr != nil {
				return createErr
			}
		}

		return s.logTransferAudit(txCtx, tenantID, userID, model.ActionCreateTransfer, &transfer, map[string]interface{}{
			"source_location_id":      req.SourceLocationID,
			"destination_location_id": req.DestinationLocationID,
			"item_count":              len(req.Items),
		})
	})

	if err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, transfer.ID.String())
}

func (s *transferService) Ship(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, transferID string) (*TransferResponse, error) {
	id, err := uuid.Parse(transferID)
	if err != nil {
		return nil, validationf("invalid transfer id: %v", err)
	}

	var transfer *model.InventoryTransfer
	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		found, findErr := s.transferRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("transfer not found: %s", transferID)
			}
			return findErr
		}
		transfer = found

		if transfer.Status != model.TransferStatusDraft {
			return invalidStatef("cannot ship transfer in status %s", transfer.Status)
		}

		for i := range transfer.Items {
			line := &transfer.Items[i]
			baseQty := line.BaseRequested()

			if _, moveErr := s.stock.ApplyMovementTx(txCtx, MovementInput{
				TenantID:       tenantID,
				ProductID:      line.ProductID,
				LocationID:     transfer.SourceLocationID,
				Type:           model.TxTypeTransferOut,
				QuantityChange: baseQty.Neg(),
				UserID:         userID,
				Related:        model.RelatedDocument{Kind: model.RelatedTransfer, ID: transfer.ID},
			}); moveErr != nil {
				return moveErr
			}

			// In-transit stock is expected at the destination from now on.
			if incErr := s.stock.AdjustIncomingTx(txCtx, tenantID, line.ProductID, transfer.DestinationLocationID, baseQty); incErr != nil {
				return incErr
			}
		}

		now := time.Now()
		transfer.Status = model.TransferStatusShipped
		transfer.ShippedAt = &now
		if saveErr := s.transferRepo.Save(txCtx, transfer); saveErr != nil {
			return saveErr
		}

		return s.logTransferAudit(txCtx, tenantID, userID, model.ActionShipTransfer, transfer, nil)
	})

	if err != nil {
		return nil, err
	}

	s.publishTransferStockLevels(ctx, transfer)
	return toTransferResponse(transfer), nil
}

func (s *transferService) Receive(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, transferID string, req ReceiveTransferRequest) (*TransferResponse, error) {
	id, err := uuid.Parse(transferID)
	if err != nil {
		return nil, validationf("invalid transfer id: %v", err)
	}
	if len(req.Items) == 0 {
		return nil, validationf("receive must contain at least one item")
	}

	var transfer *model.InventoryTransfer
	var replayed bool
	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		replayed = false
		found, findErr := s.transferRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("transfer not found: %s", transferID)
			}
			return findErr
		}
		transfer = found

		if transfer.Status != model.TransferStatusShipped && transfer.Status != model.TransferStatusPartiallyReceived {
			return invalidStatef("cannot receive transfer in status %s", transfer.Status)
		}

		if req.IdempotencyKey != "" {
			seen, seenErr := s.ledgerRepo.HasIdempotencyKey(txCtx, tenantID, req.IdempotencyKey)
			if seenErr != nil {
				return seenErr
			}
			if seen {
				replayed = true
				return nil
			}
		}

		lineByProduct := make(map[uuid.UUID]*model.InventoryTransferItem, len(transfer.Items))
		for i := range transfer.Items {
			lineByProduct[transfer.Items[i].ProductID] = &transfer.Items[i]
		}

		received := make(map[uuid.UUID]bool, len(req.Items))
		for _, itemReq := range req.Items {
			pid, parseErr := uuid.Parse(itemReq.ProductID)
			if parseErr != nil {
				return validationf("invalid product_id: %v", parseErr)
			}
			if received[pid] {
				return validationf("duplicate product %s in receive", itemReq.ProductID)
			}
			received[pid] = true
			line, ok := lineByProduct[pid]
			if !ok {
				return validationf("product %s is not part of this transfer", itemReq.ProductID)
			}
			if !itemReq.QuantityReceived.IsPositive() {
				return validationf("quantity received must be positive")
			}

			// The stored conversion factor applies unless the caller receives
			// in a different unit and says so.
			factor := line.ConversionFactor
			if itemReq.UomID != "" {
				uomID, parseUomErr := uuid.Parse(itemReq.UomID)
				if parseUomErr != nil {
					return validationf("invalid uom_id: %v", parseUomErr)
				}
				uom, uomErr := s.uomRepo.FindByID(txCtx, tenantID, uomID)
				if uomErr != nil {
					if errors.Is(uomErr, gorm.ErrRecordNotFound) {
						return validationf("unit of measure not found: %s", itemReq.UomID)
					}
					return uomErr
				}
				factor = uom.ConversionFactor
			}

			baseQty := itemReq.QuantityReceived.Mul(factor)
			if baseQty.GreaterThan(line.OutstandingBase()) {
				return validationf("receiving %s base units exceeds outstanding %s for product %s",
					baseQty, line.OutstandingBase(), itemReq.ProductID)
			}

			if _, moveErr := s.stock.ApplyMovementTx(txCtx, MovementInput{
				TenantID:       tenantID,
				ProductID:      line.ProductID,
				LocationID:     transfer.DestinationLocationID,
				Type:           model.TxTypeTransferIn,
				QuantityChange: baseQty,
				UserID:         userID,
				Related:        model.RelatedDocument{Kind: model.RelatedTransfer, ID: transfer.ID},
				IdempotencyKey: req.IdempotencyKey,
			}); moveErr != nil {
				return moveErr
			}

			if incErr := s.stock.AdjustIncomingTx(txCtx, tenantID, line.ProductID, transfer.DestinationLocationID, baseQty.Neg()); incErr != nil {
				return incErr
			}

			line.QuantityReceived = line.QuantityReceived.Add(baseQty)
			if saveErr := s.transferRepo.SaveItem(txCtx, line); saveErr != nil {
				return saveErr
			}
		}

		complete := true
		for i := range transfer.Items {
			if !transfer.Items[i].FullyReceived() {
				complete = false
				break
			}
		}
		if complete {
			now := time.Now()
			transfer.Status = model.TransferStatusCompleted
			transfer.CompletedAt = &now
		} else {
			transfer.Status = model.TransferStatusPartiallyReceived
		}
		if saveErr := s.transferRepo.Save(txCtx, transfer); saveErr != nil {
			return saveErr
		}

		return s.logTransferAudit(txCtx, tenantID, userID, model.ActionReceiveTransfer, transfer, map[string]interface{}{
			"item_count": len(req.Items),
			"status":     transfer.Status,
		})
	})

	if err != nil {
		return nil, err
	}

	if !replayed {
		s.publishTransferStockLevels(ctx, transfer)
	}
	return toTransferResponse(transfer), nil
}

func (s *transferService) Cancel(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, transferID string) (*TransferResponse, error) {
	id, err := uuid.Parse(transferID)
	if err != nil {
		return nil, validationf("invalid transfer id: %v", err)
	}

	var transfer *model.InventoryTransfer
	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		found, findErr := s.transferRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("transfer not found: %s", transferID)
			}
			return findErr
		}
		transfer = found

		switch transfer.Status {
		case model.TransferStatusDraft:
			// Nothing has moved yet.
		case model.TransferStatusShipped:
			for i := range transfer.Items {
				if !transfer.Items[i].QuantityReceived.IsZero() {
					return invalidStatef("cannot cancel transfer with received stock")
				}
			}
			// Reverse the shipped quantities back to the source and drop the
			// destination's expectation.
			for i := range transfer.Items {
				line := &transfer.Items[i]
				baseQty := line.BaseRequested()

				if _, moveErr := s.stock.ApplyMovementTx(txCtx, MovementInput{
					TenantID:       tenantID,
					ProductID:      line.ProductID,
					LocationID:     transfer.SourceLocationID,
					Type:           model.TxTypeTransferCancel,
					QuantityChange: baseQty,
					UserID:         userID,
					Related:        model.RelatedDocument{Kind: model.RelatedTransfer, ID: transfer.ID},
				}); moveErr != nil {
					return moveErr
				}

				if incErr := s.stock.AdjustIncomingTx(txCtx, tenantID, line.ProductID, transfer.DestinationLocationID, baseQty.Neg()); incErr != nil {
					return incErr
				}
			}
		default:
			return invalidStatef("cannot cancel transfer in status %s", transfer.Status)
		}

		transfer.Status = model.TransferStatusCancelled
		if saveErr := s.transferRepo.Save(txCtx, transfer); saveErr != nil {
			return saveErr
		}

		return s.logTransferAudit(txCtx, tenantID, userID, model.ActionCancelTransfer, transfer, nil)
	})

	if err != nil {
		return nil, err
	}

	s.publishTransferStockLevels(ctx, transfer)
	return toTransferResponse(transfer), nil
}

func (s *transferService) Get(ctx context.Context, tenantID uuid.UUID, transferID string) (*TransferResponse, error) {
	id, err := uuid.Parse(transferID)
	if err != nil {
		return nil, validationf("invalid transfer id: %v", err)
	}

	transfer, err := s.transferRepo.FindByIDWithItems(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("transfer not found: %s", transferID)
		}
		return nil, err
	}
	return toTransferResponse(transfer), nil
}

func (s *transferService) List(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]TransferResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	transfers, total, err := s.transferRepo.List(ctx, tenantID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		res = append(res, *toTransferResponse(&transfers[i]))
	}
	return res, total, nil
}

func (s *transferService) logTransferAudit(txCtx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action string, transfer *model.InventoryTransfer, extra map[string]interface{}) error {
	payload := map[string]interface{}{
		"transfer_id": transfer.ID.String(),
		"status":      transfer.Status,
	}
	for k, v := range extra {
		payload[k] = v
	}
	details, _ := json.Marshal(payload)

	return s.auditRepo.Log(txCtx, &model.AuditLog{
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityID:   transfer.ID.String(),
		EntityName: transfer.TrackingNumber,
		Details:    string(details),
	})
}

func (s *transferService) publishTransferStockLevels(ctx context.Context, transfer *model.InventoryTransfer) {
	if transfer == nil {
		return
	}
	for i := range transfer.Items {
		s.stock.PublishStockLevel(ctx, transfer.TenantID, transfer.Items[i].ProductID, transfer.SourceLocationID)
		s.stock.PublishStockLevel(ctx, transfer.TenantID, transfer.Items[i].ProductID, transfer.DestinationLocationID)
	}
}

func toTransferResponse(transfer *model.InventoryTransfer) *TransferResponse {
	items := make([]TransferItemResponse, 0, len(transfer.Items))
	for i := range transfer.Items {
		line := &transfer.Items[i]
		items = append(items, TransferItemResponse{
			ProductID:         line.ProductID.String(),
			QuantityRequested: line.QuantityRequested,
			QuantityReceived:  line.QuantityReceived,
			ConversionFactor:  line.ConversionFactor,
			BaseRequested:     line.BaseRequested(),
		})
	}
	return &TransferResponse{
		ID:                    transfer.ID.String(),
		SourceLocationID:      transfer.SourceLocationID.String(),
		DestinationLocationID: transfer.DestinationLocationID.String(),
		Status:                transfer.Status,
		TrackingNumber:        transfer.TrackingNumber,
		Items:                 items,
		CreatedAt:             transfer.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
