package service

import (
	"context"
	"errors"
	"time"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryItemResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	LocationID        string           `json:"location_id"`
	QuantityOnHand    decimal.Decimal  `json:"quantity_on_hand"`
	QuantityAllocated decimal.Decimal  `json:"quantity_allocated"`
	QuantityIncoming  decimal.Decimal  `json:"quantity_incoming"`
	QuantityAvailable decimal.Decimal  `json:"quantity_available"`
	AverageCost       *decimal.Decimal `json:"average_cost,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type LedgerEntryResponse struct {
	ID             int64            `json:"id"`
	ProductID      string           `json:"product_id"`
	LocationID     string           `json:"location_id"`
	Type           string           `json:"type"`
	QuantityChange decimal.Decimal  `json:"quantity_change"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	RelatedKind    string           `json:"related_kind"`
	RelatedID      *string          `json:"related_id,omitempty"`
	UserID         *string          `json:"user_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ReconciliationResult reports the sweep outcome for one stock counter row.
// The ledger is the source of truth; Drift is counter minus ledger sum.
type ReconciliationResult struct {
	ProductID     string          `json:"product_id"`
	LocationID    string          `json:"location_id"`
	CounterOnHand decimal.Decimal `json:"counter_on_hand"`
	LedgerSum     decimal.Decimal `json:"ledger_sum"`
	Drift         decimal.Decimal `json:"drift"`
	Consistent    bool            `json:"consistent"`
}

// InventoryService serves read-side queries over the stock counters and the
// ledger, plus the counter-vs-ledger verification sweep.
type InventoryService interface {
	GetItem(ctx context.Context, tenantID uuid.UUID, productID, locationID string) (*InventoryItemResponse, error)
	ListByLocation(ctx context.Context, tenantID uuid.UUID, locationID string, page, limit int) ([]InventoryItemResponse, int64, error)
	ListByProduct(ctx context.Context, tenantID uuid.UUID, productID string) ([]InventoryItemResponse, error)
	LedgerByProduct(ctx context.Context, tenantID uuid.UUID, productID string, page, limit int) ([]LedgerEntryResponse, int64, error)
	LedgerByDateRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time, page, limit int) ([]LedgerEntryResponse, int64, error)
	ReconcileLocation(ctx context.Context, tenantID uuid.UUID, locationID string) ([]ReconciliationResult, error)
}

type inventoryService struct {
	itemRepo   repository.ItemRepository
	ledgerRepo repository.LedgerRepository
}

func NewInventoryService(itemRepo repository.ItemRepository, ledgerRepo repository.LedgerRepository) InventoryService {
	return &inventoryService{itemRepo: itemRepo, ledgerRepo: ledgerRepo}
}

func (s *inventoryService) GetItem(ctx context.Context, tenantID uuid.UUID, productID, locationID string) (*InventoryItemResponse, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, validationf("invalid product_id: %v", err)
	}
	lid, err := uuid.Parse(locationID)
	if err != nil {
		return nil, validationf("invalid location_id: %v", err)
	}

	item, err := s.itemRepo.Find(ctx, tenantID, pid, lid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No row means no movement has ever touched the triple. Report a
			// zero baseline instead of 404 so clients need no special case.
			return &InventoryItemResponse{
				ProductID:  productID,
				LocationID: locationID,
			}, nil
		}
		return nil, err
	}
	return toInventoryItemResponse(item), nil
}

func (s *inventoryService) ListByLocation(ctx context.Context, tenantID uuid.UUID, locationID string, page, limit int) ([]InventoryItemResponse, int64, error) {
	lid, err := uuid.Parse(locationID)
	if err != nil {
		return nil, 0, validationf("invalid location_id: %v", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	items, total, err := s.itemRepo.ListByLocation(ctx, tenantID, lid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]InventoryItemResponse, 0, len(items))
	for i := range items {
		res = append(res, *toInventoryItemResponse(&items[i]))
	}
	return res, total, nil
}

func (s *inventoryService) ListByProduct(ctx context.Context, tenantID uuid.UUID, productID string) ([]InventoryItemResponse, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, validationf("invalid product_id: %v", err)
	}

	items, err := s.itemRepo.ListByProduct(ctx, tenantID, pid)
	if err != nil {
		return nil, err
	}

	res := make([]InventoryItemResponse, 0, len(items))
	for i := range items {
		res = append(res, *toInventoryItemResponse(&items[i]))
	}
	return res, nil
}

func (s *inventoryService) LedgerByProduct(ctx context.Context, tenantID uuid.UUID, productID string, page, limit int) ([]LedgerEntryResponse, int64, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, 0, validationf("invalid product_id: %v", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	entries, total, err := s.ledgerRepo.ListByProduct(ctx, tenantID, pid, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toLedgerEntryResponses(entries), total, nil
}

func (s *inventoryService) LedgerByDateRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time, page, limit int) ([]LedgerEntryResponse, int64, error) {
	if to.Before(from) {
		return nil, 0, validationf("date range end precedes start")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	entries, total, err := s.ledgerRepo.ListByDateRange(ctx, tenantID, from, to, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toLedgerEntryResponses(entries), total, nil
}

// ReconcileLocation checks every stock counter at the location against the
// full ledger sum for its triple. It is a diagnostic read and never repairs
// drift itself.
func (s *inventoryService) ReconcileLocation(ctx context.Context, tenantID uuid.UUID, locationID string) ([]ReconciliationResult, error) {
	lid, err := uuid.Parse(locationID)
	if err != nil {
		return nil, validationf("invalid location_id: %v", err)
	}

	results := make([]ReconciliationResult, 0)
	page := 1
	const batch = 200
	for {
		items, total, listErr := s.itemRepo.ListByLocation(ctx, tenantID, lid, page, batch)
		if listErr != nil {
			return nil, listErr
		}
		for i := range items {
			item := &items[i]
			sum, sumErr := s.ledgerRepo.SumQuantityChange(ctx, tenantID, item.ProductID, item.LocationID)
			if sumErr != nil {
				return nil, sumErr
			}
			drift := item.QuantityOnHand.Sub(sum)
			results = append(results, ReconciliationResult{
				ProductID:     item.ProductID.String(),
				LocationID:    item.LocationID.String(),
				CounterOnHand: item.QuantityOnHand,
				LedgerSum:     sum,
				Drift:         drift,
				Consistent:    drift.IsZero(),
			})
		}
		if int64(page*batch) >= total || len(items) == 0 {
			break
		}
		page++
	}
	return results, nil
}

func toInventoryItemResponse(item *model.InventoryItem) *InventoryItemResponse {
	res := &InventoryItemResponse{
		ID:                item.ID.String(),
		ProductID:         item.ProductID.String(),
		LocationID:        item.LocationID.String(),
		QuantityOnHand:    item.QuantityOnHand,
		QuantityAllocated: item.QuantityAllocated,
		QuantityIncoming:  item.QuantityIncoming,
		QuantityAvailable: item.QuantityAvailable(),
		UpdatedAt:         item.UpdatedAt,
	}
	if item.AverageCost.Valid {
		v := item.AverageCost.Decimal
		res.AverageCost = &v
	}
	return res
}

func toLedgerEntryResponses(entries []model.InventoryTransaction) []LedgerEntryResponse {
	res := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		item := LedgerEntryResponse{
			ID:             e.ID,
			ProductID:      e.ProductID.String(),
			LocationID:     e.LocationID.String(),
			Type:           e.TransactionType,
			QuantityChange: e.QuantityChange,
			RelatedKind:    e.RelatedKind,
			CreatedAt:      e.CreatedAt,
		}
		if e.UnitCost.Valid {
			v := e.UnitCost.Decimal
			item.UnitCost = &v
		}
		if e.RelatedID != nil {
			v := e.RelatedID.String()
			item.RelatedID = &v
		}
		if e.UserID != nil {
			v := e.UserID.String()
			item.UserID = &v
		}
		res = append(res, item)
	}
	return res
}
