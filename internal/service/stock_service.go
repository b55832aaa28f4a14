package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/repository"
	ws "github.com/Robertishimwe/inveprobackend-sub001/internal/websocket"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// MovementInput describes one stock movement: a signed on-hand change at a
// (tenant, product, location) triple, tagged with its reason and originating
// document. Every workflow in the engine funnels through this shape.
type MovementInput struct {
	TenantID       uuid.UUID
	ProductID      uuid.UUID
	LocationID     uuid.UUID
	Type           string
	QuantityChange decimal.Decimal
	UnitCost       *decimal.Decimal
	UserID         *uuid.UUID
	Related        model.RelatedDocument
	IdempotencyKey string
}

// StockLevelEvent is pushed to websocket clients after each committed
// counter change so terminals can refresh live stock.
type StockLevelEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// StockService owns the movement primitive: the combined ledger append plus
// counter update that keeps Σ ledger.quantity_change == item.quantity_on_hand.
// ApplyMovementTx joins the caller's transaction; the workflow services wrap
// their header writes and movements in one unit of work through it.
type StockService interface {
	// ApplyMovement runs the movement in its own transaction with bounded
	// retry on serialization conflicts. A nil entry with nil error means a
	// keyed call was a replay and nothing moved.
	ApplyMovement(ctx context.Context, in MovementInput) (*model.InventoryTransaction, error)
	// ApplyMovementTx applies the movement inside the caller's transaction
	// context. Keyed calls are checked for replay under the item row lock
	// and return (nil, nil) when already applied; the caller is responsible
	// for retry and for publishing the stock level after commit.
	ApplyMovementTx(txCtx context.Context, in MovementInput) (*model.InventoryTransaction, error)

	// Allocate reserves available stock for an open order.
	Allocate(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty decimal.Decimal) error
	// Release returns a reservation; releasing more than is currently
	// allocated fails and leaves state unchanged.
	Release(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty decimal.Decimal) error
	// AdjustIncomingTx shifts the expected-inbound counter, joining the
	// caller's transaction. Transfers use it at ship/receive; the purchase
	// order module uses it when POs are placed.
	AdjustIncomingTx(txCtx context.Context, tenantID, productID, locationID uuid.UUID, delta decimal.Decimal) error

	// Wrappers for the external collaborators.
	RecordSale(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty decimal.Decimal, userID *uuid.UUID, orderID uuid.UUID) error
	RecordReturn(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty decimal.Decimal, userID *uuid.UUID, orderID uuid.UUID) error
	RecordPurchaseReceipt(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty, unitCost decimal.Decimal, userID *uuid.UUID, poID uuid.UUID) error

	// PublishStockLevel broadcasts the current counters for the triple.
	// Best effort: failures are logged, never returned.
	PublishStockLevel(ctx context.Context, tenantID, productID, locationID uuid.UUID)
}

type stockService struct {
	itemRepo   repository.ItemRepository
	ledgerRepo repository.LedgerRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
}

func NewStockService(
	itemRepo repository.ItemRepository,
	ledgerRepo repository.LedgerRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		itemRepo:   itemRepo,
		ledgerRepo: ledgerRepo,
		txManager:  txManager,
		hub:        hub,
	}
}

const (
	conflictRetryAttempts = 3
	conflictRetryBackoff  = 25 * time.Millisecond
)

// isSerializationFailure reports whether the error is a transaction-level
// lock or serialization conflict worth retrying.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}

// isUniqueViolation reports whether the error is a unique constraint
// violation. Check-then-insert paths lean on a database constraint for the
// concurrent case and translate this into their domain error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isUniqueViolationOn narrows a unique violation to one named constraint.
func isUniqueViolationOn(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// withConflictRetry runs fn in a transaction, retrying a bounded number of
// times with backoff when the database reports a serialization conflict.
func withConflictRetry(ctx context.Context, txManager repository.TransactionManager, fn func(txCtx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= conflictRetryAttempts; attempt++ {
		err = txManager.RunInTx(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		if attempt < conflictRetryAttempts {
			time.Sleep(time.Duration(attempt) * conflictRetryBackoff)
		}
	}
	return errors.Join(ErrConcurrencyConflict, err)
}

func (s *stockService) ApplyMovement(ctx context.Context, in MovementInput) (*model.InventoryTransaction, error) {
	var entry *model.InventoryTransaction
	err := withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		entry = nil
		applied, applyErr := s.ApplyMovementTx(txCtx, in)
		if applyErr != nil {
			return applyErr
		}
		entry = applied
		return nil
	})
	if err != nil {
		// A concurrent duplicate that committed between our key check and
		// our append trips the ledger's unique key index; the call it
		// retried has been applied, so this is a replay, not a failure.
		if in.IdempotencyKey != "" && isUniqueViolationOn(err, "uniq_ledger_idem_key") {
			return nil, nil
		}
		return nil, err
	}
	s.PublishStockLevel(ctx, in.TenantID, in.ProductID, in.LocationID)
	return entry, nil
}

func (s *stockService) ApplyMovementTx(txCtx context.Context, in MovementInput) (*model.InventoryTransaction, error) {
	if in.QuantityChange.IsZero() {
		return nil, validationf("quantity change must be non-zero")
	}

	if _, err := s.itemRepo.GetOrCreate(txCtx, in.TenantID, in.ProductID, in.LocationID); err != nil {
		return nil, err
	}

	// Row lock: the average-cost recomputation below is a read-modify-write
	// and must not interleave with a concurrent movement on the same item.
	item, err := s.itemRepo.FindForUpdate(txCtx, in.TenantID, in.ProductID, in.LocationID)
	if err != nil {
		return nil, err
	}

	// Replay check runs under the row lock: a concurrent retry of the same
	// call serializes here, so the second one sees the committed key. A nil
	// entry with nil error means the movement was already applied.
	if in.IdempotencyKey != "" {
		seen, seenErr := s.ledgerRepo.HasIdempotencyKeyForItem(txCtx, in.TenantID, in.ProductID, in.LocationID, in.IdempotencyKey)
		if seenErr != nil {
			return nil, seenErr
		}
		if seen {
			return nil, nil
		}
	}

	entry := &model.InventoryTransaction{
		TenantID:        in.TenantID,
		ProductID:       in.ProductID,
		LocationID:      in.LocationID,
		TransactionType: in.Type,
		QuantityChange:  in.QuantityChange,
		UserID:          in.UserID,
		RelatedKind:     in.Related.Kind,
	}
	if in.Related.Kind != model.RelatedNone && in.Related.Kind != "" {
		relatedID := in.Related.ID
		entry.RelatedID = &relatedID
	} else {
		entry.RelatedKind = model.RelatedNone
	}
	if in.UnitCost != nil {
		entry.UnitCost = decimal.NewNullDecimal(*in.UnitCost)
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		entry.IdempotencyKey = &key
	}

	if err := s.ledgerRepo.Append(txCtx, entry); err != nil {
		return nil, err
	}

	if err := s.itemRepo.IncrementOnHand(txCtx, item.ID, in.QuantityChange); err != nil {
		return nil, err
	}

	if in.UnitCost != nil && in.QuantityChange.IsPositive() {
		if avg, ok := nextAverageCost(item, in.QuantityChange, *in.UnitCost); ok {
			if err := s.itemRepo.SetAverageCost(txCtx, item.ID, avg); err != nil {
				return nil, err
			}
		}
	}

	return entry, nil
}

// nextAverageCost computes the moving weighted average after a costed inbound
// movement: (oldOnHand*oldAvg + qtyIn*cost) / (oldOnHand + qtyIn). Negative
// on-hand baselines are treated as zero so a costed receipt into an oversold
// item resets the average rather than producing garbage.
func nextAverageCost(item *model.InventoryItem, qtyIn, cost decimal.Decimal) (decimal.Decimal, bool) {
	oldOnHand := item.QuantityOnHand
	if oldOnHand.IsNegative() {
		oldOnHand = decimal.Zero
	}
	oldAvg := decimal.Zero
	if item.AverageCost.Valid {
		oldAvg = item.AverageCost.Decimal
	}

	denom := oldOnHand.Add(qtyIn)
	if denom.IsZero() {
		return decimal.Zero, false
	}
	return oldOnHand.Mul(oldAvg).Add(qtyIn.Mul(cost)).Div(denom), true
}

func (s *stockService) Allocate(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return validationf("allocation quantity must be positive")
	}

	err := withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		if _, err := s.itemRepo.GetOrCreate(txCtx, tenantID, productID, locationID); err != nil {
			return err
		}
		// Check-then-write: the availability test needs the row locked or a
		// concurrent sale could oversell between read and update.
		item, err := s.itemRepo.FindForUpdate(txCtx, tenantID, productID, locationID)
		if err != nil {
			return err
		}
		if item.QuantityAvailable().LessThan(qty) {
			return ErrInsufficientStock
		}
		return s.itemRepo.IncrementAllocated(txCtx, item.ID, qty)
	})
	if err != nil {
		return err
	}
	s.PublishStockLevel(ctx, tenantID, productID, locationID)
	return nil
}

func (s *stockService) Release(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return validationf("release quantity must be positive")
	}

	err := withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		item, err := s.itemRepo.FindForUpdate(txCtx, tenantID, productID, locationID)
		if err != nil {
			return err
		}
		if item.QuantityAllocated.LessThan(qty) {
			return ErrInsufficientAllocation
		}
		return s.itemRepo.IncrementAllocated(txCtx, item.ID, qty.Neg())
	})
	if err != nil {
		return err
	}
	s.PublishStockLevel(ctx, tenantID, productID, locationID)
	return nil
}

func (s *stockService) AdjustIncomingTx(txCtx context.Context, tenantID, productID, locationID uuid.UUID, delta decimal.Decimal) error {
	item, err := s.itemRepo.GetOrCreate(txCtx, tenantID, productID, locationID)
	if err != nil {
		return err
	}
	return s.itemRepo.IncrementIncoming(txCtx, item.ID, delta)
}

func (s *stockService) RecordSale(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty decimal.Decimal, userID *uuid.UUID, orderID uuid.UUID) error {
	if !qty.IsPositive() {
		return validationf("sale quantity must be positive")
	}
	_, err := s.ApplyMovement(ctx, MovementInput{
		TenantID:       tenantID,
		ProductID:      productID,
		LocationID:     locationID,
		Type:           model.TxTypeSale,
		QuantityChange: qty.Neg(),
		UserID:         userID,
		Related:        model.RelatedDocument{Kind: model.RelatedOrder, ID: orderID},
	})
	return err
}

func (s *stockService) RecordReturn(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty decimal.Decimal, userID *uuid.UUID, orderID uuid.UUID) error {
	if !qty.IsPositive() {
		return validationf("return quantity must be positive")
	}
	_, err := s.ApplyMovement(ctx, MovementInput{
		TenantID:       tenantID,
		ProductID:      productID,
		LocationID:     locationID,
		Type:           model.TxTypeReturn,
		QuantityChange: qty,
		UserID:         userID,
		Related:        model.RelatedDocument{Kind: model.RelatedOrder, ID: orderID},
	})
	return err
}

func (s *stockService) RecordPurchaseReceipt(ctx context.Context, tenantID, productID, locationID uuid.UUID, qty, unitCost decimal.Decimal, userID *uuid.UUID, poID uuid.UUID) error {
	if !qty.IsPositive() {
		return validationf("receipt quantity must be positive")
	}
	_, err := s.ApplyMovement(ctx, MovementInput{
		TenantID:       tenantID,
		ProductID:      productID,
		LocationID:     locationID,
		Type:           model.TxTypePoReceipt,
		QuantityChange: qty,
		UnitCost:       &unitCost,
		UserID:         userID,
		Related:        model.RelatedDocument{Kind: model.RelatedPurchaseOrder, ID: poID},
	})
	return err
}

func (s *stockService) PublishStockLevel(ctx context.Context, tenantID, productID, locationID uuid.UUID) {
	if s.hub == nil {
		return
	}

	item, err := s.itemRepo.Find(ctx, tenantID, productID, locationID)
	if err != nil {
		log.Println("stock level push skipped:", err)
		return
	}

	payload, err := json.Marshal(StockLevelEvent{
		Event: "stock_level",
		Data: map[string]interface{}{
			"tenant_id":          tenantID.String(),
			"location_id":        locationID.String(),
			"product_id":         productID.String(),
			"quantity_on_hand":   item.QuantityOnHand,
			"quantity_allocated": item.QuantityAllocated,
		},
	})
	if err != nil {
		log.Println("stock level push skipped:", err)
		return
	}

	// Fire and forget: if nothing is draining the hub, drop the event rather
	// than block the request.
	select {
	case s.hub.Broadcast <- ws.Event{TenantID: tenantID, Payload: payload}:
	default:
	}
}
