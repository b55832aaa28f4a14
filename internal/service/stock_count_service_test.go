package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newStockCountSvc(f *fixtures) StockCountService {
	return NewStockCountService(f.counts, f.products, f.locations, f.items, f.audits, f.stock, f.tx)
}

func TestInitiateFullCountSnapshotsOnHand(t *testing.T) {
	f := newFixtures()
	svc := newStockCountSvc(f)
	p1 := f.addProduct("SKU-1")
	p2 := f.addProduct("SKU-2")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	if err := f.seedStock(p1.ID, location.ID, 8); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// p2 never moved: snapshot must still include it at zero.

	res, err := svc.Initiate(ctx, f.tenantID, nil, InitiateCountRequest{
		LocationID: location.ID.String(),
		Type:       model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if res.Status != model.CountStatusPending {
		t.Errorf("status = %s, want PENDING", res.Status)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(res.Items))
	}

	snapshots := map[string]decimal.Decimal{}
	for _, item := range res.Items {
		snapshots[item.ProductID] = item.SnapshotQuantity
	}
	if !snapshots[p1.ID.String()].Equal(decimal.NewFromInt(8)) {
		t.Errorf("p1 snapshot = %s, want 8", snapshots[p1.ID.String()])
	}
	if !snapshots[p2.ID.String()].IsZero() {
		t.Errorf("p2 snapshot = %s, want 0", snapshots[p2.ID.String()])
	}
}

func TestInitiatePartialCountRequiresProducts(t *testing.T) {
	f := newFixtures()
	svc := newStockCountSvc(f)
	location := f.addLocation("WH-1")

	_, err := svc.Initiate(context.Background(), f.tenantID, nil, InitiateCountRequest{
		LocationID: location.ID.String(),
		Type:       model.CountTypePartial,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

// runs a count to the REVIEWED state with every line approved.
func reviewedCount(t *testing.T, f *fixtures, svc StockCountService, locationID uuid.UUID, counted int64) *StockCountResponse {
	t.Helper()
	ctx := context.Background()

	res, err := svc.Initiate(ctx, f.tenantID, nil, InitiateCountRequest{
		LocationID: locationID.String(),
		Type:       model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	enter := EnterCountsRequest{}
	for _, item := range res.Items {
		enter.Items = append(enter.Items, EnterCountItemRequest{
			ItemID:          item.ID,
			CountedQuantity: decimal.NewFromInt(counted),
		})
	}
	res, err = svc.EnterCounts(ctx, f.tenantID, res.ID, enter)
	if err != nil {
		t.Fatalf("EnterCounts: %v", err)
	}
	if res.Status != model.CountStatusCounting {
		t.Fatalf("status after counting = %s, want COUNTING", res.Status)
	}

	review := ReviewCountsRequest{}
	for _, item := range res.Items {
		review.Items = append(review.Items, ReviewCountItemRequest{ItemID: item.ID, Action: model.CountItemApproved})
	}
	res, err = svc.Review(ctx, f.tenantID, res.ID, review)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if res.Status != model.CountStatusReviewed {
		t.Fatalf("status after review = %s, want REVIEWED", res.Status)
	}
	return res
}

func TestPostCountAppliesApprovedVariance(t *testing.T) {
	f := newFixtures()
	svc := newStockCountSvc(f)
	product := f.addProduct("SKU-1")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	if err := f.seedStock(product.ID, location.ID, 10); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Counted 12 against a snapshot of 10: variance +2.
	res := reviewedCount(t, f, svc, location.ID, 12)

	posted, err := svc.Post(ctx, f.tenantID, nil, res.ID, PostCountRequest{IdempotencyKey: "count-key-1"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if posted.Status != model.CountStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", posted.Status)
	}

	if onHand := f.onHand(product.ID, location.ID); !onHand.Equal(decimal.NewFromInt(12)) {
		t.Errorf("on hand = %s, want 12", onHand)
	}
	countID := uuid.MustParse(res.ID)
	entries, _ := f.ledger.ListByRelated(ctx, f.tenantID, model.RelatedStockCount, countID)
	if len(entries) != 1 {
		t.Fatalf("reconcile entries = %d, want 1", len(entries))
	}
	if entries[0].TransactionType != model.TxTypeCountReconcile || !entries[0].QuantityChange.Equal(decimal.NewFromInt(2)) {
		t.Errorf("entry = %s %s, want COUNT_RECONCILE +2", entries[0].TransactionType, entries[0].QuantityChange)
	}

	// Replaying the post with the same key changes nothing.
	if _, err := svc.Post(ctx, f.tenantID, nil, res.ID, PostCountRequest{IdempotencyKey: "count-key-1"}); err != nil {
		t.Fatalf("replay post: %v", err)
	}
	if onHand := f.onHand(product.ID, location.ID); !onHand.Equal(decimal.NewFromInt(12)) {
		t.Errorf("on hand after replay = %s, want 12", onHand)
	}

	// A post without the original key is a state error, not a replay.
	_, err = svc.Post(ctx, f.tenantID, nil, res.ID, PostCountRequest{})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestPostCountSkipsRejectedLines(t *testing.T) {
	f := newFixtures()
	svc := newStockCountSvc(f)
	product := f.addProduct("SKU-1")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	if err := f.seedStock(product.ID, location.ID, 10); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.Initiate(ctx, f.tenantID, nil, InitiateCountRequest{
		LocationID: location.ID.String(),
		Type:       model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	itemID := res.Items[0].ID

	if _, err := svc.EnterCounts(ctx, f.tenantID, res.ID, EnterCountsRequest{
		Items: []EnterCountItemRequest{{ItemID: itemID, CountedQuantity: decimal.NewFromInt(99)}},
	}); err != nil {
		t.Fatalf("EnterCounts: %v", err)
	}
	if _, err := svc.Review(ctx, f.tenantID, res.ID, ReviewCountsRequest{
		Items: []ReviewCountItemRequest{{ItemID: itemID, Action: model.CountItemRejected, Notes: "recount ordered"}},
	}); err != nil {
		t.Fatalf("Review: %v", err)
	}

	if _, err := svc.Post(ctx, f.tenantID, nil, res.ID, PostCountRequest{}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	// The rejected line must produce no stock movement.
	if onHand := f.onHand(product.ID, location.ID); !onHand.Equal(decimal.NewFromInt(10)) {
		t.Errorf("on hand = %s, want 10", onHand)
	}
	entries, _ := f.ledger.ListByRelated(ctx, f.tenantID, model.RelatedStockCount, uuid.MustParse(res.ID))
	if len(entries) != 0 {
		t.Errorf("reconcile entries = %d, want 0", len(entries))
	}
}

func TestPostCountedButUnreviewedFailsAsIncomplete(t *testing.T) {
	f := newFixtures()
	svc := newStockCountSvc(f)
	product := f.addProduct("SKU-1")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	if err := f.seedStock(product.ID, location.ID, 10); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.Initiate(ctx, f.tenantID, nil, InitiateCountRequest{
		LocationID: location.ID.String(),
		Type:       model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	// Count every line but review none of them.
	_, err = svc.EnterCounts(ctx, f.tenantID, res.ID, EnterCountsRequest{
		Items: []EnterCountItemRequest{{ItemID: res.Items[0].ID, CountedQuantity: decimal.NewFromInt(12)}},
	})
	if err != nil {
		t.Fatalf("EnterCounts: %v", err)
	}

	_, err = svc.Post(ctx, f.tenantID, nil, res.ID, PostCountRequest{})
	if !errors.Is(err, ErrIncompleteCount) {
		t.Fatalf("post unreviewed: err = %v, want ErrIncompleteCount", err)
	}
	if got := f.onHand(product.ID, location.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("on hand after failed post = %s, want 10", got)
	}
}

func TestCountWorkflowStateGuards(t *testing.T) {
	f := newFixtures()
	svc := newStockCountSvc(f)
	product := f.addProduct("SKU-1")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	if err := f.seedStock(product.ID, location.ID, 5); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.Initiate(ctx, f.tenantID, nil, InitiateCountRequest{
		LocationID: location.ID.String(),
		Type:       model.CountTypeFull,
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	itemID := res.Items[0].ID

	// Posting a PENDING count means no line has been reviewed yet.
	_, err = svc.Post(ctx, f.tenantID, nil, res.ID, PostCountRequest{})
	if !errors.Is(err, ErrIncompleteCount) {
		t.Fatalf("post pending: err = %v, want ErrIncompleteCount", err)
	}

	// Approving a line nobody counted is out of order too.
	_, err = svc.Review(ctx, f.tenantID, res.ID, ReviewCountsRequest{
		Items: []ReviewCountItemRequest{{ItemID: itemID, Action: model.CountItemApproved}},
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("approve uncounted: err = %v, want ErrInvalidState", err)
	}

	// Negative physical counts do not exist.
	_, err = svc.EnterCounts(ctx, f.tenantID, res.ID, EnterCountsRequest{
		Items: []EnterCountItemRequest{{ItemID: itemID, CountedQuantity: decimal.NewFromInt(-1)}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("negative count: err = %v, want ErrValidation", err)
	}
}
