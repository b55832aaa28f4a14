package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newAdjustmentService(f *fixtures) AdjustmentService {
	return NewAdjustmentService(f.adjustments, f.products, f.locations, f.audits, f.stock, f.tx)
}

func TestPostAdjustmentAppliesEveryLine(t *testing.T) {
	f := newFixtures()
	svc := newAdjustmentService(f)
	p1 := f.addProduct("SKU-1")
	p2 := f.addProduct("SKU-2")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	if err := f.seedStock(p1.ID, location.ID, 10); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.PostAdjustment(ctx, f.tenantID, nil, PostAdjustmentRequest{
		LocationID: location.ID.String(),
		ReasonCode: model.ReasonDamage,
		Items: []AdjustmentItemRequest{
			{ProductID: p1.ID.String(), QuantityChange: decimal.NewFromInt(-3)},
			{ProductID: p2.ID.String(), QuantityChange: decimal.NewFromInt(4)},
		},
	})
	if err != nil {
		t.Fatalf("PostAdjustment: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(res.Items))
	}

	if onHand := f.onHand(p1.ID, location.ID); !onHand.Equal(decimal.NewFromInt(7)) {
		t.Errorf("p1 on hand = %s, want 7", onHand)
	}
	if onHand := f.onHand(p2.ID, location.ID); !onHand.Equal(decimal.NewFromInt(4)) {
		t.Errorf("p2 on hand = %s, want 4", onHand)
	}

	adjID := uuid.MustParse(res.ID)
	entries, _ := f.ledger.ListByRelated(ctx, f.tenantID, model.RelatedAdjustment, adjID)
	if len(entries) != 2 {
		t.Errorf("ledger entries tagged to adjustment = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.TransactionType != model.TxTypeAdjustment {
			t.Errorf("entry type = %s, want ADJUSTMENT", e.TransactionType)
		}
	}

	if len(f.audits.entries) == 0 || f.audits.entries[len(f.audits.entries)-1].Action != model.ActionPostAdjustment {
		t.Error("expected a POST_ADJUSTMENT audit entry")
	}
}

func TestPostAdjustmentReplaysOnIdempotencyKey(t *testing.T) {
	f := newFixtures()
	svc := newAdjustmentService(f)
	product := f.addProduct("SKU-1")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	req := PostAdjustmentRequest{
		LocationID:     location.ID.String(),
		ReasonCode:     model.ReasonFound,
		IdempotencyKey: "adj-key-1",
		Items: []AdjustmentItemRequest{
			{ProductID: product.ID.String(), QuantityChange: decimal.NewFromInt(5)},
		},
	}

	first, err := svc.PostAdjustment(ctx, f.tenantID, nil, req)
	if err != nil {
		t.Fatalf("first post: %v", err)
	}
	second, err := svc.PostAdjustment(ctx, f.tenantID, nil, req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("replay returned %s, want original %s", second.ID, first.ID)
	}
	if onHand := f.onHand(product.ID, location.ID); !onHand.Equal(decimal.NewFromInt(5)) {
		t.Errorf("on hand = %s, want 5 (no double apply)", onHand)
	}
	if len(f.ledger.entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(f.ledger.entries))
	}
}

func TestPostAdjustmentConcurrentRetryFallsBackToUniqueIndex(t *testing.T) {
	f := newFixtures()
	svc := newAdjustmentService(f)
	product := f.addProduct("SKU-1")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	req := PostAdjustmentRequest{
		LocationID:     location.ID.String(),
		ReasonCode:     model.ReasonFound,
		IdempotencyKey: "adj-key-9",
		Items: []AdjustmentItemRequest{
			{ProductID: product.ID.String(), QuantityChange: decimal.NewFromInt(5)},
		},
	}

	first, err := svc.PostAdjustment(ctx, f.tenantID, nil, req)
	if err != nil {
		t.Fatalf("first post: %v", err)
	}

	// A concurrent retry can run its replay lookup before the first post's
	// header is visible; the unique key index on the header must stop the
	// second insert and the caller gets the original adjustment back.
	f.adjustments.missKeyLookupOnce = true
	second, err := svc.PostAdjustment(ctx, f.tenantID, nil, req)
	if err != nil {
		t.Fatalf("racing post: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("racing post returned %s, want original %s", second.ID, first.ID)
	}
	if onHand := f.onHand(product.ID, location.ID); !onHand.Equal(decimal.NewFromInt(5)) {
		t.Errorf("on hand = %s, want 5 (no double apply)", onHand)
	}
	if len(f.ledger.entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(f.ledger.entries))
	}
}

func TestPostAdjustmentValidation(t *testing.T) {
	f := newFixtures()
	svc := newAdjustmentService(f)
	product := f.addProduct("SKU-1")
	location := f.addLocation("WH-1")
	ctx := context.Background()

	inactive := f.addProduct("SKU-DEAD")
	inactive.Active = false
	_ = f.products.Update(ctx, inactive)

	tests := []struct {
		name string
		req  PostAdjustmentRequest
	}{
		{
			name: "unknown location",
			req: PostAdjustmentRequest{
				LocationID: uuid.New().String(),
				ReasonCode: model.ReasonDamage,
				Items:      []AdjustmentItemRequest{{ProductID: product.ID.String(), QuantityChange: decimal.NewFromInt(1)}},
			},
		},
		{
			name: "unknown product",
			req: PostAdjustmentRequest{
				LocationID: location.ID.String(),
				ReasonCode: model.ReasonDamage,
				Items:      []AdjustmentItemRequest{{ProductID: uuid.New().String(), QuantityChange: decimal.NewFromInt(1)}},
			},
		},
		{
			name: "inactive product",
			req: PostAdjustmentRequest{
				LocationID: location.ID.String(),
				ReasonCode: model.ReasonDamage,
				Items:      []AdjustmentItemRequest{{ProductID: inactive.ID.String(), QuantityChange: decimal.NewFromInt(1)}},
			},
		},
		{
			name: "zero quantity line",
			req: PostAdjustmentRequest{
				LocationID: location.ID.String(),
				ReasonCode: model.ReasonDamage,
				Items:      []AdjustmentItemRequest{{ProductID: product.ID.String(), QuantityChange: decimal.Zero}},
			},
		},
		{
			name: "no items",
			req: PostAdjustmentRequest{
				LocationID: location.ID.String(),
				ReasonCode: model.ReasonDamage,
			},
		},
		{
			name: "duplicate product line",
			req: PostAdjustmentRequest{
				LocationID: location.ID.String(),
				ReasonCode: model.ReasonDamage,
				Items: []AdjustmentItemRequest{
					{ProductID: product.ID.String(), QuantityChange: decimal.NewFromInt(1)},
					{ProductID: product.ID.String(), QuantityChange: decimal.NewFromInt(2)},
				},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PostAdjustment(ctx, f.tenantID, nil, tc.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}

	// Rejected posts leave no trace.
	if len(f.ledger.entries) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(f.ledger.entries))
	}
}

func TestGetAdjustmentUnknownID(t *testing.T) {
	f := newFixtures()
	svc := newAdjustmentService(f)

	_, err := svc.GetAdjustment(context.Background(), f.tenantID, uuid.New().String())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
