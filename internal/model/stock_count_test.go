package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStockCountItemSetCounted(t *testing.T) {
	item := StockCountItem{
		SnapshotQuantity: decimal.NewFromInt(10),
		Status:           CountItemPending,
	}

	item.SetCounted(decimal.NewFromInt(12))

	if item.Status != CountItemCounted {
		t.Errorf("status = %s, want COUNTED", item.Status)
	}
	if !item.CountedQuantity.Valid || !item.CountedQuantity.Decimal.Equal(decimal.NewFromInt(12)) {
		t.Errorf("counted = %v, want 12", item.CountedQuantity)
	}
	if !item.Variance.Valid || !item.Variance.Decimal.Equal(decimal.NewFromInt(2)) {
		t.Errorf("variance = %v, want 2", item.Variance)
	}

	// Recounting replaces the previous figure.
	item.SetCounted(decimal.NewFromInt(9))
	if !item.Variance.Decimal.Equal(decimal.NewFromInt(-1)) {
		t.Errorf("variance after recount = %s, want -1", item.Variance.Decimal)
	}
}

func TestStockCountItemReviewed(t *testing.T) {
	for _, status := range []string{CountItemPending, CountItemCounted} {
		item := StockCountItem{Status: status}
		if item.Reviewed() {
			t.Errorf("status %s reported reviewed", status)
		}
	}
	for _, status := range []string{CountItemApproved, CountItemRejected} {
		item := StockCountItem{Status: status}
		if !item.Reviewed() {
			t.Errorf("status %s not reported reviewed", status)
		}
	}
}
