package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCashDelta(t *testing.T) {
	tests := []struct {
		txType string
		amount int64
		want   int64
	}{
		{PosTxCashSale, 50, 50},
		{PosTxPayIn, 20, 20},
		{PosTxCashRefund, 15, -15},
		{PosTxPayOut, 30, -30},
		{PosTxCardSale, 500, 0},
		{PosTxCardRefund, 100, 0},
	}

	for _, tc := range tests {
		t.Run(tc.txType, func(t *testing.T) {
			txn := PosSessionTransaction{Type: tc.txType, Amount: decimal.NewFromInt(tc.amount)}
			if got := txn.CashDelta(); !got.Equal(decimal.NewFromInt(tc.want)) {
				t.Errorf("CashDelta() = %s, want %d", got, tc.want)
			}
		})
	}
}

func TestCalculateExpectedCash(t *testing.T) {
	txns := []PosSessionTransaction{
		{Type: PosTxCashSale, Amount: decimal.NewFromInt(50)},
		{Type: PosTxPayIn, Amount: decimal.NewFromInt(20)},
		{Type: PosTxCardSale, Amount: decimal.NewFromInt(500)},
		{Type: PosTxCashRefund, Amount: decimal.NewFromInt(10)},
	}

	got := CalculateExpectedCash(decimal.NewFromInt(100), txns)
	if !got.Equal(decimal.NewFromInt(160)) {
		t.Errorf("CalculateExpectedCash = %s, want 160", got)
	}

	if got := CalculateExpectedCash(decimal.NewFromInt(100), nil); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("empty session = %s, want the float back", got)
	}
}
