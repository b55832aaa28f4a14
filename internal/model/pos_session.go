package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PosSessionStatus constants. OPEN -> CLOSED -> RECONCILED.
const (
	SessionStatusOpen       = "OPEN"
	SessionStatusClosed     = "CLOSED"
	SessionStatusReconciled = "RECONCILED"
)

// PosSessionTransaction types. Cash-moving types change the expected drawer
// amount; card types are recorded for sales reporting only.
const (
	PosTxCashSale   = "CASH_SALE"
	PosTxCardSale   = "CARD_SALE"
	PosTxCashRefund = "CASH_REFUND"
	PosTxCardRefund = "CARD_REFUND"
	PosTxPayIn      = "PAY_IN"
	PosTxPayOut     = "PAY_OUT"
)

// PosSession tracks one cash drawer between open and reconciliation at a
// (location, terminal). At most one session per terminal may be OPEN.
type PosSession struct {
	ID             uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID             `gorm:"type:uuid;not null;index" json:"tenant_id"`
	LocationID     uuid.UUID             `gorm:"type:uuid;not null;index" json:"location_id"`
	TerminalID     string                `gorm:"type:varchar(100);not null;index" json:"terminal_id"`
	UserID         *uuid.UUID            `gorm:"type:uuid" json:"user_id"`
	Status         string                `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	StartingCash   decimal.Decimal       `gorm:"type:decimal(18,4);not null" json:"starting_cash"`
	EndingCash     decimal.NullDecimal   `gorm:"type:decimal(18,4)" json:"ending_cash"`
	CalculatedCash decimal.NullDecimal   `gorm:"type:decimal(18,4)" json:"calculated_cash"`
	Difference     decimal.NullDecimal   `gorm:"type:decimal(18,4)" json:"difference"`
	Notes          string                `gorm:"type:text" json:"notes"`
	OpenedAt       time.Time             `gorm:"not null" json:"opened_at"`
	ClosedAt       *time.Time            `json:"closed_at"`
	ReconciledAt   *time.Time            `json:"reconciled_at"`
	Transactions   []PosSessionTransaction `gorm:"foreignKey:SessionID" json:"transactions,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// PosSessionTransaction is one money event recorded against an open session.
type PosSessionTransaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"session_id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Type      string          `gorm:"type:varchar(20);not null" json:"type"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Reference string          `gorm:"type:varchar(100)" json:"reference"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// CashDelta is the signed effect of the transaction on the physical drawer.
// Card transactions never touch the drawer.
func (t *PosSessionTransaction) CashDelta() decimal.Decimal {
	switch t.Type {
	case PosTxCashSale, PosTxPayIn:
		return t.Amount
	case PosTxCashRefund, PosTxPayOut:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// CalculateExpectedCash derives the drawer amount from the starting float and
// the recorded transactions. It is always recomputed from rows, never stored
// incrementally, so the figure cannot drift.
func CalculateExpectedCash(startingCash decimal.Decimal, txns []PosSessionTransaction) decimal.Decimal {
	total := startingCash
	for idx := range txns {
		total = total.Add(txns[idx].CashDelta())
	}
	return total
}
