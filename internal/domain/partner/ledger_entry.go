package partner

import (
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSource identifies the kind of operation that moved a customer's
// outstanding amount
type LedgerSource string

const (
	LedgerSourceSale              LedgerSource = "sale"
	LedgerSourceSaleAdjustment    LedgerSource = "sale_adjustment"
	LedgerSourceSaleCancellation  LedgerSource = "sale_cancellation"
	LedgerSourcePayment           LedgerSource = "payment"
	LedgerSourcePaymentAdjustment LedgerSource = "payment_adjustment"
)

// LedgerEntry is an immutable record of a single change to a customer's
// outstanding amount. Entries are append-only; correcting a mistake means
// writing a compensating entry, never editing history.
type LedgerEntry struct {
	shared.BaseEntity
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Source            LedgerSource    `gorm:"type:varchar(30);not null"`
	SourceID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	SourceNumber      string          `gorm:"type:varchar(50);not null"`
	OutstandingDelta  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OutstandingBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OutstandingAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Description       string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "customer_ledger_entries"
}

// NewLedgerEntry records one outstanding-amount movement. outstandingBefore is
// the customer's outstanding amount prior to applying delta.
func NewLedgerEntry(customerID uuid.UUID, source LedgerSource, sourceID uuid.UUID, sourceNumber string, delta, outstandingBefore decimal.Decimal, description string) (*LedgerEntry, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Ledger entry requires a customer")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Ledger entry requires a source document")
	}
	if delta.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Ledger entry delta cannot be zero")
	}

	return &LedgerEntry{
		BaseEntity:        shared.NewBaseEntity(),
		CustomerID:        customerID,
		Source:            source,
		SourceID:          sourceID,
		SourceNumber:      sourceNumber,
		OutstandingDelta:  delta,
		OutstandingBefore: outstandingBefore,
		OutstandingAfter:  outstandingBefore.Add(delta),
		Description:       description,
	}, nil
}

// IsIncrease reports whether the entry raised the outstanding amount
func (e *LedgerEntry) IsIncrease() bool {
	return e.OutstandingDelta.IsPositive()
}
