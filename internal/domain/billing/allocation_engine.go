package billing

import (
	"fmt"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationRequest asks the engine to apply an amount of a payment to one
// sale. Amount is the requested amount; the engine clamps it to the sale's
// open balance at the moment the request is reached.
type AllocationRequest struct {
	SaleID uuid.UUID
	Amount decimal.Decimal
}

// AllocationEngine distributes payments across sales and reverses those
// distributions. It mutates the loaded aggregates only; persistence and
// transactional atomicity belong to the application layer, which must save
// the payment, every touched sale, and the customer delta in one transaction.
type AllocationEngine struct{}

// NewAllocationEngine creates a new allocation engine
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// Allocate applies the requests to the sales in caller order.
//
// Per request: a missing sale is NotFound; a sale of another customer, a
// cancelled sale, or a sale with no open balance at the time the request is
// reached is InvalidState. The applied amount is min(requested, balance) and
// is what gets recorded on the payment. Earlier requests consume balance
// seen by later requests against the same sale.
//
// Returns the signed customer outstanding delta (negative: the customer owes
// less). On error the passed aggregates may be partially mutated; the caller
// must discard them and roll back.
func (e *AllocationEngine) Allocate(payment *Payment, sales map[uuid.UUID]*Sale, requests []AllocationRequest) (decimal.Decimal, error) {
	outstandingDelta := decimal.Zero

	for _, req := range requests {
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, shared.NewDomainError("VALIDATION_FAILED", "Allocation amount must be positive")
		}

		sale, ok := sales[req.SaleID]
		if !ok || sale == nil {
			return decimal.Zero, fmt.Errorf("%w: sale %s", shared.ErrNotFound, req.SaleID)
		}
		if sale.CustomerID != payment.CustomerID {
			return decimal.Zero, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Sale %s belongs to a different customer", sale.InvoiceNumber))
		}
		if sale.IsCancelled() {
			return decimal.Zero, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Sale %s is cancelled", sale.InvoiceNumber))
		}
		if !sale.HasOutstandingBalance() {
			return decimal.Zero, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Sale %s has no outstanding balance", sale.InvoiceNumber))
		}

		applied := decimal.Min(req.Amount, sale.Balance)

		if err := sale.ApplyReceipt(applied); err != nil {
			return decimal.Zero, err
		}
		if err := payment.RecordAllocation(sale.ID, sale.InvoiceNumber, applied); err != nil {
			return decimal.Zero, err
		}

		outstandingDelta = outstandingDelta.Sub(applied)
	}

	return outstandingDelta, nil
}

// Reverse undoes every allocation recorded on the payment: each touched
// sale's paid amount is reduced by exactly the applied amount, regardless of
// the sale's current status, and the payment's allocation list is cleared.
//
// Returns the signed customer outstanding delta (positive: the customer owes
// more again). Every referenced sale must be present in the map.
func (e *AllocationEngine) Reverse(payment *Payment, sales map[uuid.UUID]*Sale) (decimal.Decimal, error) {
	outstandingDelta := decimal.Zero

	for i := range payment.Allocations {
		alloc := &payment.Allocations[i]
		sale, ok := sales[alloc.SaleID]
		if !ok || sale == nil {
			return decimal.Zero, fmt.Errorf("%w: sale %s", shared.ErrNotFound, alloc.SaleID)
		}

		if err := sale.RevokeReceipt(alloc.Amount); err != nil {
			return decimal.Zero, err
		}
		outstandingDelta = outstandingDelta.Add(alloc.Amount)
	}

	payment.ClearAllocations()

	return outstandingDelta, nil
}

// SaleIDs collects the distinct sale IDs referenced by the requests
func SaleIDs(requests []AllocationRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(requests))
	ids := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		if _, ok := seen[req.SaleID]; ok {
			continue
		}
		seen[req.SaleID] = struct{}{}
		ids = append(ids, req.SaleID)
	}
	return ids
}

// AllocatedSaleIDs collects the distinct sale IDs referenced by a payment's
// recorded allocations
func AllocatedSaleIDs(payment *Payment) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(payment.Allocations))
	ids := make([]uuid.UUID, 0, len(payment.Allocations))
	for i := range payment.Allocations {
		id := payment.Allocations[i].SaleID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// TotalRequested sums the requested amounts. Callers use it to pre-check
// that a request list does not exceed the payment amount before any clamping.
func TotalRequested(requests []AllocationRequest) decimal.Decimal {
	total := decimal.Zero
	for _, req := range requests {
		total = total.Add(req.Amount)
	}
	return total
}

// ValidateRequestsWithinAmount rejects request lists whose gross total
// exceeds the payment amount. Clamping only shrinks individual applications
// against sale balances, never the payer's stated distribution.
func ValidateRequestsWithinAmount(amount decimal.Decimal, requests []AllocationRequest) error {
	if TotalRequested(requests).GreaterThan(amount.Add(valueobject.Epsilon)) {
		return shared.NewDomainError("VALIDATION_FAILED", "Requested allocations exceed the payment amount")
	}
	return nil
}
