package billing

import (
	"context"
	"fmt"
	"time"
)

// DefaultGateway is recorded on ledger entries when the processor does not
// say otherwise.
const DefaultGateway = "PayPal"

// LedgerStatusCompleted is the only status a ledger entry is ever written
// with; entries exist only for captures the processor confirmed.
const LedgerStatusCompleted = "COMPLETED"

// LedgerEntry is the durable record of one successfully captured external
// order. The order id is unique: at most one entry per external order, which
// is what makes reconciliation idempotent.
type LedgerEntry struct {
	id         uint
	orderID    string
	subjectID  string
	customerID string
	planID     string
	amount     string
	gateway    string
	status     string
	capturedAt time.Time
}

// NewLedgerEntry records a confirmed capture.
func NewLedgerEntry(orderID, subjectID, customerID, planID, amount string, capturedAt time.Time) (*LedgerEntry, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order ID is required")
	}
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if planID == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	if amount == "" {
		return nil, fmt.Errorf("amount is required")
	}

	return &LedgerEntry{
		orderID:    orderID,
		subjectID:  subjectID,
		customerID: customerID,
		planID:     planID,
		amount:     amount,
		gateway:    DefaultGateway,
		status:     LedgerStatusCompleted,
		capturedAt: capturedAt.UTC(),
	}, nil
}

// ReconstructLedgerEntry rebuilds an entry from persistence.
func ReconstructLedgerEntry(id uint, orderID, subjectID, customerID, planID, amount, gateway, status string, capturedAt time.Time) (*LedgerEntry, error) {
	if id == 0 {
		return nil, fmt.Errorf("ledger entry ID cannot be zero")
	}
	if orderID == "" {
		return nil, fmt.Errorf("order ID is required")
	}

	return &LedgerEntry{
		id:         id,
		orderID:    orderID,
		subjectID:  subjectID,
		customerID: customerID,
		planID:     planID,
		amount:     amount,
		gateway:    gateway,
		status:     status,
		capturedAt: capturedAt,
	}, nil
}

func (e *LedgerEntry) ID() uint              { return e.id }
func (e *LedgerEntry) OrderID() string       { return e.orderID }
func (e *LedgerEntry) SubjectID() string     { return e.subjectID }
func (e *LedgerEntry) CustomerID() string    { return e.customerID }
func (e *LedgerEntry) PlanID() string        { return e.planID }
func (e *LedgerEntry) Amount() string        { return e.amount }
func (e *LedgerEntry) Gateway() string       { return e.gateway }
func (e *LedgerEntry) Status() string        { return e.status }
func (e *LedgerEntry) CapturedAt() time.Time { return e.capturedAt }

// SetID sets the entry ID (only for persistence layer use)
func (e *LedgerEntry) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("ledger entry ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("ledger entry ID cannot be zero")
	}
	e.id = id
	return nil
}

// LedgerRepository stores ledger entries. The store enforces order-id
// uniqueness; Create on a duplicate order id must surface a conflict so the
// reconciliation flow can treat the payment as already applied.
type LedgerRepository interface {
	Create(ctx context.Context, entry *LedgerEntry) error
	GetByOrderID(ctx context.Context, orderID string) (*LedgerEntry, error)
}
