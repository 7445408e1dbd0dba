package account

import "context"

// Repository is the durable store for accounts, keyed by subject id with a
// secondary uniqueness constraint on the customer identifier.
type Repository interface {
	// Create persists a new account. A duplicate subject or customer id
	// surfaces as a store conflict error.
	Create(ctx context.Context, acct *Account) error

	// Update persists profile fields (email, name, analytics, last seen).
	// It never writes the customer id or plan-state fields, so a sync racing
	// a backfill or a payment reconciliation cannot lose either.
	Update(ctx context.Context, acct *Account) error

	// AssignCustomerID backfills an identifier onto a record that has none
	// yet. It reports false without writing when the record already holds
	// one; the caller must then re-read and adopt the stored identifier.
	AssignCustomerID(ctx context.Context, accountID uint, customerID CustomerID) (bool, error)

	// UpdatePlan persists plan-state fields (plan id, pro flag, expiry,
	// daily limit). Only the payment reconciliation path calls this.
	UpdatePlan(ctx context.Context, acct *Account) error

	// GetBySubjectID returns the account for a subject, or (nil, nil) when
	// the subject has never been seen.
	GetBySubjectID(ctx context.Context, subjectID string) (*Account, error)

	// GetByCustomerID returns the account holding a customer identifier, or
	// (nil, nil) when none does.
	GetByCustomerID(ctx context.Context, customerID CustomerID) (*Account, error)
}
