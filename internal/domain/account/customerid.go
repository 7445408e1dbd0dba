package account

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"vtm/internal/shared/biztime"
)

// CustomerIDPrefix is the public-facing identifier prefix.
const CustomerIDPrefix = "VTM"

// CustomerIDSequenceKey is the durable counter key backing identifier
// allocation. All allocations share this single key.
const CustomerIDSequenceKey = "customerId"

var customerIDPattern = regexp.MustCompile(`^` + CustomerIDPrefix + `-\d{8}-\d+$`)

// CustomerID is the system's own public identifier for an account,
// distinct from the identity provider's subject id. Immutable once assigned.
type CustomerID string

func (c CustomerID) String() string {
	return string(c)
}

// IsZero reports whether no identifier has been assigned yet.
func (c CustomerID) IsZero() bool {
	return c == ""
}

// ParseCustomerID validates an identifier read back from storage or a token.
func ParseCustomerID(raw string) (CustomerID, error) {
	if !customerIDPattern.MatchString(raw) {
		return "", fmt.Errorf("malformed customer id: %q", raw)
	}
	return CustomerID(raw), nil
}

// FormatCustomerID builds an identifier from the allocation-time UTC date
// and a sequence value, e.g. VTM-20260130-1001.
func FormatCustomerID(now time.Time, seq uint64) CustomerID {
	return CustomerID(fmt.Sprintf("%s-%s-%d", CustomerIDPrefix, biztime.DateStamp(now), seq))
}

// SequenceAllocator is the durable atomic counter port. Next must be a
// single atomic read-modify-write so concurrent callers never observe the
// same value; the store enforces this, not the service tier.
type SequenceAllocator interface {
	Next(ctx context.Context, key string) (uint64, error)
}

// IdentityAllocator assigns customer identifiers.
type IdentityAllocator struct {
	seq SequenceAllocator
}

func NewIdentityAllocator(seq SequenceAllocator) *IdentityAllocator {
	return &IdentityAllocator{seq: seq}
}

// AllocateIfAbsent returns the existing identifier unchanged when one is
// already assigned. Otherwise it draws the next sequence value and formats
// a new identifier with the current UTC date. Callers must not retry
// speculatively: a returned error means the sequence was not consumed.
func (a *IdentityAllocator) AllocateIfAbsent(ctx context.Context, existing CustomerID) (CustomerID, error) {
	if !existing.IsZero() {
		return existing, nil
	}

	seq, err := a.seq.Next(ctx, CustomerIDSequenceKey)
	if err != nil {
		return "", fmt.Errorf("failed to allocate customer id sequence: %w", err)
	}

	return FormatCustomerID(biztime.NowUTC(), seq), nil
}
