// Package paymentgateway defines the port to the external payment
// processor. Order creation and capture are delegated as black boxes; this
// system only reacts to their outcomes.
package paymentgateway

import "context"

// CaptureStatusCompleted is the processor status that grants entitlement.
const CaptureStatusCompleted = "COMPLETED"

// Order is the processor-side order created for a checkout.
type Order struct {
	OrderID    string
	ApproveURL string
}

// CaptureResult is the processor's answer to a capture request.
type CaptureResult struct {
	Status string
}

// Completed reports whether the capture finished successfully.
func (r *CaptureResult) Completed() bool {
	return r != nil && r.Status == CaptureStatusCompleted
}

// PaymentGateway talks to the external payment processor. Implementations
// must bound every call with a timeout and surface transport failures as
// ExternalServiceError.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount, currency, description string) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error)
}
