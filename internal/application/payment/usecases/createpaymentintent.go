// Package usecases orchestrates the payment flows: intent issuance, intent
// inspection, and capture reconciliation.
package usecases

import (
	"context"
	"fmt"
	"net/url"

	"vtm/internal/application/payment/paymentgateway"
	"vtm/internal/domain/billing"
	apperrors "vtm/internal/shared/errors"
	"vtm/internal/shared/logger"
)

// IntentIssuer signs payment-intent tokens.
type IntentIssuer interface {
	IssuePaymentIntent(subjectID, customerID, planID, price string) (string, error)
}

// CreatePaymentIntentCommand binds an authenticated session to a chosen plan.
type CreatePaymentIntentCommand struct {
	SubjectID  string
	CustomerID string
	PlanID     string
}

// CreatePaymentIntentResult hands the client everything needed to complete
// checkout: the processor order, the approval URL, the hosted payment page
// hand-off, and the short-lived intent token presented back at capture time.
type CreatePaymentIntentResult struct {
	OrderID     string
	ApproveURL  string
	PaymentURL  string
	IntentToken string
	PlanName    string
	Price       string
}

type CreatePaymentIntentUseCase struct {
	catalog        *billing.Catalog
	gateway        paymentgateway.PaymentGateway
	issuer         IntentIssuer
	paymentPageURL string
	logger         logger.Interface
}

func NewCreatePaymentIntentUseCase(
	catalog *billing.Catalog,
	gateway paymentgateway.PaymentGateway,
	issuer IntentIssuer,
	paymentPageURL string,
	logger logger.Interface,
) *CreatePaymentIntentUseCase {
	return &CreatePaymentIntentUseCase{
		catalog:        catalog,
		gateway:        gateway,
		issuer:         issuer,
		paymentPageURL: paymentPageURL,
		logger:         logger,
	}
}

// paymentURL builds the hosted checkout hand-off carrying the intent token,
// or "" when no payment page is configured.
func (uc *CreatePaymentIntentUseCase) paymentURL(token string) string {
	if uc.paymentPageURL == "" {
		return ""
	}
	u, err := url.Parse(uc.paymentPageURL)
	if err != nil {
		uc.logger.Warnw("invalid payment page url", "url", uc.paymentPageURL, "error", err)
		return ""
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (uc *CreatePaymentIntentUseCase) Execute(ctx context.Context, cmd CreatePaymentIntentCommand) (*CreatePaymentIntentResult, error) {
	plan, ok := uc.catalog.Resolve(cmd.PlanID)
	if !ok {
		return nil, apperrors.NewValidationError("unknown plan", cmd.PlanID)
	}

	order, err := uc.gateway.CreateOrder(ctx, plan.Price, "USD",
		fmt.Sprintf("%s (%s)", plan.DisplayName, plan.ID))
	if err != nil {
		return nil, err
	}

	token, err := uc.issuer.IssuePaymentIntent(cmd.SubjectID, cmd.CustomerID, plan.ID, plan.Price)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue payment intent token", err.Error())
	}

	uc.logger.Infow("payment intent issued",
		"customer_id", cmd.CustomerID,
		"plan_id", plan.ID,
		"order_id", order.OrderID)

	return &CreatePaymentIntentResult{
		OrderID:     order.OrderID,
		ApproveURL:  order.ApproveURL,
		PaymentURL:  uc.paymentURL(token),
		IntentToken: token,
		PlanName:    plan.DisplayName,
		Price:       plan.Price,
	}, nil
}
