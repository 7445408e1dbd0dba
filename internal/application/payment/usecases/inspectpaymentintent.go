package usecases

import (
	"vtm/internal/domain/billing"
	"vtm/internal/infrastructure/auth"
	apperrors "vtm/internal/shared/errors"
)

// IntentVerifier decodes payment-intent tokens.
type IntentVerifier interface {
	VerifyPaymentIntent(tokenString string) (*auth.PaymentIntentClaims, error)
}

// InspectPaymentIntentResult describes the purchase a valid intent token
// stands for, shown on the checkout page before capture.
type InspectPaymentIntentResult struct {
	PlanID   string
	PlanName string
	Price    string
}

type InspectPaymentIntentUseCase struct {
	catalog  *billing.Catalog
	verifier IntentVerifier
}

func NewInspectPaymentIntentUseCase(catalog *billing.Catalog, verifier IntentVerifier) *InspectPaymentIntentUseCase {
	return &InspectPaymentIntentUseCase{catalog: catalog, verifier: verifier}
}

func (uc *InspectPaymentIntentUseCase) Execute(tokenString string) (*InspectPaymentIntentResult, error) {
	claims, err := uc.verifier.VerifyPaymentIntent(tokenString)
	if err != nil {
		return nil, err
	}

	plan, ok := uc.catalog.Resolve(claims.PlanID)
	if !ok {
		return nil, apperrors.NewValidationError("unknown plan", claims.PlanID)
	}

	return &InspectPaymentIntentResult{
		PlanID:   plan.ID,
		PlanName: plan.DisplayName,
		Price:    plan.Price,
	}, nil
}
