package usecases

import (
	"context"

	"vtm/internal/application/payment/paymentgateway"
	"vtm/internal/domain/account"
	"vtm/internal/domain/billing"
	"vtm/internal/shared/biztime"
	"vtm/internal/shared/db"
	apperrors "vtm/internal/shared/errors"
	"vtm/internal/shared/logger"
)

// ReconcilePaymentCommand carries one capture confirmation from the client
// or a processor callback. The intent token binds the order to a subject
// and plan chosen earlier.
type ReconcilePaymentCommand struct {
	OrderID     string
	IntentToken string
}

// ReconcilePaymentResult reports whether entitlement is granted for the
// order. AlreadyApplied marks the idempotent replay path: the grant
// happened on an earlier call and no second mutation took place.
type ReconcilePaymentResult struct {
	Granted        bool
	AlreadyApplied bool
	CustomerID     string
	PlanID         string
}

type ReconcilePaymentUseCase struct {
	catalog  *billing.Catalog
	gateway  paymentgateway.PaymentGateway
	verifier IntentVerifier
	accounts account.Repository
	ledger   billing.LedgerRepository
	txm      *db.TransactionManager
	logger   logger.Interface
}

func NewReconcilePaymentUseCase(
	catalog *billing.Catalog,
	gateway paymentgateway.PaymentGateway,
	verifier IntentVerifier,
	accounts account.Repository,
	ledger billing.LedgerRepository,
	txm *db.TransactionManager,
	logger logger.Interface,
) *ReconcilePaymentUseCase {
	return &ReconcilePaymentUseCase{
		catalog:  catalog,
		gateway:  gateway,
		verifier: verifier,
		accounts: accounts,
		ledger:   ledger,
		txm:      txm,
		logger:   logger,
	}
}

// Execute reconciles one external order: confirm capture with the
// processor, then apply the plan grant and the ledger entry as a single
// transaction. Replays of the same order id return the previously recorded
// outcome without a second mutation.
func (uc *ReconcilePaymentUseCase) Execute(ctx context.Context, cmd ReconcilePaymentCommand) (*ReconcilePaymentResult, error) {
	if cmd.OrderID == "" {
		return nil, apperrors.NewValidationError("order id is required")
	}

	claims, err := uc.verifier.VerifyPaymentIntent(cmd.IntentToken)
	if err != nil {
		return nil, err
	}

	plan, ok := uc.catalog.Resolve(claims.PlanID)
	if !ok {
		return nil, apperrors.NewValidationError("unknown plan", claims.PlanID)
	}

	// Idempotency guard: an existing ledger entry means the grant has
	// already been applied. Defined success path, not an error.
	if existing, err := uc.ledger.GetByOrderID(ctx, cmd.OrderID); err != nil {
		return nil, apperrors.NewExternalServiceError("ledger lookup failed", err.Error())
	} else if existing != nil {
		uc.logger.Infow("payment already reconciled",
			"order_id", cmd.OrderID, "customer_id", existing.CustomerID())
		return &ReconcilePaymentResult{
			Granted:        true,
			AlreadyApplied: true,
			CustomerID:     existing.CustomerID(),
			PlanID:         existing.PlanID(),
		}, nil
	}

	capture, err := uc.gateway.CaptureOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !capture.Completed() {
		uc.logger.Warnw("payment capture not completed",
			"order_id", cmd.OrderID, "status", capture.Status)
		return &ReconcilePaymentResult{Granted: false}, nil
	}

	// The intent token binds the order to the identifier it was issued for.
	acct, err := uc.accounts.GetByCustomerID(ctx, account.CustomerID(claims.CustomerID))
	if err != nil {
		return nil, apperrors.NewExternalServiceError("account lookup failed", err.Error())
	}
	if acct == nil {
		return nil, apperrors.NewNotFoundError("account not found for payment", claims.CustomerID)
	}

	now := biztime.NowUTC()
	expiry := biztime.AddDays(now, plan.ValidityDays)
	if err := acct.GrantPlan(plan.ID, expiry, plan.DailyLimitSeconds); err != nil {
		return nil, apperrors.NewInternalError("failed to apply plan grant", err.Error())
	}

	entry, err := billing.NewLedgerEntry(cmd.OrderID, acct.SubjectID(), acct.CustomerID().String(), plan.ID, plan.Price, now)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build ledger entry", err.Error())
	}

	// Entitlement write and ledger insert commit or roll back together.
	// The unique order_id index turns a concurrent duplicate into a
	// conflict that rolls the whole grant back.
	txErr := uc.txm.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.accounts.UpdatePlan(txCtx, acct); err != nil {
			return err
		}
		return uc.ledger.Create(txCtx, entry)
	})
	if txErr != nil {
		if apperrors.IsConflictError(txErr) {
			// Raced another confirmation for the same order; its grant won.
			uc.logger.Infow("concurrent reconciliation detected, treating as applied",
				"order_id", cmd.OrderID)
			return &ReconcilePaymentResult{
				Granted:        true,
				AlreadyApplied: true,
				CustomerID:     acct.CustomerID().String(),
				PlanID:         plan.ID,
			}, nil
		}
		// Money has moved but the grant did not commit. Surface distinctly
		// for operator attention; automatic retry could double-apply.
		uc.logger.Errorw("payment reconciliation inconsistency",
			"order_id", cmd.OrderID,
			"customer_id", acct.CustomerID().String(),
			"plan_id", plan.ID,
			"error", txErr)
		return nil, apperrors.NewReconciliationError(
			"captured payment could not be reconciled", cmd.OrderID)
	}

	uc.logger.Infow("payment reconciled",
		"order_id", cmd.OrderID,
		"customer_id", acct.CustomerID().String(),
		"plan_id", plan.ID,
		"plan_expiry", expiry)

	return &ReconcilePaymentResult{
		Granted:    true,
		CustomerID: acct.CustomerID().String(),
		PlanID:     plan.ID,
	}, nil
}
