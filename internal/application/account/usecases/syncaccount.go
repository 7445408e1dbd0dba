// Package usecases orchestrates the registration/sync flow: verify external
// identity, find-or-create the entitlement record, merge profile data,
// evaluate the effective entitlement, and issue a session token.
package usecases

import (
	"context"

	"vtm/internal/application/identity"
	"vtm/internal/domain/account"
	"vtm/internal/domain/entitlement"
	"vtm/internal/shared/biztime"
	apperrors "vtm/internal/shared/errors"
	"vtm/internal/shared/logger"
)

// SessionIssuer signs the session token carrying the effective entitlement.
type SessionIssuer interface {
	IssueSession(subjectID, customerID string, eff entitlement.Effective) (string, error)
}

// SyncAccountCommand carries one register-or-sync request.
type SyncAccountCommand struct {
	Credential string
	Country    string
	Language   string
	Survey     account.SurveyUpdate
}

// SyncAccountResult is the outcome handed back to the client.
type SyncAccountResult struct {
	SessionToken string
	CustomerID   string
	Effective    entitlement.Effective
	Created      bool
}

type SyncAccountUseCase struct {
	verifier  identity.Verifier
	accounts  account.Repository
	allocator *account.IdentityAllocator
	issuer    SessionIssuer
	logger    logger.Interface
}

func NewSyncAccountUseCase(
	verifier identity.Verifier,
	accounts account.Repository,
	allocator *account.IdentityAllocator,
	issuer SessionIssuer,
	logger logger.Interface,
) *SyncAccountUseCase {
	return &SyncAccountUseCase{
		verifier:  verifier,
		accounts:  accounts,
		allocator: allocator,
		issuer:    issuer,
		logger:    logger,
	}
}

// Execute runs the sync flow. It is safe to call repeatedly: the first call
// for a subject creates the record, every later call is a pure refresh plus
// profile merge. Validation happens before any store mutation.
func (uc *SyncAccountUseCase) Execute(ctx context.Context, cmd SyncAccountCommand) (*SyncAccountResult, error) {
	if err := account.ValidateUpdate(cmd.Country, cmd.Language, cmd.Survey); err != nil {
		return nil, apperrors.NewValidationError("invalid profile data", err.Error())
	}

	subject, err := uc.verifier.Verify(ctx, cmd.Credential)
	if err != nil {
		return nil, err
	}

	acct, err := uc.accounts.GetBySubjectID(ctx, subject.SubjectID)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("account lookup failed", err.Error())
	}

	created := false
	if acct == nil {
		acct, created, err = uc.createAccount(ctx, subject, cmd)
		if err != nil {
			return nil, err
		}
	} else {
		if err := uc.refreshAccount(ctx, acct, subject, cmd); err != nil {
			return nil, err
		}
	}

	now := biztime.NowUTC()
	eff := entitlement.Evaluate(acct.Snapshot(), now)

	token, err := uc.issuer.IssueSession(acct.SubjectID(), acct.CustomerID().String(), eff)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue session token", err.Error())
	}

	return &SyncAccountResult{
		SessionToken: token,
		CustomerID:   acct.CustomerID().String(),
		Effective:    eff,
		Created:      created,
	}, nil
}

func (uc *SyncAccountUseCase) createAccount(ctx context.Context, subject *identity.Subject, cmd SyncAccountCommand) (*account.Account, bool, error) {
	customerID, err := uc.allocator.AllocateIfAbsent(ctx, "")
	if err != nil {
		return nil, false, err
	}

	analytics, err := account.NewAnalytics(cmd.Country, cmd.Language, cmd.Survey)
	if err != nil {
		return nil, false, apperrors.NewValidationError("invalid profile data", err.Error())
	}

	acct, err := account.NewAccount(subject.SubjectID, customerID, subject.Email, subject.Name, analytics, biztime.NowUTC())
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build account", err.Error())
	}

	if err := uc.accounts.Create(ctx, acct); err != nil {
		if apperrors.IsConflictError(err) {
			// Lost a race against a concurrent first sync for the same
			// subject. The winner's record is authoritative; the sequence
			// value drawn here is simply skipped.
			uc.logger.Infow("concurrent registration detected, reusing existing account",
				"subject_id", subject.SubjectID)
			existing, getErr := uc.accounts.GetBySubjectID(ctx, subject.SubjectID)
			if getErr != nil || existing == nil {
				return nil, false, apperrors.NewExternalServiceError("account lookup failed after conflict")
			}
			if refreshErr := uc.refreshAccount(ctx, existing, subject, cmd); refreshErr != nil {
				return nil, false, refreshErr
			}
			return existing, false, nil
		}
		return nil, false, apperrors.NewExternalServiceError("failed to persist account", err.Error())
	}

	uc.logger.Infow("account created",
		"customer_id", acct.CustomerID().String(),
		"country", cmd.Country)
	return acct, true, nil
}

func (uc *SyncAccountUseCase) refreshAccount(ctx context.Context, acct *account.Account, subject *identity.Subject, cmd SyncAccountCommand) error {
	// Idempotent repair for records that predate identifier assignment.
	// The store writes the identifier only when the column is still unset,
	// so two syncs backfilling the same record cannot reassign it.
	if acct.CustomerID().IsZero() {
		customerID, err := uc.allocator.AllocateIfAbsent(ctx, acct.CustomerID())
		if err != nil {
			return err
		}
		assigned, err := uc.accounts.AssignCustomerID(ctx, acct.ID(), customerID)
		if err != nil {
			return apperrors.NewExternalServiceError("failed to backfill customer id", err.Error())
		}
		if assigned {
			if err := acct.AssignCustomerID(customerID); err != nil {
				return apperrors.NewInternalError("failed to backfill customer id", err.Error())
			}
			uc.logger.Infow("backfilled customer id for existing account",
				"customer_id", customerID.String())
		} else {
			// A concurrent sync assigned first; its identifier is
			// authoritative and the value drawn here is skipped.
			current, getErr := uc.accounts.GetBySubjectID(ctx, acct.SubjectID())
			if getErr != nil || current == nil || current.CustomerID().IsZero() {
				return apperrors.NewExternalServiceError("account lookup failed after backfill race")
			}
			if err := acct.AssignCustomerID(current.CustomerID()); err != nil {
				return apperrors.NewInternalError("failed to adopt assigned customer id", err.Error())
			}
			uc.logger.Infow("concurrent backfill detected, adopting stored customer id",
				"customer_id", current.CustomerID().String())
		}
	}

	acct.MergeProfile(subject.Email, subject.Name, cmd.Country, cmd.Language, cmd.Survey)
	acct.Touch(biztime.NowUTC())

	if err := uc.accounts.Update(ctx, acct); err != nil {
		return apperrors.NewExternalServiceError("failed to persist account", err.Error())
	}
	return nil
}
