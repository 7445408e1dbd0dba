package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vtm/internal/domain/account"
	"vtm/internal/infrastructure/persistence/mappers"
	"vtm/internal/infrastructure/persistence/models"
	"vtm/internal/shared/db"
	apperrors "vtm/internal/shared/errors"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

var _ account.Repository = (*AccountRepository)(nil)

func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	model, err := mappers.AccountToModel(acct)
	if err != nil {
		return err
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("account already exists", err.Error())
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	// Write back the auto-generated ID to the domain object
	return acct.SetID(model.ID)
}

func (r *AccountRepository) Update(ctx context.Context, acct *account.Account) error {
	model, err := mappers.AccountToModel(acct)
	if err != nil {
		return err
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.AccountModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"email":        model.Email,
			"name":         model.Name,
			"analytics":    model.Analytics,
			"last_seen_at": model.LastSeenAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.

	return nil
}

// AssignCustomerID writes the identifier only when the column is still
// unset. Zero rows affected means another writer assigned first; the stored
// identifier wins and this one is discarded.
func (r *AccountRepository) AssignCustomerID(ctx context.Context, accountID uint, customerID account.CustomerID) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.AccountModel{}).
		Where("id = ? AND customer_id IS NULL", accountID).
		Update("customer_id", customerID.String())

	if result.Error != nil {
		if apperrors.IsDuplicateError(result.Error) {
			return false, apperrors.NewConflictError("customer id already in use", result.Error.Error())
		}
		return false, fmt.Errorf("failed to assign customer id: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// UpdatePlan writes plan-state fields only. Sync never calls this; keeping
// the column sets disjoint means a concurrent sync cannot overwrite a grant.
func (r *AccountRepository) UpdatePlan(ctx context.Context, acct *account.Account) error {
	model, err := mappers.AccountToModel(acct)
	if err != nil {
		return err
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.AccountModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"plan_id":             model.PlanID,
			"is_pro":              model.IsPro,
			"plan_expiry":         model.PlanExpiry,
			"daily_limit_seconds": model.DailyLimitSeconds,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update account plan state: %w", result.Error)
	}

	return nil
}

func (r *AccountRepository) GetBySubjectID(ctx context.Context, subjectID string) (*account.Account, error) {
	var model models.AccountModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("subject_id = ?", subjectID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by subject_id: %w", err)
	}

	return mappers.AccountToDomain(&model)
}

func (r *AccountRepository) GetByCustomerID(ctx context.Context, customerID account.CustomerID) (*account.Account, error) {
	var model models.AccountModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("customer_id = ?", customerID.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by customer_id: %w", err)
	}

	return mappers.AccountToDomain(&model)
}
