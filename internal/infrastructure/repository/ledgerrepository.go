package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vtm/internal/domain/billing"
	"vtm/internal/infrastructure/persistence/mappers"
	"vtm/internal/infrastructure/persistence/models"
	"vtm/internal/shared/db"
	apperrors "vtm/internal/shared/errors"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

var _ billing.LedgerRepository = (*LedgerRepository)(nil)

// Create inserts a ledger entry. The unique index on order_id turns a
// concurrent or retried insert for the same order into a conflict error,
// which the reconciliation flow treats as already-applied.
func (r *LedgerRepository) Create(ctx context.Context, entry *billing.LedgerEntry) error {
	model := mappers.LedgerToModel(entry)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("ledger entry already exists for order", entry.OrderID())
		}
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return entry.SetID(model.ID)
}

func (r *LedgerRepository) GetByOrderID(ctx context.Context, orderID string) (*billing.LedgerEntry, error) {
	var model models.PaymentLedgerModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger entry by order_id: %w", err)
	}

	return mappers.LedgerToDomain(&model)
}
