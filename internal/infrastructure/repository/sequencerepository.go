package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"vtm/internal/infrastructure/persistence/models"
	apperrors "vtm/internal/shared/errors"
)

// sequenceStart is the seed for lazily created counters; the first
// allocation returns sequenceStart+1.
const sequenceStart = 1000

// SequenceRepository implements the durable atomic counter. Each call is a
// single read-modify-write unit: the UPDATE takes a row lock that holds
// through the read-back until commit, so concurrent callers serialize on the
// row and never observe the same value.
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next atomically increments the counter identified by key, creating it with
// the seed value if absent, and returns the post-increment value.
func (r *SequenceRepository) Next(ctx context.Context, key string) (uint64, error) {
	var value uint64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SequenceCounterModel{}).
			Where("name = ?", key).
			Update("seq", gorm.Expr("seq + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to increment sequence %q: %w", key, result.Error)
		}

		if result.RowsAffected == 0 {
			// Counter does not exist yet. Seed it; a concurrent first
			// allocation may win the insert, in which case fall back to
			// incrementing the row it created.
			row := models.SequenceCounterModel{Name: key, Seq: sequenceStart + 1}
			err := tx.Create(&row).Error
			if err == nil {
				value = row.Seq
				return nil
			}
			if !apperrors.IsDuplicateError(err) {
				return fmt.Errorf("failed to seed sequence %q: %w", key, err)
			}
			result = tx.Model(&models.SequenceCounterModel{}).
				Where("name = ?", key).
				Update("seq", gorm.Expr("seq + 1"))
			if result.Error != nil {
				return fmt.Errorf("failed to increment sequence %q: %w", key, result.Error)
			}
		}

		var row models.SequenceCounterModel
		if err := tx.Where("name = ?", key).First(&row).Error; err != nil {
			return fmt.Errorf("failed to read sequence %q: %w", key, err)
		}
		value = row.Seq
		return nil
	})
	if err != nil {
		return 0, apperrors.NewExternalServiceError("sequence allocation failed", err.Error())
	}

	return value, nil
}
