// Package migration applies the database schema.
package migration

import (
	"fmt"

	"gorm.io/gorm"

	"vtm/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every persisted model in dependency order.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.SequenceCounterModel{},
		&models.AccountModel{},
		&models.PaymentLedgerModel{},
	}
}

// Run applies pending schema changes. The unique indexes on
// accounts.subject_id, accounts.customer_id, and payment_ledger.order_id are
// correctness requirements, not optimizations.
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(AutoMigrateModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
