// Package db holds the transaction plumbing shared by the repositories.
package db

import (
	"context"

	"gorm.io/gorm"
)

// txKey carries the open transaction through the context.
type txKey struct{}

// TransactionManager runs multi-repository writes as one transaction. The
// payment reconciliation path uses it to commit the plan grant and the
// ledger entry together.
type TransactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// RunInTransaction executes fn inside one database transaction. The handle
// travels in the context, so every repository call made from fn joins the
// same transaction via GetTxFromContext. An error from fn rolls the whole
// transaction back.
func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})
}

// GetTxFromContext returns the transaction carried by ctx, or the supplied
// handle when no transaction is open.
func GetTxFromContext(ctx context.Context, defaultDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return defaultDB.WithContext(ctx)
}
