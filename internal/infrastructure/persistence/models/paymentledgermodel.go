package models

import "time"

// PaymentLedgerModel records one successfully captured external order.
// The unique index on order_id is what makes payment reconciliation
// idempotent under retried callbacks.
type PaymentLedgerModel struct {
	ID         uint   `gorm:"primaryKey"`
	OrderID    string `gorm:"uniqueIndex;size:64;not null"`
	SubjectID  string `gorm:"index;size:128;not null"`
	CustomerID string `gorm:"size:32"`
	PlanID     string `gorm:"size:64;not null"`
	Amount     string `gorm:"size:16;not null"`
	Gateway    string `gorm:"size:32;not null;default:'PayPal'"`
	Status     string `gorm:"size:20;not null;default:'COMPLETED'"`
	CapturedAt time.Time
	CreatedAt  time.Time
}

func (PaymentLedgerModel) TableName() string {
	return "payment_ledger"
}
