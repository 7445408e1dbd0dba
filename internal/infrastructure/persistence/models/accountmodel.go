package models

import (
	"time"

	"gorm.io/datatypes"
)

// AccountModel is the persisted entitlement record, keyed by the identity
// provider's subject id with a secondary uniqueness constraint on the
// customer identifier.
type AccountModel struct {
	ID                uint    `gorm:"primaryKey"`
	SubjectID         string  `gorm:"uniqueIndex;size:128;not null"`
	CustomerID        *string `gorm:"uniqueIndex;size:32"`
	Email             string  `gorm:"size:255;index"`
	Name              string  `gorm:"size:255"`
	PlanID            string  `gorm:"size:64;not null;default:'free'"`
	IsPro             bool    `gorm:"not null;default:false"`
	PlanExpiry        *time.Time
	DailyLimitSeconds int            `gorm:"not null;default:5400"`
	WalletBalance     int64          `gorm:"not null;default:0"`
	Analytics         datatypes.JSON `gorm:"type:json"`
	CreatedAt         time.Time
	LastSeenAt        time.Time
}

func (AccountModel) TableName() string {
	return "accounts"
}
