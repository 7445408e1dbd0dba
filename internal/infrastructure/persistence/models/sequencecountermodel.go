package models

import "time"

// SequenceCounterModel is a singleton-per-key durable integer, mutated only
// by atomic increment inside a transaction.
type SequenceCounterModel struct {
	Name      string `gorm:"primaryKey;size:64"`
	Seq       uint64 `gorm:"not null"`
	UpdatedAt time.Time
}

func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}
