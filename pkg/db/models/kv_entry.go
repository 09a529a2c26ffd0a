package models

import "time"

// KVEntry is one row of the kv_entries table backing the SQL storage drivers.
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
