package models

import "time"

// KVEntry is one persisted key/value pair, the server-side stand-in for a
// browser localStorage entry.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
