package models

import "time"

// LocalEntry is one serialized browser-storage value keyed by session and name.
type LocalEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LocalEntry) TableName() string {
	return "local_entries"
}
