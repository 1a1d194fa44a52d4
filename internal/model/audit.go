package model

import "time"

// Audit is embedded into persisted records; gorm fills both timestamps.
type Audit struct {
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}
