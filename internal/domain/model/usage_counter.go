package model

import (
	"time"

	"github.com/google/uuid"
)

// UsageCounter is the per-user, per-day interaction counter behind the free
// tier quota. A new calendar day gets a new row; rows are never deleted here.
type UsageCounter struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_usage_counters_user_day" json:"user_id"`
	UsageDate string    `gorm:"not null;size:10;uniqueIndex:idx_usage_counters_user_day" json:"usage_date"`
	Count     int       `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UsageCounter) TableName() string {
	return "usage_counters"
}
