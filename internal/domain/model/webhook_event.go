package model

import (
	"database/sql/driver"
	"time"
)

// WebhookStatus represents the processing status of a webhook delivery
type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusCompleted WebhookStatus = "completed"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// Scan implements sql.Scanner interface
func (w *WebhookStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*w = WebhookStatus(v)
	case []byte:
		*w = WebhookStatus(v)
	default:
		*w = WebhookStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (w WebhookStatus) Value() (driver.Value, error) {
	return string(w), nil
}

// ProviderWebhookEvent records a verified webhook delivery. The unique index
// on ProviderEventID is what detects provider redeliveries.
type ProviderWebhookEvent struct {
	ID              int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderEventID string        `gorm:"unique;not null;size:255;index" json:"provider_event_id"`
	EventType       string        `gorm:"not null;size:100;index" json:"event_type"`
	Status          WebhookStatus `gorm:"type:webhook_status;default:'pending';index" json:"status"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty"`
	Payload         JSONB         `gorm:"type:jsonb;not null" json:"payload"`
	LastError       *string       `json:"last_error,omitempty"`
	CreatedAt       time.Time     `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ProviderWebhookEvent) TableName() string {
	return "provider_webhook_events"
}
