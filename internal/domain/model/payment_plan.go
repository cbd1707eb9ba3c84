package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPlan represents a subscription plan synced from the payment provider.
type PaymentPlan struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderPlanID string          `gorm:"column:provider_plan_id;unique;not null;size:100" json:"provider_plan_id"`
	DisplayName    string          `gorm:"not null;size:200" json:"display_name"`
	Description    string          `gorm:"size:500" json:"description"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency       string          `gorm:"not null;size:3" json:"currency"`
	Interval       string          `gorm:"not null;size:20;default:'monthly'" json:"interval"`
	SortOrder      int             `gorm:"default:0" json:"sort_order"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PaymentPlan) TableName() string {
	return "payment_plans"
}
