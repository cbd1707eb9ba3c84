package entity

import "time"

// Subscription is the reconciled view of a provider subscription.
// UserID may be empty while only a preliminary record exists.
type Subscription struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id,omitempty"`
	ProviderSubscriptionID string    `json:"provider_subscription_id"`
	PlanID                 string    `json:"plan_id,omitempty"`
	Status                 string    `json:"status"`
	CurrentPeriodEnd       time.Time `json:"current_period_end"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Plan describes a purchasable plan as exposed to clients.
type Plan struct {
	ID             string `json:"id"`
	ProviderPlanID string `json:"provider_plan_id"`
	DisplayName    string `json:"display_name"`
	Description    string `json:"description,omitempty"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Interval       string `json:"interval"`
	IsActive       bool   `json:"is_active"`
}
