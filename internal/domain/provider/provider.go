package provider

import (
	"context"
)

// SubscriptionProvider is the payment provider's subscription-creation API.
type SubscriptionProvider interface {
	// CreateSubscription creates a provider-side subscription for checkout.
	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*CreateSubscriptionResponse, error)

	// ListPlans fetches the provider's plan catalog.
	ListPlans(ctx context.Context) ([]*ProviderPlan, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// CreateSubscriptionRequest asks the provider for a new subscription. UserID
// travels in the subscription notes so the webhook channel can attribute
// ownership later.
type CreateSubscriptionRequest struct {
	ProviderPlanID string `json:"provider_plan_id"`
	UserID         string `json:"user_id"`
	TotalCount     int    `json:"total_count"`
}

// CreateSubscriptionResponse is the provider's view of the new subscription.
type CreateSubscriptionResponse struct {
	ProviderSubscriptionID string `json:"provider_subscription_id"`
	Status                 string `json:"status"`
	ShortURL               string `json:"short_url,omitempty"`
}

// ProviderPlan is a plan as returned by the provider's catalog API.
type ProviderPlan struct {
	ProviderPlanID string `json:"provider_plan_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Amount         int64  `json:"amount"` // smallest currency unit
	Currency       string `json:"currency"`
	Interval       string `json:"interval"`
}

// CompletionClient is the narrow interface to the AI completion backend. The
// billing core treats it as a black box.
type CompletionClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single chat turn sent to the completion backend.
type CompletionRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// CompletionResponse is the completion backend's reply.
type CompletionResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model,omitempty"`
}

// ProviderError carries a provider-reported failure.
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
