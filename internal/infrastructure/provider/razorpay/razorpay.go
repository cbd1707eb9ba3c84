package razorpay

import (
	"context"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/lumenchat/billing-service/internal/domain/provider"
	"go.uber.org/zap"
)

// Provider implements provider.SubscriptionProvider on top of the Razorpay
// SDK. The SDK is synchronous and does not take a context; the ctx parameter
// is kept for interface symmetry.
type Provider struct {
	client *razorpay.Client
	logger *zap.Logger
}

// NewProvider creates a Razorpay-backed subscription provider
func NewProvider(keyID, keySecret string, logger *zap.Logger) *Provider {
	return &Provider{
		client: razorpay.NewClient(keyID, keySecret),
		logger: logger,
	}
}

// GetProviderName returns the provider name
func (p *Provider) GetProviderName() string {
	return "razorpay"
}

// CreateSubscription creates a provider-side subscription for checkout. The
// user id goes into the subscription notes; webhook events echo the notes
// back, which is how ownership is attributed during reconciliation.
func (p *Provider) CreateSubscription(ctx context.Context, req *provider.CreateSubscriptionRequest) (*provider.CreateSubscriptionResponse, error) {
	data := map[string]interface{}{
		"plan_id":         req.ProviderPlanID,
		"total_count":     req.TotalCount,
		"customer_notify": 1,
		"notes": map[string]interface{}{
			"user_id": req.UserID,
		},
	}

	body, err := p.client.Subscription.Create(data, nil)
	if err != nil {
		p.logger.Error("Razorpay subscription creation failed",
			zap.String("plan_id", req.ProviderPlanID),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "SUBSCRIPTION_CREATE_FAILED",
			Message: "Razorpay subscription creation failed",
			Details: err.Error(),
		}
	}

	id, _ := body["id"].(string)
	status, _ := body["status"].(string)
	shortURL, _ := body["short_url"].(string)

	p.logger.Info("Razorpay subscription created",
		zap.String("provider_subscription_id", id),
		zap.String("status", status))

	return &provider.CreateSubscriptionResponse{
		ProviderSubscriptionID: id,
		Status:                 status,
		ShortURL:               shortURL,
	}, nil
}

// ListPlans fetches the provider's plan catalog.
func (p *Provider) ListPlans(ctx context.Context) ([]*provider.ProviderPlan, error) {
	body, err := p.client.Plan.All(nil, nil)
	if err != nil {
		p.logger.Error("Razorpay plan listing failed", zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    "PLAN_LIST_FAILED",
			Message: "Razorpay plan listing failed",
			Details: err.Error(),
		}
	}

	items, _ := body["items"].([]interface{})
	plans := make([]*provider.ProviderPlan, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		plan := &provider.ProviderPlan{}
		plan.ProviderPlanID, _ = item["id"].(string)
		plan.Interval, _ = item["period"].(string)

		if inner, ok := item["item"].(map[string]interface{}); ok {
			plan.Name, _ = inner["name"].(string)
			plan.Description, _ = inner["description"].(string)
			plan.Currency, _ = inner["currency"].(string)
			if amount, ok := inner["amount"].(float64); ok {
				plan.Amount = int64(amount)
			}
		}

		if plan.ProviderPlanID == "" {
			continue
		}
		plans = append(plans, plan)
	}

	return plans, nil
}
