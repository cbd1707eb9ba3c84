package repository

import (
	"context"

	"github.com/lumenchat/billing-service/internal/domain/entity"
	"github.com/lumenchat/billing-service/internal/domain/model"
)

// PlanRepository owns the plan catalog synced from the payment provider.
type PlanRepository interface {
	// GetActivePlans lists active plans ordered for display.
	GetActivePlans(ctx context.Context) ([]*entity.Plan, error)

	// GetByProviderPlanID returns a plan by its provider id, or (nil, nil)
	// when none exists.
	GetByProviderPlanID(ctx context.Context, providerPlanID string) (*entity.Plan, error)

	// UpsertPlan creates or refreshes a plan keyed by its provider id.
	UpsertPlan(ctx context.Context, plan *model.PaymentPlan) error
}
