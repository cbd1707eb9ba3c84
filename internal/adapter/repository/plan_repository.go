package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenchat/billing-service/internal/domain/entity"
	"github.com/lumenchat/billing-service/internal/domain/model"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type planRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PlanRepository {
	return &planRepository{
		db:     db,
		logger: logger,
	}
}

// GetActivePlans lists active plans ordered for display
func (r *planRepository) GetActivePlans(ctx context.Context) ([]*entity.Plan, error) {
	var plans []model.PaymentPlan

	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&plans).Error
	if err != nil {
		r.logger.Error("Failed to list active plans", zap.Error(err))
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	entities := make([]*entity.Plan, len(plans))
	for i := range plans {
		entities[i] = r.modelToEntity(&plans[i])
	}
	return entities, nil
}

// GetByProviderPlanID returns a plan by its provider id
func (r *planRepository) GetByProviderPlanID(ctx context.Context, providerPlanID string) (*entity.Plan, error) {
	var plan model.PaymentPlan

	err := r.db.WithContext(ctx).
		Where("provider_plan_id = ?", providerPlanID).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get plan by provider ID",
			zap.String("provider_plan_id", providerPlanID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.modelToEntity(&plan), nil
}

// UpsertPlan creates or refreshes a plan keyed by its provider id
func (r *planRepository) UpsertPlan(ctx context.Context, plan *model.PaymentPlan) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_plan_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"display_name": plan.DisplayName,
				"description":  plan.Description,
				"amount":       plan.Amount,
				"currency":     plan.Currency,
				"interval":     plan.Interval,
				"updated_at":   gorm.Expr("now()"),
			}),
		}).
		Create(plan).Error
	if err != nil {
		r.logger.Error("Failed to upsert plan",
			zap.String("provider_plan_id", plan.ProviderPlanID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert plan: %w", err)
	}
	return nil
}

func (r *planRepository) modelToEntity(m *model.PaymentPlan) *entity.Plan {
	return &entity.Plan{
		ID:             fmt.Sprintf("%d", m.ID),
		ProviderPlanID: m.ProviderPlanID,
		DisplayName:    m.DisplayName,
		Description:    m.Description,
		Amount:         m.Amount.StringFixed(2),
		Currency:       m.Currency,
		Interval:       m.Interval,
		IsActive:       m.IsActive,
	}
}
