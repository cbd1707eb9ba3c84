package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lumenchat/billing-service/internal/domain/entity"
	domainErrors "github.com/lumenchat/billing-service/internal/domain/errors"
	"github.com/lumenchat/billing-service/internal/domain/model"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// GetByProviderID retrieves a subscription by the provider subscription ID
func (r *subscriptionRepository) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*entity.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by provider ID",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.modelToEntity(&sub), nil
}

// Create inserts a new subscription record, assigning its internal ID
func (r *subscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	m, err := r.entityToModel(sub)
	if err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		r.logger.Error("Failed to create subscription",
			zap.String("provider_subscription_id", sub.ProviderSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return r.modelToEntity(m), nil
}

// Update applies a patch to an existing subscription record
func (r *subscriptionRepository) Update(ctx context.Context, providerSubscriptionID string, patch domainRepo.SubscriptionPatch) (*entity.Subscription, error) {
	var existing model.Subscription
	err := r.db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&existing).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrSubscriptionNotFound, providerSubscriptionID)
		}
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}

	err = r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Updates(patchUpdates(patch)).Error

	if err != nil {
		r.logger.Error("Failed to update subscription",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	return r.GetByProviderID(ctx, providerSubscriptionID)
}

// Upsert creates the record from defaults when absent, else patches it. The
// unique constraint on provider_subscription_id makes racing creates for the
// same ID collapse into one row, and current_period_end never regresses on
// the conflict path.
func (r *subscriptionRepository) Upsert(ctx context.Context, providerSubscriptionID string, patch domainRepo.SubscriptionPatch, defaults domainRepo.SubscriptionDefaults) (*entity.Subscription, error) {
	m := &model.Subscription{
		ID:                     uuid.New(),
		ProviderSubscriptionID: providerSubscriptionID,
		Status:                 model.SubscriptionStatus(defaults.Status),
		CurrentPeriodEnd:       defaults.CurrentPeriodEnd,
	}
	if defaults.UserID != "" {
		userID, err := uuid.Parse(defaults.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", defaults.UserID, err)
		}
		m.UserID = &userID
	}
	if defaults.ProviderPlanID != "" {
		m.ProviderPlanID = &defaults.ProviderPlanID
	}
	if defaults.ProviderData != nil {
		m.ProviderData = model.JSONB(defaults.ProviderData)
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_subscription_id"}},
			DoUpdates: clause.Assignments(upsertAssignments(patch)),
		}).
		Create(m).Error

	if err != nil {
		r.logger.Error("Failed to upsert subscription",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return r.GetByProviderID(ctx, providerSubscriptionID)
}

// GetActiveByUserID retrieves the user's current entitlement-bearing record.
// Preliminary "created" records count until their provisional period lapses.
func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	var sub model.Subscription
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", uid, []model.SubscriptionStatus{
			model.SubscriptionStatusActive,
			model.SubscriptionStatusCreated,
		}).
		Order("current_period_end DESC").
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get active subscription for user",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}

	return r.modelToEntity(&sub), nil
}

// patchUpdates builds the update set for a plain patch. Timestamps come from
// the database clock.
func patchUpdates(patch domainRepo.SubscriptionPatch) map[string]interface{} {
	updates := map[string]interface{}{
		"updated_at": gorm.Expr("now()"),
	}
	if patch.Status != "" {
		updates["status"] = model.SubscriptionStatus(patch.Status)
	}
	if patch.CurrentPeriodEnd != nil {
		updates["current_period_end"] = *patch.CurrentPeriodEnd
	}
	if patch.ProviderData != nil {
		updates["provider_data"] = model.JSONB(patch.ProviderData)
	}
	return updates
}

// upsertAssignments builds the ON CONFLICT update set for Upsert.
func upsertAssignments(patch domainRepo.SubscriptionPatch) map[string]interface{} {
	assignments := map[string]interface{}{
		// The webhook channel is authoritative for ownership, so an
		// incoming user id wins over whatever the row holds.
		"user_id":    gorm.Expr("COALESCE(EXCLUDED.user_id, subscriptions.user_id)"),
		"updated_at": gorm.Expr("now()"),
	}
	if patch.Status != "" {
		assignments["status"] = model.SubscriptionStatus(patch.Status)
	}
	if patch.CurrentPeriodEnd != nil {
		// Out-of-order deliveries must never shrink an entitlement.
		assignments["current_period_end"] = gorm.Expr("GREATEST(subscriptions.current_period_end, EXCLUDED.current_period_end)")
	}
	if patch.ProviderData != nil {
		assignments["provider_data"] = model.JSONB(patch.ProviderData)
	}
	return assignments
}

// modelToEntity converts database model to domain entity
func (r *subscriptionRepository) modelToEntity(m *model.Subscription) *entity.Subscription {
	if m == nil {
		return nil
	}

	e := &entity.Subscription{
		ID:                     m.ID.String(),
		ProviderSubscriptionID: m.ProviderSubscriptionID,
		Status:                 string(m.Status),
		CurrentPeriodEnd:       m.CurrentPeriodEnd,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
	if m.UserID != nil {
		e.UserID = m.UserID.String()
	}
	if m.ProviderPlanID != nil {
		e.PlanID = *m.ProviderPlanID
	}

	return e
}

// entityToModel converts domain entity to database model
func (r *subscriptionRepository) entityToModel(e *entity.Subscription) (*model.Subscription, error) {
	if e == nil {
		return nil, nil
	}

	m := &model.Subscription{
		ProviderSubscriptionID: e.ProviderSubscriptionID,
		Status:                 model.SubscriptionStatus(e.Status),
		CurrentPeriodEnd:       e.CurrentPeriodEnd,
	}

	if e.ID != "" {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid subscription id %q: %w", e.ID, err)
		}
		m.ID = id
	}
	if e.UserID != "" {
		userID, err := uuid.Parse(e.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", e.UserID, err)
		}
		m.UserID = &userID
	}
	if e.PlanID != "" {
		m.ProviderPlanID = &e.PlanID
	}

	return m, nil
}
