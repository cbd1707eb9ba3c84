package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenchat/billing-service/internal/domain/entity"
	domainErrors "github.com/lumenchat/billing-service/internal/domain/errors"
	"github.com/lumenchat/billing-service/internal/domain/event"
	"github.com/lumenchat/billing-service/internal/domain/model"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
)

// provisionalPeriod bounds the entitlement granted by a preliminary record
// when the authoritative webhook never arrives.
const provisionalPeriod = 24 * time.Hour

// ReconciliationService converges the verification channel and the webhook
// channel onto one subscription record per provider subscription id. The
// store's uniqueness constraint, not in-process locking, serializes racing
// writes for the same id; all webhook transitions are safe to replay.
type ReconciliationService struct {
	subscriptions domainRepo.SubscriptionRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewReconciliationService creates a reconciliation service. A nil clock
// defaults to time.Now.
func NewReconciliationService(subscriptions domainRepo.SubscriptionRepository, logger *zap.Logger, now func() time.Time) *ReconciliationService {
	if now == nil {
		now = time.Now
	}
	return &ReconciliationService{
		subscriptions: subscriptions,
		logger:        logger,
		now:           now,
	}
}

// RecordVerifiedPayment is the verification channel's soft touch: when the
// caller verifies a payment for a subscription this service has never seen,
// a preliminary record owned by the caller is created with a provisional
// period end. The webhook channel is authoritative for ownership, so a
// mismatching owner on an existing record is logged and tolerated.
func (s *ReconciliationService) RecordVerifiedPayment(ctx context.Context, userID, providerSubscriptionID string) error {
	existing, err := s.subscriptions.GetByProviderID(ctx, providerSubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}

	if existing == nil {
		created, err := s.subscriptions.Create(ctx, &entity.Subscription{
			UserID:                 userID,
			ProviderSubscriptionID: providerSubscriptionID,
			Status:                 string(model.SubscriptionStatusCreated),
			CurrentPeriodEnd:       s.now().Add(provisionalPeriod),
		})
		if err != nil {
			return fmt.Errorf("failed to create preliminary subscription: %w", err)
		}

		s.logger.Info("Preliminary subscription created from verification channel",
			zap.String("subscription_id", created.ID),
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.String("user_id", userID))
		return nil
	}

	if existing.UserID != "" && existing.UserID != userID {
		s.logger.Warn("Subscription ownership mismatch on verification channel",
			zap.String("provider_subscription_id", providerSubscriptionID),
			zap.String("record_user_id", existing.UserID),
			zap.String("caller_user_id", userID))
	}

	return nil
}

// ApplyWebhookEvent applies a classified provider event to the store.
// Unhandled event types are acknowledged without effect.
func (s *ReconciliationService) ApplyWebhookEvent(ctx context.Context, payload *event.WebhookPayload) error {
	sub := payload.Payload.Subscription.Entity

	switch kind := event.Classify(payload.Event); kind {
	case event.TransitionCreateOrActivate, event.TransitionUpsertCharge:
		return s.applyActivation(ctx, payload.Event, &sub)
	case event.TransitionTerminal:
		return s.applyTerminal(ctx, payload.Event, &sub)
	default:
		s.logger.Info("Ignoring unhandled webhook event type",
			zap.String("event_type", payload.Event))
		return nil
	}
}

// applyActivation upserts on both activation and charge events: a charge may
// be the first event this service ever observes for a subscription when
// earlier deliveries were lost or reordered.
func (s *ReconciliationService) applyActivation(ctx context.Context, eventType string, sub *event.SubscriptionEntity) error {
	status := sub.Status
	if status == "" {
		status = string(model.SubscriptionStatusActive)
	}

	var periodEnd *time.Time
	createPeriodEnd := s.now().Add(provisionalPeriod)
	if sub.CurrentEnd > 0 {
		t := time.Unix(sub.CurrentEnd, 0).UTC()
		periodEnd = &t
		createPeriodEnd = t
	}

	// Snapshot of the provider's view, stored alongside the record so the
	// reconciled state is traceable to what the event carried.
	providerData := map[string]interface{}{
		"id":          sub.ID,
		"plan_id":     sub.PlanID,
		"status":      sub.Status,
		"current_end": sub.CurrentEnd,
	}

	updated, err := s.subscriptions.Upsert(ctx, sub.ID,
		domainRepo.SubscriptionPatch{
			Status:           status,
			CurrentPeriodEnd: periodEnd,
			ProviderData:     providerData,
		},
		domainRepo.SubscriptionDefaults{
			UserID:           sub.Notes.UserID,
			ProviderPlanID:   sub.PlanID,
			Status:           status,
			CurrentPeriodEnd: createPeriodEnd,
			ProviderData:     providerData,
		})
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	s.logger.Info("Subscription reconciled from webhook",
		zap.String("event_type", eventType),
		zap.String("provider_subscription_id", sub.ID),
		zap.String("status", updated.Status),
		zap.Time("current_period_end", updated.CurrentPeriodEnd))
	return nil
}

// applyTerminal updates status only. Terminating a subscription this service
// has never seen is a surfaced conflict, not a silent create.
func (s *ReconciliationService) applyTerminal(ctx context.Context, eventType string, sub *event.SubscriptionEntity) error {
	status, ok := event.TerminalStatus(eventType)
	if !ok {
		return fmt.Errorf("event type %q is not terminal", eventType)
	}

	_, err := s.subscriptions.Update(ctx, sub.ID, domainRepo.SubscriptionPatch{Status: status})
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			s.logger.Error("Terminal event for unknown subscription",
				zap.String("event_type", eventType),
				zap.String("provider_subscription_id", sub.ID))
			return fmt.Errorf("%w: %s", domainErrors.ErrUnknownSubscriptionTerminated, sub.ID)
		}
		return fmt.Errorf("failed to update subscription status: %w", err)
	}

	s.logger.Info("Subscription moved to terminal status",
		zap.String("event_type", eventType),
		zap.String("provider_subscription_id", sub.ID),
		zap.String("status", status))
	return nil
}
