package usecase

import (
	"context"
	"fmt"
	"time"

	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
)

// SubscriptionStatusService resolves entitlement from the reconciled
// subscription records. It implements SubscriptionStatusOracle.
type SubscriptionStatusService struct {
	subscriptions domainRepo.SubscriptionRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewSubscriptionStatusService creates a status service. A nil clock
// defaults to time.Now.
func NewSubscriptionStatusService(subscriptions domainRepo.SubscriptionRepository, logger *zap.Logger, now func() time.Time) *SubscriptionStatusService {
	if now == nil {
		now = time.Now
	}
	return &SubscriptionStatusService{
		subscriptions: subscriptions,
		logger:        logger,
		now:           now,
	}
}

// IsSubscribed reports whether the user holds an active subscription whose
// period has not yet expired. A preliminary "created" record also counts
// until its provisional period end passes.
func (s *SubscriptionStatusService) IsSubscribed(ctx context.Context, userID string) (bool, error) {
	sub, err := s.subscriptions.GetActiveByUserID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load subscription for user: %w", err)
	}
	if sub == nil {
		return false, nil
	}
	return sub.CurrentPeriodEnd.After(s.now()), nil
}
