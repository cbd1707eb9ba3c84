package usecase

import (
	"context"
	"fmt"
	"time"

	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
)

// SubscriptionStatusOracle answers whether a user currently holds an active
// subscription. QuotaService treats it as a black box.
type SubscriptionStatusOracle interface {
	IsSubscribed(ctx context.Context, userID string) (bool, error)
}

// AdmitResult is the outcome of a quota admission check.
type AdmitResult struct {
	Allowed      bool `json:"allowed"`
	Subscribed   bool `json:"subscribed"`
	CurrentCount int  `json:"current_count"`
	DailyLimit   int  `json:"daily_limit"`
}

// QuotaService gates the metered chat feature behind a per-user daily
// counter. Subscribed users bypass the counter entirely.
//
// Admission is a read check and the increment happens separately after the
// gated operation completes, so two concurrent requests from the same user
// can both be admitted at the limit boundary. That transient over-admission
// is a known property of this design, kept in favor of an atomic
// conditional increment.
type QuotaService struct {
	counters   domainRepo.UsageCounterRepository
	oracle     SubscriptionStatusOracle
	dailyLimit int
	logger     *zap.Logger
	now        func() time.Time
}

// NewQuotaService creates a quota service. A nil clock defaults to time.Now.
func NewQuotaService(counters domainRepo.UsageCounterRepository, oracle SubscriptionStatusOracle, dailyLimit int, logger *zap.Logger, now func() time.Time) *QuotaService {
	if now == nil {
		now = time.Now
	}
	return &QuotaService{
		counters:   counters,
		oracle:     oracle,
		dailyLimit: dailyLimit,
		logger:     logger,
		now:        now,
	}
}

// Admit decides whether a metered request may proceed. The counter is only
// read here, never incremented; an admitted request that fails downstream
// must not consume quota.
func (s *QuotaService) Admit(ctx context.Context, userID string) (*AdmitResult, error) {
	subscribed, err := s.oracle.IsSubscribed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscription status: %w", err)
	}

	if subscribed {
		return &AdmitResult{
			Allowed:    true,
			Subscribed: true,
			DailyLimit: s.dailyLimit,
		}, nil
	}

	counter, err := s.counters.FindOrCreate(ctx, userID, s.dayKey())
	if err != nil {
		return nil, fmt.Errorf("failed to load usage counter: %w", err)
	}

	return &AdmitResult{
		Allowed:      counter.Count < s.dailyLimit,
		CurrentCount: counter.Count,
		DailyLimit:   s.dailyLimit,
	}, nil
}

// RecordCompletion increments today's counter by one after the gated
// operation completed. A failed increment is logged and swallowed: the
// response was already delivered and must not be invalidated retroactively.
func (s *QuotaService) RecordCompletion(ctx context.Context, userID string) {
	counter, err := s.counters.Increment(ctx, userID, s.dayKey())
	if err != nil {
		s.logger.Error("Failed to record metered completion",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}

	s.logger.Debug("Metered completion recorded",
		zap.String("user_id", userID),
		zap.Int("count", counter.Count),
		zap.Int("daily_limit", s.dailyLimit))
}

// dayKey derives the UTC calendar-day key; a new day rolls to a new counter
// row without any explicit reset.
func (s *QuotaService) dayKey() string {
	return s.now().UTC().Format("2006-01-02")
}
