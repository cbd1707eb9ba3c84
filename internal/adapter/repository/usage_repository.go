package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lumenchat/billing-service/internal/domain/entity"
	"github.com/lumenchat/billing-service/internal/domain/model"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type usageCounterRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUsageCounterRepository creates a new usage counter repository
func NewUsageCounterRepository(db *gorm.DB, logger *zap.Logger) domainRepo.UsageCounterRepository {
	return &usageCounterRepository{
		db:     db,
		logger: logger,
	}
}

// FindOrCreate returns the counter for (userID, usageDate), inserting a
// zero-count row when none exists. The insert is ON CONFLICT DO NOTHING so
// two lazily-creating requests cannot produce duplicate rows.
func (r *usageCounterRepository) FindOrCreate(ctx context.Context, userID, usageDate string) (*entity.UsageCounter, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	seed := model.UsageCounter{
		UserID:    uid,
		UsageDate: usageDate,
		Count:     0,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
			DoNothing: true,
		}).
		Create(&seed).Error
	if err != nil {
		r.logger.Error("Failed to create usage counter",
			zap.String("user_id", userID),
			zap.String("usage_date", usageDate),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create usage counter: %w", err)
	}

	return r.get(ctx, uid, usageDate)
}

// Increment atomically adds one to the counter, creating the row with count
// 1 when absent. The addition happens in SQL so concurrent completions for
// the same user never lose updates.
func (r *usageCounterRepository) Increment(ctx context.Context, userID, usageDate string) (*entity.UsageCounter, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	seed := model.UsageCounter{
		UserID:    uid,
		UsageDate: usageDate,
		Count:     1,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
			DoUpdates: clause.Assignments(incrementAssignments()),
		}).
		Create(&seed).Error
	if err != nil {
		r.logger.Error("Failed to increment usage counter",
			zap.String("user_id", userID),
			zap.String("usage_date", usageDate),
			zap.Error(err))
		return nil, fmt.Errorf("failed to increment usage counter: %w", err)
	}

	return r.get(ctx, uid, usageDate)
}

// incrementAssignments is the ON CONFLICT update set for Increment. The
// addition happens in SQL so concurrent completions never lose updates, and
// the timestamp comes from the database clock.
func incrementAssignments() map[string]interface{} {
	return map[string]interface{}{
		"count":      gorm.Expr("usage_counters.count + 1"),
		"updated_at": gorm.Expr("now()"),
	}
}

func (r *usageCounterRepository) get(ctx context.Context, userID uuid.UUID, usageDate string) (*entity.UsageCounter, error) {
	var counter model.UsageCounter
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, usageDate).
		First(&counter).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read usage counter: %w", err)
	}

	return &entity.UsageCounter{
		UserID:    counter.UserID.String(),
		UsageDate: counter.UsageDate,
		Count:     counter.Count,
		UpdatedAt: counter.UpdatedAt,
	}, nil
}
