package repository

import (
	"context"

	"github.com/lumenchat/billing-service/internal/domain/entity"
)

// UsageCounterRepository tracks metered interactions per user per calendar
// day. Rows are created lazily on first use; a new day means a new row.
type UsageCounterRepository interface {
	// FindOrCreate returns the counter for (userID, usageDate), creating a
	// zero-count row when none exists yet.
	FindOrCreate(ctx context.Context, userID, usageDate string) (*entity.UsageCounter, error)

	// Increment atomically adds one to the counter for (userID, usageDate),
	// creating the row with count 1 when absent.
	Increment(ctx context.Context, userID, usageDate string) (*entity.UsageCounter, error)
}
