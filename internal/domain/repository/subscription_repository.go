package repository

import (
	"context"
	"time"

	"github.com/lumenchat/billing-service/internal/domain/entity"
)

// SubscriptionPatch carries the fields a reconciliation transition may change.
// Nil fields are left untouched.
type SubscriptionPatch struct {
	Status           string
	CurrentPeriodEnd *time.Time
	ProviderData     map[string]interface{}
}

// SubscriptionDefaults holds the values used when an upsert has to create the
// record because no row exists yet for the provider subscription id.
type SubscriptionDefaults struct {
	UserID           string
	ProviderPlanID   string
	Status           string
	CurrentPeriodEnd time.Time
	ProviderData     map[string]interface{}
}

// SubscriptionRepository owns the durable subscription records keyed by the
// provider-assigned subscription id. Implementations must enforce the
// uniqueness of ProviderSubscriptionID atomically; Upsert in particular must
// resolve racing creates to a single surviving row.
type SubscriptionRepository interface {
	// GetByProviderID returns the record for a provider subscription id,
	// or (nil, nil) when none exists.
	GetByProviderID(ctx context.Context, providerSubscriptionID string) (*entity.Subscription, error)

	// Create inserts a new record. The internal id is assigned here.
	Create(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error)

	// Update applies a patch to an existing record. Returns
	// errors.ErrSubscriptionNotFound when no record exists.
	Update(ctx context.Context, providerSubscriptionID string, patch SubscriptionPatch) (*entity.Subscription, error)

	// Upsert creates the record from defaults if absent, else applies the
	// patch. CurrentPeriodEnd never regresses on the update path.
	Upsert(ctx context.Context, providerSubscriptionID string, patch SubscriptionPatch, defaults SubscriptionDefaults) (*entity.Subscription, error)

	// GetActiveByUserID returns the user's most recent active subscription,
	// or (nil, nil) when none exists.
	GetActiveByUserID(ctx context.Context, userID string) (*entity.Subscription, error)
}
