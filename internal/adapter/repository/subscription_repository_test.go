package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/lumenchat/billing-service/internal/domain/model"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
)

func TestUpsertAssignments(t *testing.T) {
	periodEnd := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("period end never regresses on conflict", func(t *testing.T) {
		assignments := upsertAssignments(domainRepo.SubscriptionPatch{
			Status:           "active",
			CurrentPeriodEnd: &periodEnd,
		})

		assert.Equal(t,
			gorm.Expr("GREATEST(subscriptions.current_period_end, EXCLUDED.current_period_end)"),
			assignments["current_period_end"])
		assert.Equal(t, model.SubscriptionStatus("active"), assignments["status"])
	})

	t.Run("incoming owner wins over stored owner", func(t *testing.T) {
		assignments := upsertAssignments(domainRepo.SubscriptionPatch{Status: "active"})

		assert.Equal(t,
			gorm.Expr("COALESCE(EXCLUDED.user_id, subscriptions.user_id)"),
			assignments["user_id"])
	})

	t.Run("timestamps come from the database clock", func(t *testing.T) {
		assignments := upsertAssignments(domainRepo.SubscriptionPatch{})

		assert.Equal(t, gorm.Expr("now()"), assignments["updated_at"])
	})

	t.Run("absent patch fields touch nothing", func(t *testing.T) {
		assignments := upsertAssignments(domainRepo.SubscriptionPatch{})

		assert.NotContains(t, assignments, "status")
		assert.NotContains(t, assignments, "current_period_end")
		assert.NotContains(t, assignments, "provider_data")
	})

	t.Run("provider data snapshot is written when present", func(t *testing.T) {
		assignments := upsertAssignments(domainRepo.SubscriptionPatch{
			ProviderData: map[string]interface{}{"id": "sub_N8xKj2d9fWqYzz"},
		})

		assert.Equal(t, model.JSONB{"id": "sub_N8xKj2d9fWqYzz"}, assignments["provider_data"])
	})
}

func TestPatchUpdates(t *testing.T) {
	periodEnd := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("full patch", func(t *testing.T) {
		updates := patchUpdates(domainRepo.SubscriptionPatch{
			Status:           "cancelled",
			CurrentPeriodEnd: &periodEnd,
		})

		assert.Equal(t, model.SubscriptionStatus("cancelled"), updates["status"])
		assert.Equal(t, periodEnd, updates["current_period_end"])
		assert.Equal(t, gorm.Expr("now()"), updates["updated_at"])
	})

	t.Run("status-only patch leaves the period alone", func(t *testing.T) {
		updates := patchUpdates(domainRepo.SubscriptionPatch{Status: "halted"})

		assert.NotContains(t, updates, "current_period_end")
	})
}

func TestIncrementAssignments(t *testing.T) {
	assignments := incrementAssignments()

	// The addition happens in SQL, not in Go, so concurrent completions for
	// the same user cannot lose updates.
	assert.Equal(t, gorm.Expr("usage_counters.count + 1"), assignments["count"])
	assert.Equal(t, gorm.Expr("now()"), assignments["updated_at"])
}
