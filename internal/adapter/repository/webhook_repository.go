package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumenchat/billing-service/internal/domain/model"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

// RecordDelivery stores a verified delivery keyed by the provider event id.
// Returns false when the id was already recorded (provider redelivery).
func (r *webhookEventRepository) RecordDelivery(ctx context.Context, providerEventID, eventType string, payload []byte) (bool, error) {
	var data model.JSONB
	if err := json.Unmarshal(payload, &data); err != nil {
		return false, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	event := model.ProviderWebhookEvent{
		ProviderEventID: providerEventID,
		EventType:       eventType,
		Status:          model.WebhookStatusPending,
		Payload:         data,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(&event)

	if result.Error != nil {
		r.logger.Error("Failed to record webhook delivery",
			zap.String("provider_event_id", providerEventID),
			zap.String("event_type", eventType),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to record webhook delivery: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// MarkProcessed marks a delivery as completed
func (r *webhookEventRepository) MarkProcessed(ctx context.Context, providerEventID string) error {
	err := r.db.WithContext(ctx).
		Model(&model.ProviderWebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Updates(map[string]interface{}{
			"status":       model.WebhookStatusCompleted,
			"processed_at": gorm.Expr("now()"),
			"last_error":   nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark webhook processed: %w", err)
	}
	return nil
}

// MarkFailed marks a delivery as failed with the processing error
func (r *webhookEventRepository) MarkFailed(ctx context.Context, providerEventID string, procErr error) error {
	msg := procErr.Error()
	err := r.db.WithContext(ctx).
		Model(&model.ProviderWebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Updates(map[string]interface{}{
			"status":     model.WebhookStatusFailed,
			"last_error": &msg,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark webhook failed: %w", err)
	}
	return nil
}
