package repository

import "context"

// WebhookEventRepository persists verified webhook deliveries so redelivered
// events can be detected and operators can inspect processing failures.
type WebhookEventRepository interface {
	// RecordDelivery stores a delivery keyed by the provider event id.
	// Returns false when the event id was already recorded.
	RecordDelivery(ctx context.Context, providerEventID, eventType string, payload []byte) (bool, error)

	// MarkProcessed marks a delivery as completed.
	MarkProcessed(ctx context.Context, providerEventID string) error

	// MarkFailed marks a delivery as failed with the processing error.
	MarkFailed(ctx context.Context, providerEventID string, procErr error) error
}
