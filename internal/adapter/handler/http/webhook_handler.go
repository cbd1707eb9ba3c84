package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/lumenchat/billing-service/internal/domain/errors"
	"github.com/lumenchat/billing-service/internal/domain/event"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"github.com/lumenchat/billing-service/internal/infrastructure/crypto"
	"github.com/lumenchat/billing-service/internal/usecase"
	"go.uber.org/zap"
)

const (
	webhookSignatureHeader = "X-Razorpay-Signature"
	webhookEventIDHeader   = "X-Razorpay-Event-Id"
)

// WebhookHandler serves the provider's webhook channel. The provider
// redelivers on any non-2xx response, so everything past the signature gate
// acknowledges with 200 unless applying the event genuinely failed.
type WebhookHandler struct {
	logger         *zap.Logger
	verifier       *crypto.WebhookSignatureVerifier
	reconciliation *usecase.ReconciliationService
	webhookEvents  domainRepo.WebhookEventRepository
}

func NewWebhookHandler(logger *zap.Logger, verifier *crypto.WebhookSignatureVerifier, reconciliation *usecase.ReconciliationService, webhookEvents domainRepo.WebhookEventRepository) *WebhookHandler {
	return &WebhookHandler{
		logger:         logger,
		verifier:       verifier,
		reconciliation: reconciliation,
		webhookEvents:  webhookEvents,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	// The signature covers the raw bytes; verify before parsing anything.
	sig := c.Request().Header.Get(webhookSignatureHeader)
	if err := h.verifier.Verify(body, sig); err != nil {
		if errors.Is(err, domainErrors.ErrVerifierNotConfigured) {
			h.logger.Error("Webhook verifier is not configured")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook verification unavailable"})
		}
		h.logger.Warn("Webhook signature verification failed",
			zap.String("remote_ip", c.RealIP()))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Webhook signature verification failed"})
	}

	payload, err := event.ParseWebhookPayload(body)
	if err != nil {
		h.logger.Error("Error parsing webhook payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
	}

	h.logger.Info("Webhook event received",
		zap.String("event_type", payload.Event),
		zap.String("transition", event.Classify(payload.Event).String()))

	// Delivery ledger. Best effort: a ledger failure must not turn a valid
	// event into a retry storm.
	eventID := c.Request().Header.Get(webhookEventIDHeader)
	if eventID != "" {
		fresh, err := h.webhookEvents.RecordDelivery(c.Request().Context(), eventID, payload.Event, body)
		if err != nil {
			h.logger.Warn("Failed to record webhook delivery",
				zap.String("provider_event_id", eventID),
				zap.Error(err))
		} else if !fresh {
			h.logger.Info("Webhook event already processed, acknowledging redelivery",
				zap.String("provider_event_id", eventID))
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}
	}

	if event.Classify(payload.Event) != event.TransitionUnhandled && payload.Payload.Subscription.Entity.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Event has no subscription id"})
	}

	if err := h.reconciliation.ApplyWebhookEvent(c.Request().Context(), payload); err != nil {
		h.logger.Error("Failed to apply webhook event",
			zap.String("event_type", payload.Event),
			zap.Error(err))
		if eventID != "" {
			if markErr := h.webhookEvents.MarkFailed(c.Request().Context(), eventID, err); markErr != nil {
				h.logger.Warn("Failed to mark webhook delivery failed",
					zap.String("provider_event_id", eventID),
					zap.Error(markErr))
			}
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process webhook event"})
	}

	if eventID != "" {
		if err := h.webhookEvents.MarkProcessed(c.Request().Context(), eventID); err != nil {
			h.logger.Warn("Failed to mark webhook delivery processed",
				zap.String("provider_event_id", eventID),
				zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
