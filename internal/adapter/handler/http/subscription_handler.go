package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/lumenchat/billing-service/internal/domain/provider"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"github.com/lumenchat/billing-service/internal/middleware/auth"
	"go.uber.org/zap"
)

// SubscriptionHandler serves checkout and subscription lookups.
type SubscriptionHandler struct {
	logger        *zap.Logger
	subscriptions domainRepo.SubscriptionRepository
	plans         domainRepo.PlanRepository
	provider      provider.SubscriptionProvider
	validate      *validator.Validate
}

func NewSubscriptionHandler(logger *zap.Logger, subscriptions domainRepo.SubscriptionRepository, plans domainRepo.PlanRepository, subscriptionProvider provider.SubscriptionProvider) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:        logger,
		subscriptions: subscriptions,
		plans:         plans,
		provider:      subscriptionProvider,
		validate:      validator.New(),
	}
}

type createSubscriptionRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// CreateSubscription starts checkout by creating a provider-side
// subscription. The caller's user id travels in the subscription notes so
// the webhook channel can attribute ownership when events arrive.
func (h *SubscriptionHandler) CreateSubscription(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	plan, err := h.plans.GetByProviderPlanID(c.Request().Context(), req.PlanID)
	if err != nil {
		h.logger.Error("Failed to look up plan",
			zap.String("provider_plan_id", req.PlanID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to look up plan"})
	}
	if plan == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Unknown plan"})
	}

	resp, err := h.provider.CreateSubscription(c.Request().Context(), &provider.CreateSubscriptionRequest{
		ProviderPlanID: req.PlanID,
		UserID:         user.UserID,
		TotalCount:     12,
	})
	if err != nil {
		h.logger.Error("Provider subscription creation failed",
			zap.String("user_id", user.UserID),
			zap.String("provider_plan_id", req.PlanID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Payment provider unavailable"})
	}

	h.logger.Info("Provider subscription created",
		zap.String("user_id", user.UserID),
		zap.String("provider_subscription_id", resp.ProviderSubscriptionID))

	return c.JSON(http.StatusOK, echo.Map{
		"subscription_id": resp.ProviderSubscriptionID,
		"status":          resp.Status,
		"short_url":       resp.ShortURL,
	})
}

// GetCurrentSubscription returns the caller's current subscription, if any.
func (h *SubscriptionHandler) GetCurrentSubscription(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	sub, err := h.subscriptions.GetActiveByUserID(c.Request().Context(), user.UserID)
	if err != nil {
		h.logger.Error("Failed to load current subscription",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load subscription"})
	}
	if sub == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No active subscription"})
	}

	return c.JSON(http.StatusOK, sub)
}
