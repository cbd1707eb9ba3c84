package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/lumenchat/billing-service/internal/domain/provider"
	"github.com/lumenchat/billing-service/internal/middleware/auth"
	"github.com/lumenchat/billing-service/internal/usecase"
	"go.uber.org/zap"
)

// ChatHandler orchestrates the metered chat feature: admit through the quota
// gate, call the completion backend, then record the completion. The counter
// moves only after a successful completion, so a backend failure never
// consumes quota.
type ChatHandler struct {
	logger      *zap.Logger
	quota       *usecase.QuotaService
	completions provider.CompletionClient
	validate    *validator.Validate
}

func NewChatHandler(logger *zap.Logger, quota *usecase.QuotaService, completions provider.CompletionClient) *ChatHandler {
	return &ChatHandler{
		logger:      logger,
		quota:       quota,
		completions: completions,
		validate:    validator.New(),
	}
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *ChatHandler) Chat(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	admit, err := h.quota.Admit(c.Request().Context(), user.UserID)
	if err != nil {
		h.logger.Error("Quota admission check failed",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to check usage quota"})
	}

	if !admit.Allowed {
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":         "Daily free message limit reached",
			"current_count": admit.CurrentCount,
			"daily_limit":   admit.DailyLimit,
		})
	}

	resp, err := h.completions.Complete(c.Request().Context(), &provider.CompletionRequest{
		UserID:  user.UserID,
		Message: req.Message,
	})
	if err != nil {
		h.logger.Error("Completion backend request failed",
			zap.String("user_id", user.UserID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Completion backend unavailable"})
	}

	if !admit.Subscribed {
		h.quota.RecordCompletion(c.Request().Context(), user.UserID)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"reply": resp.Reply,
		"model": resp.Model,
	})
}
