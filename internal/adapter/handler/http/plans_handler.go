package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
)

// PlansHandler serves the public plan catalog.
type PlansHandler struct {
	logger *zap.Logger
	plans  domainRepo.PlanRepository
}

func NewPlansHandler(logger *zap.Logger, plans domainRepo.PlanRepository) *PlansHandler {
	return &PlansHandler{
		logger: logger,
		plans:  plans,
	}
}

func (h *PlansHandler) GetPlans(c echo.Context) error {
	plans, err := h.plans.GetActivePlans(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list plans", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list plans"})
	}

	return c.JSON(http.StatusOK, echo.Map{"plans": plans})
}
