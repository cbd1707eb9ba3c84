package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	domainErrors "github.com/lumenchat/billing-service/internal/domain/errors"
	"github.com/lumenchat/billing-service/internal/infrastructure/crypto"
	"github.com/lumenchat/billing-service/internal/middleware/auth"
	"github.com/lumenchat/billing-service/internal/usecase"
	"go.uber.org/zap"
)

// VerificationHandler serves the client-initiated payment verification
// channel. The signature gate runs before anything touches the store.
type VerificationHandler struct {
	logger         *zap.Logger
	verifier       *crypto.PaymentSignatureVerifier
	reconciliation *usecase.ReconciliationService
	validate       *validator.Validate
}

func NewVerificationHandler(logger *zap.Logger, verifier *crypto.PaymentSignatureVerifier, reconciliation *usecase.ReconciliationService) *VerificationHandler {
	return &VerificationHandler{
		logger:         logger,
		verifier:       verifier,
		reconciliation: reconciliation,
		validate:       validator.New(),
	}
}

type verifyPaymentRequest struct {
	PaymentID      string `json:"payment_id" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
	SubscriptionID string `json:"subscription_id"`
	OrderID        string `json:"order_id"`
}

func (h *VerificationHandler) VerifyPayment(c echo.Context) error {
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req verifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	err = h.verifier.Verify(req.PaymentID, req.SubscriptionID, req.OrderID, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrVerifierNotConfigured):
			h.logger.Error("Payment verifier is not configured")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Payment verification unavailable"})
		case errors.Is(err, domainErrors.ErrMissingPaymentReference):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			h.logger.Warn("Payment signature verification failed",
				zap.String("user_id", user.UserID),
				zap.String("payment_id", req.PaymentID))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"verified": false,
				"error":    "Invalid payment signature",
			})
		}
	}

	if req.SubscriptionID != "" {
		if err := h.reconciliation.RecordVerifiedPayment(c.Request().Context(), user.UserID, req.SubscriptionID); err != nil {
			h.logger.Error("Failed to record verified payment",
				zap.String("user_id", user.UserID),
				zap.String("provider_subscription_id", req.SubscriptionID),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to record verified payment"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"verified": true})
}
