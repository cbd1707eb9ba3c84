package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/lumenchat/billing-service/internal/adapter/handler/http"
	"github.com/lumenchat/billing-service/internal/config"
	"github.com/lumenchat/billing-service/internal/domain/provider"
	"github.com/lumenchat/billing-service/internal/infrastructure/crypto"
	"github.com/lumenchat/billing-service/internal/infrastructure/database"
	"github.com/lumenchat/billing-service/internal/middleware/auth"
	"github.com/lumenchat/billing-service/internal/usecase"
	pkgErrors "github.com/lumenchat/billing-service/pkg/errors"
	"github.com/lumenchat/billing-service/pkg/logger"
	"go.uber.org/zap"
)

type Server struct {
	config      *config.Config
	logger      *zap.Logger
	echo        *echo.Echo
	repos       *database.Repositories
	provider    provider.SubscriptionProvider
	completions provider.CompletionClient
}

func NewServer(cfg *config.Config, log *zap.Logger, repos *database.Repositories, subscriptionProvider provider.SubscriptionProvider, completions provider.CompletionClient) *Server {
	e := echo.New()
	e.HideBanner = true

	// Central handler for errors returned by echo itself (unknown routes,
	// method mismatches) and anything a handler lets bubble up.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		httpErr := pkgErrors.ToHTTPError(err)
		if httpErr.Code >= http.StatusInternalServerError {
			pkgErrors.LogError(log, err, "Unhandled request error",
				zap.String("path", c.Request().URL.Path))
		}
		if !c.Response().Committed {
			_ = c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
		}
	}

	// Middleware
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:      cfg,
		logger:      log,
		echo:        e,
		repos:       repos,
		provider:    subscriptionProvider,
		completions: completions,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Signature verifiers for the two inbound channels
	paymentVerifier := crypto.NewPaymentSignatureVerifier(s.config.Service.Provider.KeySecret)
	webhookVerifier := crypto.NewWebhookSignatureVerifier(s.config.Service.Provider.WebhookSecret)

	// Core services
	reconciliation := usecase.NewReconciliationService(s.repos.Subscription, s.logger, nil)
	statusOracle := usecase.NewSubscriptionStatusService(s.repos.Subscription, s.logger, nil)
	quota := usecase.NewQuotaService(s.repos.UsageCounter, statusOracle, s.config.Service.Quota.DailyFreeLimit, s.logger, nil)

	// Handlers
	plansHandler := handlers.NewPlansHandler(s.logger, s.repos.Plan)
	verificationHandler := handlers.NewVerificationHandler(s.logger, paymentVerifier, reconciliation)
	webhookHandler := handlers.NewWebhookHandler(s.logger, webhookVerifier, reconciliation, s.repos.WebhookEvent)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.logger, s.repos.Subscription, s.repos.Plan, s.provider)
	chatHandler := handlers.NewChatHandler(s.logger, quota, s.completions)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.Auth.JWTSecret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/webhook",
			"/api/v1/plans",
		},
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Public routes (no authentication required)
	v1.GET("/plans", plansHandler.GetPlans)

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	protected.POST("/payments/verify", verificationHandler.VerifyPayment)
	protected.POST("/chat", chatHandler.Chat)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("/current", subscriptionHandler.GetCurrentSubscription)

	// Webhook route (outside API versioning, provider-authenticated)
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)
}
