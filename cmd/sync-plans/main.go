package main

import (
	"context"
	"log"

	"github.com/lumenchat/billing-service/internal/config"
	"github.com/lumenchat/billing-service/internal/domain/model"
	"github.com/lumenchat/billing-service/internal/infrastructure/database"
	"github.com/lumenchat/billing-service/internal/infrastructure/provider/razorpay"
	"github.com/lumenchat/billing-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// sync-plans pulls the provider's plan catalog into the local payment_plans
// table. Run it after creating or changing plans in the provider dashboard.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger := logger.DefaultZapLogger()
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db, zapLogger)

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)
	subscriptionProvider := razorpay.NewProvider(cfg.Service.Provider.KeyID, cfg.Service.Provider.KeySecret, zapLogger)

	ctx := context.Background()
	plans, err := subscriptionProvider.ListPlans(ctx)
	if err != nil {
		zapLogger.Fatal("Failed to list provider plans", zap.Error(err))
	}

	synced := 0
	for _, plan := range plans {
		// Provider amounts are in the smallest currency unit.
		amount := decimal.NewFromInt(plan.Amount).Div(decimal.NewFromInt(100))

		err := repos.Plan.UpsertPlan(ctx, &model.PaymentPlan{
			ProviderPlanID: plan.ProviderPlanID,
			DisplayName:    plan.Name,
			Description:    plan.Description,
			Amount:         amount,
			Currency:       plan.Currency,
			Interval:       plan.Interval,
			IsActive:       true,
		})
		if err != nil {
			zapLogger.Error("Failed to sync plan",
				zap.String("provider_plan_id", plan.ProviderPlanID),
				zap.Error(err))
			continue
		}
		synced++
	}

	zapLogger.Info("Plan sync completed",
		zap.Int("synced", synced),
		zap.Int("total", len(plans)))
}
