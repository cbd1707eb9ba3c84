package database

import (
	"fmt"

	"github.com/lumenchat/billing-service/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	// Create custom types BEFORE auto-migrate
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	// Auto-migrate all models
	err := db.AutoMigrate(
		&model.PaymentPlan{},
		&model.Subscription{},
		&model.UsageCounter{},
		&model.ProviderWebhookEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomTypes creates the PostgreSQL enum types the models reference.
func createCustomTypes(db *gorm.DB) error {
	statements := []string{
		`DO $$ BEGIN
			CREATE TYPE subscription_status AS ENUM ('created', 'active', 'halted', 'cancelled', 'completed', 'expired');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`DO $$ BEGIN
			CREATE TYPE webhook_status AS ENUM ('pending', 'completed', 'failed');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create custom type: %w", err)
		}
	}
	return nil
}
