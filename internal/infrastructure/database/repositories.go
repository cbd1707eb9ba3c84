package database

import (
	"github.com/lumenchat/billing-service/internal/adapter/repository"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Subscription domainRepo.SubscriptionRepository
	UsageCounter domainRepo.UsageCounterRepository
	WebhookEvent domainRepo.WebhookEventRepository
	Plan         domainRepo.PlanRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Subscription: repository.NewSubscriptionRepository(db, logger),
		UsageCounter: repository.NewUsageCounterRepository(db, logger),
		WebhookEvent: repository.NewWebhookEventRepository(db, logger),
		Plan:         repository.NewPlanRepository(db, logger),
	}
}
