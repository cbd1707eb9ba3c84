package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/lumenchat/billing-service/internal/domain/entity"
	domainErrors "github.com/lumenchat/billing-service/internal/domain/errors"
	domainRepo "github.com/lumenchat/billing-service/internal/domain/repository"
	"github.com/lumenchat/billing-service/internal/infrastructure/crypto"
	"github.com/lumenchat/billing-service/internal/usecase"
)

const testWebhookSecret = "webhook-test-secret"

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) GetByProviderID(ctx context.Context, providerSubscriptionID string) (*entity.Subscription, error) {
	args := m.Called(ctx, providerSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, providerSubscriptionID string, patch domainRepo.SubscriptionPatch) (*entity.Subscription, error) {
	args := m.Called(ctx, providerSubscriptionID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Upsert(ctx context.Context, providerSubscriptionID string, patch domainRepo.SubscriptionPatch, defaults domainRepo.SubscriptionDefaults) (*entity.Subscription, error) {
	args := m.Called(ctx, providerSubscriptionID, patch, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

// MockWebhookEventRepository is a mock implementation of WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) RecordDelivery(ctx context.Context, providerEventID, eventType string, payload []byte) (bool, error) {
	args := m.Called(ctx, providerEventID, eventType, payload)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, providerEventID string) error {
	args := m.Called(ctx, providerEventID)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) MarkFailed(ctx context.Context, providerEventID string, procErr error) error {
	args := m.Called(ctx, providerEventID, procErr)
	return args.Error(0)
}

func webhookSign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookTestHandler(subRepo *MockSubscriptionRepository, events *MockWebhookEventRepository) *WebhookHandler {
	logger := zap.NewNop()
	verifier := crypto.NewWebhookSignatureVerifier(testWebhookSecret)
	reconciliation := usecase.NewReconciliationService(subRepo, logger, nil)
	return NewWebhookHandler(logger, verifier, reconciliation, events)
}

func performWebhook(handler *WebhookHandler, body, signature, eventID string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(webhookSignatureHeader, signature)
	}
	if eventID != "" {
		req.Header.Set(webhookEventIDHeader, eventID)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler.HandleWebhook(c)
	return rec
}

const activatedBody = `{
	"event": "subscription.activated",
	"payload": {
		"subscription": {
			"entity": {
				"id": "sub_N8xKj2d9fWqYzz",
				"plan_id": "plan_N8wGq1x4aTe9bb",
				"status": "active",
				"current_end": 1772366400,
				"notes": {"user_id": "550e8400-e29b-41d4-a716-446655440000"}
			}
		}
	}
}`

func TestWebhookHandler_RejectsBadSignature(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	events := new(MockWebhookEventRepository)
	handler := newWebhookTestHandler(subRepo, events)

	rec := performWebhook(handler, activatedBody, "invalid-signature", "evt_1")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	subRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "RecordDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_RejectsMissingSignature(t *testing.T) {
	handler := newWebhookTestHandler(new(MockSubscriptionRepository), new(MockWebhookEventRepository))

	rec := performWebhook(handler, activatedBody, "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookHandler_UnconfiguredVerifier(t *testing.T) {
	logger := zap.NewNop()
	verifier := crypto.NewWebhookSignatureVerifier("")
	reconciliation := usecase.NewReconciliationService(new(MockSubscriptionRepository), logger, nil)
	handler := NewWebhookHandler(logger, verifier, reconciliation, new(MockWebhookEventRepository))

	rec := performWebhook(handler, activatedBody, webhookSign(activatedBody, testWebhookSecret), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookHandler_RejectsUnparseableBody(t *testing.T) {
	handler := newWebhookTestHandler(new(MockSubscriptionRepository), new(MockWebhookEventRepository))

	body := `{"event": "subscription.activated", "payload":`
	rec := performWebhook(handler, body, webhookSign(body, testWebhookSecret), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_AppliesActivation(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	events := new(MockWebhookEventRepository)
	handler := newWebhookTestHandler(subRepo, events)

	events.On("RecordDelivery", mock.Anything, "evt_activated_1", "subscription.activated", mock.Anything).Return(true, nil)
	subRepo.On("Upsert", mock.Anything, "sub_N8xKj2d9fWqYzz", mock.Anything, mock.Anything).
		Return(&entity.Subscription{ProviderSubscriptionID: "sub_N8xKj2d9fWqYzz", Status: "active"}, nil)
	events.On("MarkProcessed", mock.Anything, "evt_activated_1").Return(nil)

	rec := performWebhook(handler, activatedBody, webhookSign(activatedBody, testWebhookSecret), "evt_activated_1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"received":true`)

	subRepo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestWebhookHandler_AcknowledgesRedelivery(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	events := new(MockWebhookEventRepository)
	handler := newWebhookTestHandler(subRepo, events)

	events.On("RecordDelivery", mock.Anything, "evt_activated_1", "subscription.activated", mock.Anything).Return(false, nil)

	rec := performWebhook(handler, activatedBody, webhookSign(activatedBody, testWebhookSecret), "evt_activated_1")
	assert.Equal(t, http.StatusOK, rec.Code)

	subRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}

func TestWebhookHandler_LedgerFailureDoesNotBlockProcessing(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	events := new(MockWebhookEventRepository)
	handler := newWebhookTestHandler(subRepo, events)

	events.On("RecordDelivery", mock.Anything, "evt_activated_1", "subscription.activated", mock.Anything).Return(false, assert.AnError)
	subRepo.On("Upsert", mock.Anything, "sub_N8xKj2d9fWqYzz", mock.Anything, mock.Anything).
		Return(&entity.Subscription{ProviderSubscriptionID: "sub_N8xKj2d9fWqYzz", Status: "active"}, nil)
	events.On("MarkProcessed", mock.Anything, "evt_activated_1").Return(nil)

	rec := performWebhook(handler, activatedBody, webhookSign(activatedBody, testWebhookSecret), "evt_activated_1")
	assert.Equal(t, http.StatusOK, rec.Code)
	subRepo.AssertExpectations(t)
}

func TestWebhookHandler_AcknowledgesUnhandledEvent(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	events := new(MockWebhookEventRepository)
	handler := newWebhookTestHandler(subRepo, events)

	body := `{"event": "payment.captured", "payload": {"payment": {"entity": {"id": "pay_x"}}}}`
	events.On("RecordDelivery", mock.Anything, "evt_pay_1", "payment.captured", mock.Anything).Return(true, nil)
	events.On("MarkProcessed", mock.Anything, "evt_pay_1").Return(nil)

	rec := performWebhook(handler, body, webhookSign(body, testWebhookSecret), "evt_pay_1")
	assert.Equal(t, http.StatusOK, rec.Code)

	subRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	subRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_RejectsHandledEventWithoutSubscriptionID(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	events := new(MockWebhookEventRepository)
	handler := newWebhookTestHandler(subRepo, events)

	body := `{"event": "subscription.activated", "payload": {"subscription": {"entity": {"status": "active"}}}}`
	events.On("RecordDelivery", mock.Anything, "evt_no_id", "subscription.activated", mock.Anything).Return(true, nil)

	rec := performWebhook(handler, body, webhookSign(body, testWebhookSecret), "evt_no_id")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	subRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_TerminalForUnknownSubscriptionFails(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	events := new(MockWebhookEventRepository)
	handler := newWebhookTestHandler(subRepo, events)

	body := `{
		"event": "subscription.cancelled",
		"payload": {"subscription": {"entity": {"id": "sub_unknown", "status": "cancelled"}}}
	}`
	events.On("RecordDelivery", mock.Anything, "evt_term_1", "subscription.cancelled", mock.Anything).Return(true, nil)
	subRepo.On("Update", mock.Anything, "sub_unknown", domainRepo.SubscriptionPatch{Status: "cancelled"}).
		Return(nil, domainErrors.ErrSubscriptionNotFound)
	events.On("MarkFailed", mock.Anything, "evt_term_1", mock.Anything).Return(nil)

	rec := performWebhook(handler, body, webhookSign(body, testWebhookSecret), "evt_term_1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	subRepo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestWebhookHandler_MissingEventIDSkipsLedger(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	events := new(MockWebhookEventRepository)
	handler := newWebhookTestHandler(subRepo, events)

	subRepo.On("Upsert", mock.Anything, "sub_N8xKj2d9fWqYzz", mock.Anything, mock.Anything).
		Return(&entity.Subscription{ProviderSubscriptionID: "sub_N8xKj2d9fWqYzz", Status: "active"}, nil)

	rec := performWebhook(handler, activatedBody, webhookSign(activatedBody, testWebhookSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	events.AssertNotCalled(t, "RecordDelivery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}
