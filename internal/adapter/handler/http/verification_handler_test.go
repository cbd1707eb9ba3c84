package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/lumenchat/billing-service/internal/domain/entity"
	"github.com/lumenchat/billing-service/internal/infrastructure/crypto"
	"github.com/lumenchat/billing-service/internal/usecase"
)

const testPaymentSecret = "payment-test-secret"

func newVerificationTestHandler(subRepo *MockSubscriptionRepository) *VerificationHandler {
	logger := zap.NewNop()
	verifier := crypto.NewPaymentSignatureVerifier(testPaymentSecret)
	reconciliation := usecase.NewReconciliationService(subRepo, logger, nil)
	return NewVerificationHandler(logger, verifier, reconciliation)
}

func TestVerificationHandler_VerifiesSubscriptionPayment(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	handler := newVerificationTestHandler(subRepo)

	paymentID := "pay_N8xLkwa1hAgBmm"
	subscriptionID := "sub_N8xKj2d9fWqYzz"
	sig := webhookSign(paymentID+"|"+subscriptionID, testPaymentSecret)

	subRepo.On("GetByProviderID", mock.Anything, subscriptionID).Return(nil, nil)
	subRepo.On("Create", mock.Anything, mock.MatchedBy(func(sub *entity.Subscription) bool {
		return sub.UserID == testUserID &&
			sub.ProviderSubscriptionID == subscriptionID &&
			sub.Status == "created"
	})).Return(&entity.Subscription{
		UserID:                 testUserID,
		ProviderSubscriptionID: subscriptionID,
		Status:                 "created",
	}, nil)

	body := `{"payment_id": "` + paymentID + `", "subscription_id": "` + subscriptionID + `", "signature": "` + sig + `"}`
	rec := performAuthed(handler.VerifyPayment, http.MethodPost, "/api/v1/payments/verify", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"verified":true`)
	subRepo.AssertExpectations(t)
}

func TestVerificationHandler_VerifiesOrderPaymentWithoutRecording(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	handler := newVerificationTestHandler(subRepo)

	paymentID := "pay_N8xLkwa1hAgBmm"
	orderID := "order_N8xJq7wPzLm0aa"
	sig := webhookSign(orderID+"|"+paymentID, testPaymentSecret)

	body := `{"payment_id": "` + paymentID + `", "order_id": "` + orderID + `", "signature": "` + sig + `"}`
	rec := performAuthed(handler.VerifyPayment, http.MethodPost, "/api/v1/payments/verify", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	subRepo.AssertNotCalled(t, "GetByProviderID", mock.Anything, mock.Anything)
	subRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerificationHandler_RejectsInvalidSignature(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	handler := newVerificationTestHandler(subRepo)

	body := `{"payment_id": "pay_N8xLkwa1hAgBmm", "subscription_id": "sub_N8xKj2d9fWqYzz", "signature": "forged"}`
	rec := performAuthed(handler.VerifyPayment, http.MethodPost, "/api/v1/payments/verify", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"verified":false`)
	subRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerificationHandler_RejectsMissingReference(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	handler := newVerificationTestHandler(subRepo)

	body := `{"payment_id": "pay_N8xLkwa1hAgBmm", "signature": "deadbeef"}`
	rec := performAuthed(handler.VerifyPayment, http.MethodPost, "/api/v1/payments/verify", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerificationHandler_RejectsMissingRequiredFields(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	handler := newVerificationTestHandler(subRepo)

	rec := performAuthed(handler.VerifyPayment, http.MethodPost, "/api/v1/payments/verify", `{"payment_id": "pay_x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerificationHandler_UnconfiguredVerifier(t *testing.T) {
	logger := zap.NewNop()
	verifier := crypto.NewPaymentSignatureVerifier("")
	reconciliation := usecase.NewReconciliationService(new(MockSubscriptionRepository), logger, nil)
	handler := NewVerificationHandler(logger, verifier, reconciliation)

	body := `{"payment_id": "pay_x", "subscription_id": "sub_x", "signature": "deadbeef"}`
	rec := performAuthed(handler.VerifyPayment, http.MethodPost, "/api/v1/payments/verify", body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVerificationHandler_RecordFailureSurfaces(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	handler := newVerificationTestHandler(subRepo)

	paymentID := "pay_N8xLkwa1hAgBmm"
	subscriptionID := "sub_N8xKj2d9fWqYzz"
	sig := webhookSign(paymentID+"|"+subscriptionID, testPaymentSecret)

	subRepo.On("GetByProviderID", mock.Anything, subscriptionID).Return(nil, assert.AnError)

	body := `{"payment_id": "` + paymentID + `", "subscription_id": "` + subscriptionID + `", "signature": "` + sig + `"}`
	rec := performAuthed(handler.VerifyPayment, http.MethodPost, "/api/v1/payments/verify", body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
