package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	domainErrors "github.com/lumenchat/billing-service/internal/domain/errors"
)

// validHMAC computes an HMAC-SHA256 digest over the exact message bytes and
// compares it to the hex-encoded signature in constant time.
func validHMAC(message []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PaymentSignatureVerifier authenticates client-initiated payment
// verification requests signed by the provider's checkout flow.
type PaymentSignatureVerifier struct {
	secret string
}

func NewPaymentSignatureVerifier(secret string) *PaymentSignatureVerifier {
	return &PaymentSignatureVerifier{secret: secret}
}

// Verify checks the payment channel signature. The signable string is
// "paymentID|subscriptionID" for subscription payments and
// "orderID|paymentID" for one-time orders. Supplying neither reference is a
// request validation failure, not a signature failure.
func (v *PaymentSignatureVerifier) Verify(paymentID, subscriptionID, orderID, signature string) error {
	if v.secret == "" {
		return domainErrors.ErrVerifierNotConfigured
	}

	var signable string
	switch {
	case subscriptionID != "":
		signable = paymentID + "|" + subscriptionID
	case orderID != "":
		signable = orderID + "|" + paymentID
	default:
		return domainErrors.ErrMissingPaymentReference
	}

	if !validHMAC([]byte(signable), signature, v.secret) {
		return domainErrors.ErrSignatureMismatch
	}
	return nil
}

// WebhookSignatureVerifier authenticates provider webhook deliveries. The
// signable payload is the entire raw request body; verifying a re-serialized
// form would break the signature on any byte-level difference.
type WebhookSignatureVerifier struct {
	secret string
}

func NewWebhookSignatureVerifier(secret string) *WebhookSignatureVerifier {
	return &WebhookSignatureVerifier{secret: secret}
}

// Verify checks the webhook signature header against the raw body.
func (v *WebhookSignatureVerifier) Verify(rawBody []byte, signature string) error {
	if v.secret == "" {
		return domainErrors.ErrVerifierNotConfigured
	}
	if !validHMAC(rawBody, signature, v.secret) {
		return domainErrors.ErrSignatureMismatch
	}
	return nil
}
