package errors

import "errors"

var (
	// ErrSignatureMismatch indicates that an HMAC signature did not match the payload
	ErrSignatureMismatch = errors.New("signature verification failed")

	// ErrVerifierNotConfigured indicates that a signing secret is missing
	ErrVerifierNotConfigured = errors.New("signature verifier is not configured")

	// ErrMissingPaymentReference indicates that neither a subscription id nor an order id was supplied
	ErrMissingPaymentReference = errors.New("either subscription_id or order_id is required")

	// ErrSubscriptionNotFound indicates that the specified subscription was not found
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrUnknownSubscriptionTerminated indicates a terminal event for a subscription this service has never seen
	ErrUnknownSubscriptionTerminated = errors.New("terminal event received for unknown subscription")

	// ErrNoActiveSubscription indicates that the user has no active subscription
	ErrNoActiveSubscription = errors.New("no active subscription found")
)
