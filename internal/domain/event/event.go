package event

import "encoding/json"

// Provider webhook event types this service reacts to.
const (
	TypeSubscriptionActivated = "subscription.activated"
	TypeSubscriptionCharged   = "subscription.charged"
	TypeSubscriptionHalted    = "subscription.halted"
	TypeSubscriptionCancelled = "subscription.cancelled"
	TypeSubscriptionCompleted = "subscription.completed"
	TypeSubscriptionExpired   = "subscription.expired"
)

// TransitionKind is the closed set of reconciliation transitions a webhook
// event can trigger. The provider's event taxonomy is an open string enum;
// everything we do not recognize maps to TransitionUnhandled and is
// acknowledged so the provider does not keep redelivering it.
type TransitionKind int

const (
	TransitionUnhandled TransitionKind = iota
	TransitionCreateOrActivate
	TransitionUpsertCharge
	TransitionTerminal
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionCreateOrActivate:
		return "create_or_activate"
	case TransitionUpsertCharge:
		return "upsert_charge"
	case TransitionTerminal:
		return "terminal"
	default:
		return "unhandled"
	}
}

// Classify maps a provider event type to its reconciliation transition.
func Classify(eventType string) TransitionKind {
	switch eventType {
	case TypeSubscriptionActivated:
		return TransitionCreateOrActivate
	case TypeSubscriptionCharged:
		return TransitionUpsertCharge
	case TypeSubscriptionHalted, TypeSubscriptionCancelled, TypeSubscriptionCompleted, TypeSubscriptionExpired:
		return TransitionTerminal
	default:
		return TransitionUnhandled
	}
}

// TerminalStatus returns the subscription status a terminal event maps to.
// The second result is false for non-terminal event types.
func TerminalStatus(eventType string) (string, bool) {
	switch eventType {
	case TypeSubscriptionHalted:
		return "halted", true
	case TypeSubscriptionCancelled:
		return "cancelled", true
	case TypeSubscriptionCompleted:
		return "completed", true
	case TypeSubscriptionExpired:
		return "expired", true
	default:
		return "", false
	}
}

// WebhookPayload is the provider's webhook envelope.
type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription struct {
			Entity SubscriptionEntity `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

// SubscriptionEntity is the subscription object embedded in webhook payloads.
type SubscriptionEntity struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
	CurrentEnd int64  `json:"current_end"`
	Notes      Notes  `json:"notes"`
}

// Notes carries the metadata we attach when creating provider subscriptions.
// The provider serializes empty notes as an array, hence the custom decoder.
type Notes struct {
	UserID string `json:"user_id"`
}

func (n *Notes) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		*n = Notes{}
		return nil
	}

	type plain Notes
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = Notes(p)
	return nil
}

// ParseWebhookPayload decodes a raw webhook body.
func ParseWebhookPayload(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
