package models

import "encoding/json"

type Webhook struct {
	Event WebhookEvent `json:"event"`
	Data  any          `json:"data"`
}

type WebhookEvent uint8

const (
	PayoutSubmitted_WebhookEvent WebhookEvent = iota + 1
	PayoutConfirmed_WebhookEvent
	PayoutFailed_WebhookEvent

	PaymentUnmatched_WebhookEvent
)

func (w WebhookEvent) String() string {
	switch w {
	case PayoutSubmitted_WebhookEvent:
		return "payout.submitted"
	case PayoutConfirmed_WebhookEvent:
		return "payout.confirmed"
	case PayoutFailed_WebhookEvent:
		return "payout.failed"
	case PaymentUnmatched_WebhookEvent:
		return "payment.unmatched"
	default:
		panic("unreachable")
	}
}

func (w WebhookEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}
