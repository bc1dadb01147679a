package requests

import "time"

// PaymentNotificationRequest is the detector webhook payload. Reference
// carries whatever the sender put in the transaction's destination tag; it
// is expected to name a quote but may be absent or garbage.
type PaymentNotificationRequest struct {
	PaymentID     string    `json:"payment_id" validate:"required"`
	SourceAmount  int64     `json:"source_amount" validate:"required,gt=0"`
	Reference     string    `json:"reference"`
	TxHash        string    `json:"tx_hash"`
	SenderAddress string    `json:"sender_address"`
	ReceivedAt    time.Time `json:"received_at"`
}
