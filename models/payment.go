package models

import "time"

// InboundPayment is an on-chain receipt notification from the detector
// service. The detector delivers at-least-once, so ID must be treated as
// possibly duplicated. Payments are transient: only the ID survives in the
// reconciliation ledger, unless the payment cannot be matched at all.
type InboundPayment struct {
	ID            string    `json:"id"`
	SourceAmount  int64     `json:"source_amount"`
	Reference     string    `json:"reference"`
	TxHash        string    `json:"tx_hash"`
	SenderAddress string    `json:"sender_address"`
	ReceivedAt    time.Time `json:"received_at"`
}

// UnmatchedPayment is the durable manual-review record for funds that
// arrived without a usable quote. These rows are never deleted.
type UnmatchedPayment struct {
	ID            string    `json:"id"`
	PaymentID     string    `json:"payment_id"`
	SourceAmount  int64     `json:"source_amount"`
	Reference     string    `json:"reference"`
	TxHash        string    `json:"tx_hash"`
	SenderAddress string    `json:"sender_address"`
	Reason        string    `json:"reason"`
	ReceivedAt    time.Time `json:"received_at"`
	CreatedAt     time.Time `json:"created_at"`
}
