package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sepalink/sepalink-go/errors"
)

// ReconciliationRecord links a consumed quote to the inbound payment that
// consumed it and tracks the outbound payout attempt sequence. QuoteID and
// PaymentID are each unique across all records; those two constraints are
// what makes payout issuance exactly-once.
type ReconciliationRecord struct {
	ID              string       `json:"id"`
	QuoteID         string       `json:"quote_id"`
	PaymentID       string       `json:"payment_id"`
	PayoutRequestID *string      `json:"payout_request_id,omitempty"`
	Status          PayoutStatus `json:"status"`
	InFlight        bool         `json:"-"`
	Attempts        int          `json:"attempts"`
	LastAttemptAt   *time.Time   `json:"last_attempt_at,omitempty"`
	LastError       *string      `json:"last_error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// RecordAttempt notes one failed payout attempt, keeping the record Pending
// so it can be retried.
func (r *ReconciliationRecord) RecordAttempt(now time.Time, cause string) error {
	if r.Status != Pending_PayoutStatus {
		return errors.NewInvalidStateError("payout attempt on non-pending record")
	}
	r.Attempts++
	r.LastAttemptAt = &now
	r.LastError = &cause
	r.UpdatedAt = now
	return nil
}

// MarkSubmitted moves Pending to Submitted once the payout API accepted the
// request and assigned it an identifier.
func (r *ReconciliationRecord) MarkSubmitted(now time.Time, payoutRequestID string) error {
	if r.Status != Pending_PayoutStatus {
		return errors.NewInvalidStateError("only pending payouts can be submitted")
	}
	r.Attempts++
	r.Status = Submitted_PayoutStatus
	r.PayoutRequestID = &payoutRequestID
	r.LastAttemptAt = &now
	r.LastError = nil
	r.UpdatedAt = now
	return nil
}

// MarkConfirmed moves Submitted to the terminal Confirmed state.
func (r *ReconciliationRecord) MarkConfirmed(now time.Time) error {
	if r.Status != Submitted_PayoutStatus {
		return errors.NewInvalidStateError("only submitted payouts can be confirmed")
	}
	r.Status = Confirmed_PayoutStatus
	r.UpdatedAt = now
	return nil
}

// MarkFailed moves Pending or Submitted to the terminal Failed state.
func (r *ReconciliationRecord) MarkFailed(now time.Time, cause string) error {
	if r.Status.Terminal() {
		return errors.NewInvalidStateError("payout already in a terminal state")
	}
	r.Status = Failed_PayoutStatus
	r.LastError = &cause
	r.UpdatedAt = now
	return nil
}

type PayoutStatus uint8

const (
	Pending_PayoutStatus PayoutStatus = iota
	Submitted_PayoutStatus
	Confirmed_PayoutStatus
	Failed_PayoutStatus
)

func (p PayoutStatus) String() string {
	switch p {
	case Pending_PayoutStatus:
		return "pending"
	case Submitted_PayoutStatus:
		return "submitted"
	case Confirmed_PayoutStatus:
		return "confirmed"
	case Failed_PayoutStatus:
		return "failed"
	default:
		panic("unreachable")
	}
}

func (p PayoutStatus) Terminal() bool {
	return p == Confirmed_PayoutStatus || p == Failed_PayoutStatus
}

func (p *PayoutStatus) UnmarshalJSON(input []byte) error {
	if p == nil {
		p = new(PayoutStatus)
	}
	strInput := string(input)
	strInput = strings.Trim(strInput, `"`)
	switch strInput {
	case "pending":
		*p = Pending_PayoutStatus
	case "submitted":
		*p = Submitted_PayoutStatus
	case "confirmed":
		*p = Confirmed_PayoutStatus
	case "failed":
		*p = Failed_PayoutStatus
	default:
		return errors.NewValidationError("invalid payout status")
	}
	return nil
}

func (p PayoutStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// ParsePayoutStatus converts the stored string form back into a status.
func ParsePayoutStatus(s string) (PayoutStatus, error) {
	var status PayoutStatus
	if err := status.UnmarshalJSON([]byte(s)); err != nil {
		return 0, err
	}
	return status, nil
}
