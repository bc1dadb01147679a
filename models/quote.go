package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sepalink/sepalink-go/errors"
)

// Quote is a rate-locked, time-bounded offer to convert a fixed amount of
// XRP drops into a fixed amount of euro cents. DestinationAmount, Rate and
// Fee are set once at issuance and never change.
type Quote struct {
	ID                string          `json:"id"`
	SourceAmount      int64           `json:"source_amount"`
	SourceAsset       string          `json:"source_asset"`
	DestinationAmount int64           `json:"destination_amount"`
	DestinationAsset  string          `json:"destination_asset"`
	Rate              decimal.Decimal `json:"rate"`
	Fee               int64           `json:"fee"`
	BankAccount       *BankAccount    `json:"bank_account"`
	Status            QuoteStatus     `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	ExpiresAt         time.Time       `json:"expires_at"`
}

// EffectiveStatus derives the quote state at the given instant. Expiry is
// never driven by a timer: a stored Open past its deadline reads as Expired.
func (q *Quote) EffectiveStatus(now time.Time) QuoteStatus {
	if q.Status == Open_QuoteStatus && now.After(q.ExpiresAt) {
		return Expired_QuoteStatus
	}
	return q.Status
}

type QuoteStatus uint8

const (
	Open_QuoteStatus QuoteStatus = iota
	Consumed_QuoteStatus
	Expired_QuoteStatus
	Cancelled_QuoteStatus
)

func (q QuoteStatus) String() string {
	switch q {
	case Open_QuoteStatus:
		return "open"
	case Consumed_QuoteStatus:
		return "consumed"
	case Expired_QuoteStatus:
		return "expired"
	case Cancelled_QuoteStatus:
		return "cancelled"
	default:
		panic("unreachable")
	}
}

// Terminal reports whether no further transition may leave this status.
func (q QuoteStatus) Terminal() bool {
	return q != Open_QuoteStatus
}

func (q *QuoteStatus) UnmarshalJSON(input []byte) error {
	if q == nil {
		q = new(QuoteStatus)
	}
	strInput := string(input)
	strInput = strings.Trim(strInput, `"`)
	switch strInput {
	case "open":
		*q = Open_QuoteStatus
	case "consumed":
		*q = Consumed_QuoteStatus
	case "expired":
		*q = Expired_QuoteStatus
	case "cancelled":
		*q = Cancelled_QuoteStatus
	default:
		return errors.NewValidationError("invalid quote status")
	}
	return nil
}

func (q QuoteStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// ParseQuoteStatus converts the stored string form back into a status.
func ParseQuoteStatus(s string) (QuoteStatus, error) {
	var status QuoteStatus
	if err := status.UnmarshalJSON([]byte(s)); err != nil {
		return 0, err
	}
	return status, nil
}
