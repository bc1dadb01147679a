package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/config"
)

const payoutRequestTimeout = 15 * time.Second

// PayoutRequest is the outbound bank-transfer order. IdempotencyKey equals
// the quote identifier for the whole attempt sequence.
type PayoutRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	RecipientName  string `json:"recipient_name"`
	IBAN           string `json:"iban"`
	BIC            string `json:"bic"`
	RemittanceText string `json:"remittance_text,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	VerifyTxHash   string `json:"verify_tx_hash,omitempty"`
}

type PayoutReceipt struct {
	PayoutRequestID string `json:"payout_request_id"`
	Status          string `json:"status"`
}

// PayoutError is a definitive rejection from the payout API (invalid
// account, compliance refusal). It is never retried.
type PayoutError struct {
	StatusCode int
	Body       string
}

func (p *PayoutError) Error() string {
	return fmt.Sprintf("payout api rejected request: %d %s", p.StatusCode, p.Body)
}

// ErrPayoutUnknown is the status-endpoint answer for an idempotency key the
// payout API has never seen: submission may safely be (re)attempted.
var ErrPayoutUnknown = fmt.Errorf("payout api does not know this key")

type PayoutAPI interface {
	CreatePayout(ctx context.Context, req *PayoutRequest) (*PayoutReceipt, error)
	// GetPayoutStatus resolves the current state of an attempt sequence by
	// idempotency key. Used both to settle ambiguous transport failures
	// before a retry and to poll submitted payouts to their bank-side
	// outcome.
	GetPayoutStatus(ctx context.Context, idempotencyKey string) (*PayoutReceipt, error)
}

func NewPayoutAPI(log *zap.Logger) PayoutAPI {
	return &payoutAPI{
		baseURL: config.PAYOUT_API_URL,
		token:   config.PAYOUT_API_TOKEN,
		client:  &http.Client{Timeout: payoutRequestTimeout},
		breaker: newBreaker("payout-api"),
		log:     log,
	}
}

type payoutAPI struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func (p *payoutAPI) CreatePayout(ctx context.Context, payout *PayoutRequest) (*PayoutReceipt, error) {
	body, err := json.Marshal(payout)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/payouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("X-Idempotency-Key", payout.IdempotencyKey)
	p.authorize(req)

	return p.do(req)
}

func (p *payoutAPI) GetPayoutStatus(ctx context.Context, idempotencyKey string) (*PayoutReceipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/payouts/"+idempotencyKey, nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)

	receipt, err := p.do(req)
	if payoutErr, ok := err.(*PayoutError); ok && payoutErr.StatusCode == http.StatusNotFound {
		return nil, ErrPayoutUnknown
	}
	return receipt, err
}

func (p *payoutAPI) authorize(req *http.Request) {
	req.Header.Set("accept", "application/json")
	if p.token != "" {
		req.Header.Set("authorization", "Bearer "+p.token)
	}
}

func (p *payoutAPI) do(req *http.Request) (*PayoutReceipt, error) {
	res, err := p.breaker.Execute(func() (any, error) {
		httpRes, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpRes.Body.Close()

		resBody, _ := io.ReadAll(httpRes.Body)
		switch {
		case httpRes.StatusCode >= 200 && httpRes.StatusCode < 300:
			receipt := new(PayoutReceipt)
			if err := json.Unmarshal(resBody, receipt); err != nil {
				return nil, err
			}
			return receipt, nil
		case httpRes.StatusCode >= 400 && httpRes.StatusCode < 500:
			// Definitive: retrying an invalid order cannot succeed. Return
			// through the breaker without counting it as upstream failure.
			return &PayoutError{StatusCode: httpRes.StatusCode, Body: string(resBody)}, nil
		default:
			return nil, fmt.Errorf("payout api answered %d: %s", httpRes.StatusCode, resBody)
		}
	})
	if err != nil {
		return nil, err
	}
	if payoutErr, ok := res.(*PayoutError); ok {
		return nil, payoutErr
	}
	return res.(*PayoutReceipt), nil
}
