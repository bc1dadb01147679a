// Package clients holds the HTTP clients for the bridge's external
// collaborators: the exchange-rate source, the SEPA payout API and the
// inbound-payment detector.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/config"
)

const rateRequestTimeout = 5 * time.Second

// RateQuote is one rate-source answer: destination minor units per source
// minor unit, plus the fixed fee in destination minor units.
type RateQuote struct {
	Rate decimal.Decimal `json:"rate"`
	Fee  int64           `json:"fee"`
}

type RateSource interface {
	GetRate(ctx context.Context, sourceAsset, destinationAsset string) (*RateQuote, error)
}

func NewRateSource(log *zap.Logger) RateSource {
	return &rateSource{
		baseURL: config.RATE_SOURCE_URL,
		client:  &http.Client{Timeout: rateRequestTimeout},
		breaker: newBreaker("rate-source"),
		log:     log,
	}
}

type rateSource struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func (r *rateSource) GetRate(ctx context.Context, sourceAsset, destinationAsset string) (*RateQuote, error) {
	res, err := r.breaker.Execute(func() (any, error) {
		return r.fetch(ctx, sourceAsset, destinationAsset)
	})
	if err != nil {
		r.log.Warn("rate source unavailable", zap.Error(err))
		return nil, err
	}
	return res.(*RateQuote), nil
}

func (r *rateSource) fetch(ctx context.Context, sourceAsset, destinationAsset string) (*RateQuote, error) {
	query := url.Values{}
	query.Set("source", sourceAsset)
	query.Set("destination", destinationAsset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate source answered %d", res.StatusCode)
	}

	quote := new(RateQuote)
	if err := json.NewDecoder(res.Body).Decode(quote); err != nil {
		return nil, err
	}
	if quote.Rate.Sign() <= 0 {
		return nil, fmt.Errorf("rate source answered non-positive rate %s", quote.Rate)
	}
	return quote, nil
}

var (
	maxNumOfFailingRequests = 10
	failingRatio            = 0.6
)

// newBreaker trips once the failing ratio is met over a minimum number of
// requests, keeping a flapping upstream from stalling every caller on
// timeouts.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > maxNumOfFailingRequests && ratio >= failingRatio
		},
	})
}
