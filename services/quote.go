package services

import (
	"context"
	"strings"
	"time"

	"github.com/lucsky/cuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/clients"
	"github.com/sepalink/sepalink-go/config"
	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/metrics"
	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
	"github.com/sepalink/sepalink-go/types/requests"
	"github.com/sepalink/sepalink-go/types/responses"
	"github.com/sepalink/sepalink-go/utils"
)

type QuoteService interface {
	IssueQuote(ctx context.Context, req *requests.CreateQuoteRequest) (*responses.Response[*responses.QuoteResponseData], error)
	FetchQuote(ctx context.Context, req *requests.FetchQuoteRequest) (*responses.Response[*responses.QuoteResponseData], error)
	CancelQuote(ctx context.Context, req *requests.CancelQuoteRequest) (*responses.Response[*responses.QuoteResponseData], error)
	// IssueFederationQuote answers a Ripple federation quote request. The
	// caller names the euro amount the recipient must receive; the source
	// amount is sized so the conversion still covers amount plus fee.
	IssueFederationQuote(ctx context.Context, req *requests.FederationQuoteRequest) (*responses.FederationQuoteResponseData, error)
}

func NewQuoteService(dataStore store.Store, rates clients.RateSource, log *zap.Logger) QuoteService {
	return &quoteService{
		service: service{
			store: dataStore,
			rates: rates,
			log:   log,
		},
	}
}

type quoteService struct {
	service
}

func (q *quoteService) IssueQuote(ctx context.Context, req *requests.CreateQuoteRequest) (*responses.Response[*responses.QuoteResponseData], error) {
	rate, err := q.rates.GetRate(ctx, SourceAsset, DestinationAsset)
	if err != nil {
		return nil, errors.NewRateUnavailableError(err)
	}

	destinationAmount := utils.DestinationAmount(req.SourceAmount, rate.Rate, rate.Fee)
	if destinationAmount <= 0 {
		return nil, errors.NewValidationError("source amount does not cover the bridge fee")
	}

	now := time.Now().UTC()
	quote := &models.Quote{
		ID:                cuid.New(),
		SourceAmount:      req.SourceAmount,
		SourceAsset:       SourceAsset,
		DestinationAmount: destinationAmount,
		DestinationAsset:  DestinationAsset,
		Rate:              rate.Rate,
		Fee:               rate.Fee,
		BankAccount: &models.BankAccount{
			RecipientName:  req.RecipientName,
			IBAN:           req.IBAN,
			BIC:            req.BIC,
			RemittanceText: req.RemittanceText,
		},
		Status:    models.Open_QuoteStatus,
		CreatedAt: now,
		ExpiresAt: now.Add(config.QUOTE_TTL),
	}

	if err := q.store.Quotes().Save(ctx, quote); err != nil {
		return nil, errors.NewFatalError(err)
	}

	metrics.QuotesIssued.Inc()
	q.log.Info("quote issued",
		zap.String("quote_id", quote.ID),
		zap.Int64("source_amount", quote.SourceAmount),
		zap.Int64("destination_amount", quote.DestinationAmount),
		zap.Time("expires_at", quote.ExpiresAt))

	return &responses.Response[*responses.QuoteResponseData]{
		Status: "successful",
		Data:   toQuoteResponse(quote),
	}, nil
}

func (q *quoteService) IssueFederationQuote(ctx context.Context, req *requests.FederationQuoteRequest) (*responses.FederationQuoteResponseData, error) {
	account, err := utils.ParseSEPADestination(req.Destination)
	if err != nil {
		return nil, errors.NewValidationError("Cannot find a valid SEPA recipient: " + err.Error())
	}

	value, currency, ok := strings.Cut(req.Amount, "/")
	if !ok || currency != DestinationAsset {
		return nil, errors.NewValidationError("amount must be given as <value>/" + DestinationAsset)
	}
	destinationAmount, err := utils.ParseMinorUnits(value)
	if err != nil || destinationAmount <= 0 {
		return nil, errors.NewValidationError("invalid amount " + value)
	}

	rate, err := q.rates.GetRate(ctx, SourceAsset, DestinationAsset)
	if err != nil {
		return nil, errors.NewRateUnavailableError(err)
	}

	now := time.Now().UTC()
	quote := &models.Quote{
		ID:                cuid.New(),
		SourceAmount:      utils.SourceAmount(destinationAmount, rate.Rate, rate.Fee),
		SourceAsset:       SourceAsset,
		DestinationAmount: destinationAmount,
		DestinationAsset:  DestinationAsset,
		Rate:              rate.Rate,
		Fee:               rate.Fee,
		BankAccount:       account,
		Status:            models.Open_QuoteStatus,
		CreatedAt:         now,
		ExpiresAt:         now.Add(config.QUOTE_TTL),
	}

	if err := q.store.Quotes().Save(ctx, quote); err != nil {
		return nil, errors.NewFatalError(err)
	}

	metrics.QuotesIssued.Inc()
	q.log.Info("federation quote issued",
		zap.String("quote_id", quote.ID),
		zap.Int64("source_amount", quote.SourceAmount),
		zap.Int64("destination_amount", quote.DestinationAmount))

	return &responses.FederationQuoteResponseData{
		Result: "success",
		Quote: &responses.FederationQuote{
			InvoiceID: quote.ID,
			Send: []responses.FederationSendAmount{{
				Currency: SourceAsset,
				Value:    decimal.New(quote.SourceAmount, -6).String(),
				Issuer:   config.ACCEPTED_ISSUER,
			}},
			Address: config.BRIDGE_ADDRESS,
			Expires: quote.ExpiresAt.Unix(),
		},
	}, nil
}

func (q *quoteService) FetchQuote(ctx context.Context, req *requests.FetchQuoteRequest) (*responses.Response[*responses.QuoteResponseData], error) {
	quote, err := q.loadQuote(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}

	return &responses.Response[*responses.QuoteResponseData]{
		Status: "successful",
		Data:   toQuoteResponse(quote),
	}, nil
}

func (q *quoteService) CancelQuote(ctx context.Context, req *requests.CancelQuoteRequest) (*responses.Response[*responses.QuoteResponseData], error) {
	quote, err := q.loadQuote(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}

	if quote.Status != models.Open_QuoteStatus {
		return nil, errors.NewInvalidStateError("quote is " + quote.Status.String() + ", only open quotes can be cancelled")
	}

	err = q.store.Quotes().UpdateStatus(ctx, quote.ID, models.Open_QuoteStatus, models.Cancelled_QuoteStatus)
	if err == store.ErrStaleState {
		// Lost against a concurrent consume or cancel.
		return nil, errors.NewInvalidStateError("quote is no longer open")
	}
	if err != nil {
		return nil, errors.NewFatalError(err)
	}

	quote.Status = models.Cancelled_QuoteStatus
	q.log.Info("quote cancelled", zap.String("quote_id", quote.ID))

	return &responses.Response[*responses.QuoteResponseData]{
		Status: "successful",
		Data:   toQuoteResponse(quote),
	}, nil
}

// loadQuote reads a quote and settles lazy expiry: an Open quote past its
// deadline is returned as Expired and the stored state is nudged along
// best-effort. Staleness is always consistent with the clock at lookup.
func (q *quoteService) loadQuote(ctx context.Context, id string) (*models.Quote, error) {
	quote, err := q.store.Quotes().Find(ctx, id)
	if err == store.ErrNotFound {
		return nil, errors.NewNotFoundError("quote not found")
	}
	if err != nil {
		return nil, errors.NewFatalError(err)
	}

	if effective := quote.EffectiveStatus(time.Now().UTC()); effective != quote.Status {
		if err := q.store.Quotes().UpdateStatus(ctx, quote.ID, quote.Status, effective); err != nil && err != store.ErrStaleState {
			return nil, errors.NewFatalError(err)
		}
		quote.Status = effective
	}

	return quote, nil
}

func toQuoteResponse(quote *models.Quote) *responses.QuoteResponseData {
	return &responses.QuoteResponseData{
		ID:                quote.ID,
		SourceAmount:      quote.SourceAmount,
		SourceAsset:       quote.SourceAsset,
		DestinationAmount: quote.DestinationAmount,
		DestinationAsset:  quote.DestinationAsset,
		Rate:              quote.Rate.String(),
		Fee:               quote.Fee,
		BankAccount:       quote.BankAccount,
		Status:            quote.Status,
		BridgeAddress:     config.BRIDGE_ADDRESS,
		CreatedAt:         quote.CreatedAt,
		ExpiresAt:         quote.ExpiresAt,
	}
}
