package services

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/clients"
	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
	"github.com/sepalink/sepalink-go/store/memstore"
)

const (
	testIBAN = "DE89370400440532013000"
	testBIC  = "DEUTDEFF"
)

type stubRates struct {
	quote *clients.RateQuote
	err   error
}

func (s *stubRates) GetRate(context.Context, string, string) (*clients.RateQuote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func defaultRates() *stubRates {
	return &stubRates{quote: &clients.RateQuote{Rate: decimal.RequireFromString("0.9"), Fee: 1}}
}

type stubPayouts struct {
	mu          sync.Mutex
	createCalls []*clients.PayoutRequest
	statusCalls []string

	createFn func(*clients.PayoutRequest) (*clients.PayoutReceipt, error)
	statusFn func(string) (*clients.PayoutReceipt, error)
}

func (s *stubPayouts) CreatePayout(_ context.Context, req *clients.PayoutRequest) (*clients.PayoutReceipt, error) {
	s.mu.Lock()
	s.createCalls = append(s.createCalls, req)
	s.mu.Unlock()
	if s.createFn == nil {
		return &clients.PayoutReceipt{PayoutRequestID: "po_" + req.IdempotencyKey, Status: "submitted"}, nil
	}
	return s.createFn(req)
}

func (s *stubPayouts) GetPayoutStatus(_ context.Context, key string) (*clients.PayoutReceipt, error) {
	s.mu.Lock()
	s.statusCalls = append(s.statusCalls, key)
	s.mu.Unlock()
	if s.statusFn == nil {
		return nil, clients.ErrPayoutUnknown
	}
	return s.statusFn(key)
}

func (s *stubPayouts) created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.createCalls)
}

type stubDispatcher struct {
	mu       sync.Mutex
	recordID []string
	err      error
}

func (s *stubDispatcher) Dispatch(_ context.Context, record *models.ReconciliationRecord) error {
	s.mu.Lock()
	s.recordID = append(s.recordID, record.ID)
	s.mu.Unlock()
	return s.err
}

func (s *stubDispatcher) StartBackground() error { return nil }

func (s *stubDispatcher) dispatched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recordID)
}

func testWebhooks() WebhookService { return NewWebhookService(zap.NewNop()) }

func testJournal() JournalService { return NewJournalService(nil, zap.NewNop()) }

func seedOpenQuote(dataStore store.Store, id string, sourceAmount, destinationAmount int64, expiresAt time.Time) *models.Quote {
	quote := &models.Quote{
		ID:                id,
		SourceAmount:      sourceAmount,
		SourceAsset:       SourceAsset,
		DestinationAmount: destinationAmount,
		DestinationAsset:  DestinationAsset,
		Rate:              decimal.RequireFromString("0.9"),
		Fee:               1,
		BankAccount:       &models.BankAccount{RecipientName: "Jane Doe", IBAN: testIBAN, BIC: testBIC},
		Status:            models.Open_QuoteStatus,
		CreatedAt:         time.Now().UTC().Add(-time.Minute),
		ExpiresAt:         expiresAt,
	}
	if err := dataStore.Quotes().Save(context.Background(), quote); err != nil {
		panic(err)
	}
	return quote
}

func newMemStore() store.Store { return memstore.New() }
