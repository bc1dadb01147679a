package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
)

func openQuote(id string) *models.Quote {
	now := time.Now().UTC()
	return &models.Quote{
		ID:                id,
		SourceAmount:      100,
		SourceAsset:       "XRP",
		DestinationAmount: 89,
		DestinationAsset:  "EUR",
		Rate:              decimal.RequireFromString("0.9"),
		Fee:               1,
		BankAccount:       &models.BankAccount{RecipientName: "Jane Doe", IBAN: "DE89370400440532013000", BIC: "DEUTDEFF"},
		Status:            models.Open_QuoteStatus,
		CreatedAt:         now,
		ExpiresAt:         now.Add(15 * time.Minute),
	}
}

func TestConsumeQuote(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Quotes().Save(ctx, openQuote("qt_1")))

	record, err := s.ConsumeQuote(ctx, "qt_1", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "qt_1", record.QuoteID)
	assert.Equal(t, "pay_1", record.PaymentID)
	assert.Equal(t, models.Pending_PayoutStatus, record.Status)

	quote, err := s.Quotes().Find(ctx, "qt_1")
	require.NoError(t, err)
	assert.Equal(t, models.Consumed_QuoteStatus, quote.Status)

	// Same quote again, same payment or not: conflict, nothing written.
	_, err = s.ConsumeQuote(ctx, "qt_1", "pay_1")
	assert.ErrorIs(t, err, store.ErrConflict)
	_, err = s.ConsumeQuote(ctx, "qt_1", "pay_2")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestConsumeQuoteStaleStates(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.ConsumeQuote(ctx, "missing", "pay_1")
	assert.ErrorIs(t, err, store.ErrStaleState)

	quote := openQuote("qt_1")
	quote.Status = models.Cancelled_QuoteStatus
	require.NoError(t, s.Quotes().Save(ctx, quote))

	_, err = s.ConsumeQuote(ctx, "qt_1", "pay_1")
	assert.ErrorIs(t, err, store.ErrStaleState)
}

func TestConsumeQuoteRejectsExpiredQuote(t *testing.T) {
	ctx := context.Background()
	s := New()

	// Stored status is still Open; only the deadline has passed. The CAS
	// must lose so a boundary-timed notification cannot revive the quote.
	quote := openQuote("qt_1")
	quote.ExpiresAt = time.Now().UTC().Add(-time.Millisecond)
	require.NoError(t, s.Quotes().Save(ctx, quote))

	_, err := s.ConsumeQuote(ctx, "qt_1", "pay_1")
	assert.ErrorIs(t, err, store.ErrStaleState)

	stored, err := s.Quotes().Find(ctx, "qt_1")
	require.NoError(t, err)
	assert.Equal(t, models.Open_QuoteStatus, stored.Status)
}

func TestConsumeQuoteRejectsReusedPayment(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Quotes().Save(ctx, openQuote("qt_1")))
	require.NoError(t, s.Quotes().Save(ctx, openQuote("qt_2")))

	_, err := s.ConsumeQuote(ctx, "qt_1", "pay_1")
	require.NoError(t, err)

	// One payment can never consume a second quote.
	_, err = s.ConsumeQuote(ctx, "qt_2", "pay_1")
	assert.ErrorIs(t, err, store.ErrConflict)

	quote, err := s.Quotes().Find(ctx, "qt_2")
	require.NoError(t, err)
	assert.Equal(t, models.Open_QuoteStatus, quote.Status)
}

func TestConsumeQuoteConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Quotes().Save(ctx, openQuote("qt_1")))

	const workers = 32
	var wg sync.WaitGroup
	winners := make(chan *models.ReconciliationRecord, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if record, err := s.ConsumeQuote(ctx, "qt_1", fmt.Sprintf("pay_%d", n)); err == nil {
				winners <- record
			}
		}(i)
	}
	wg.Wait()
	close(winners)

	assert.Len(t, winners, 1, "exactly one concurrent consume may win")
}

func TestQuoteUpdateStatusCAS(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Quotes().Save(ctx, openQuote("qt_1")))

	require.NoError(t, s.Quotes().UpdateStatus(ctx, "qt_1", models.Open_QuoteStatus, models.Cancelled_QuoteStatus))

	err := s.Quotes().UpdateStatus(ctx, "qt_1", models.Open_QuoteStatus, models.Expired_QuoteStatus)
	assert.ErrorIs(t, err, store.ErrStaleState)

	quote, err := s.Quotes().Find(ctx, "qt_1")
	require.NoError(t, err)
	assert.Equal(t, models.Cancelled_QuoteStatus, quote.Status)
}

func TestReconciliationClaim(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Quotes().Save(ctx, openQuote("qt_1")))
	record, err := s.ConsumeQuote(ctx, "qt_1", "pay_1")
	require.NoError(t, err)

	staleBefore := time.Now().UTC().Add(-time.Minute)

	claimed, err := s.Reconciliations().Claim(ctx, record.ID, staleBefore)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = s.Reconciliations().Claim(ctx, record.ID, staleBefore)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim must lose")

	require.NoError(t, s.Reconciliations().Release(ctx, record.ID))
	claimed, err = s.Reconciliations().Claim(ctx, record.ID, staleBefore)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestReconciliationClaimTakesOverStaleClaim(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Quotes().Save(ctx, openQuote("qt_1")))
	record, err := s.ConsumeQuote(ctx, "qt_1", "pay_1")
	require.NoError(t, err)

	claimed, err := s.Reconciliations().Claim(ctx, record.ID, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, claimed)

	// A claim last touched before the cutoff belongs to a crashed holder.
	claimed, err = s.Reconciliations().Claim(ctx, record.ID, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, claimed, "stale claim must be taken over")
}

func TestReconciliationUpdatePreservesClaim(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Quotes().Save(ctx, openQuote("qt_1")))
	record, err := s.ConsumeQuote(ctx, "qt_1", "pay_1")
	require.NoError(t, err)

	_, err = s.Reconciliations().Claim(ctx, record.ID, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)

	// The snapshot carries InFlight=false; writing it back must not drop
	// the claim another dispatcher holds.
	require.NoError(t, record.MarkSubmitted(time.Now().UTC(), "po_1"))
	require.NoError(t, s.Reconciliations().Update(ctx, record))

	claimed, err := s.Reconciliations().Claim(ctx, record.ID, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestReconciliationListByStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("qt_%d", i)
		require.NoError(t, s.Quotes().Save(ctx, openQuote(id)))
		_, err := s.ConsumeQuote(ctx, id, fmt.Sprintf("pay_%d", i))
		require.NoError(t, err)
	}

	pending, err := s.Reconciliations().ListByStatus(ctx, models.Pending_PayoutStatus, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	record := pending[0]
	require.NoError(t, record.MarkSubmitted(time.Now().UTC(), "po_1"))
	require.NoError(t, s.Reconciliations().Update(ctx, record))

	pending, err = s.Reconciliations().ListByStatus(ctx, models.Pending_PayoutStatus, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	all, err := s.Reconciliations().List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.Reconciliations().List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestUnmatchedPaymentSaveIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	payment := &models.UnmatchedPayment{PaymentID: "pay_1", SourceAmount: 100, Reason: "no reference"}
	require.NoError(t, s.UnmatchedPayments().Save(ctx, payment))
	require.NoError(t, s.UnmatchedPayments().Save(ctx, payment))

	parked, err := s.UnmatchedPayments().List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, parked, 1)
}
