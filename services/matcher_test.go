package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
	"github.com/sepalink/sepalink-go/types/requests"
	"github.com/sepalink/sepalink-go/types/responses"
)

func newTestMatcher(dataStore store.Store, dispatcher PayoutDispatcherService) PaymentMatcherService {
	return NewPaymentMatcherService(dataStore, dispatcher, testWebhooks(), zap.NewNop())
}

func notification(paymentID, reference string, amount int64) *requests.PaymentNotificationRequest {
	return &requests.PaymentNotificationRequest{
		PaymentID:     paymentID,
		SourceAmount:  amount,
		Reference:     reference,
		TxHash:        paymentID,
		SenderAddress: "rSenderAddress",
	}
}

func TestHandleInboundPaymentMatches(t *testing.T) {
	ctx := context.Background()
	dataStore := newMemStore()
	dispatcher := &stubDispatcher{}
	matcher := newTestMatcher(dataStore, dispatcher)
	seedOpenQuote(dataStore, "qt_1", 100, 89, time.Now().UTC().Add(15*time.Minute))

	res, err := matcher.HandleInboundPayment(ctx, notification("pay_1", "qt_1", 100))
	require.NoError(t, err)
	assert.Equal(t, "matched", res.Data.Result)
	assert.Equal(t, "qt_1", res.Data.Record.QuoteID)
	assert.Equal(t, models.Pending_PayoutStatus, res.Data.Record.Status)
	assert.Equal(t, 1, dispatcher.dispatched())

	quote, err := dataStore.Quotes().Find(ctx, "qt_1")
	require.NoError(t, err)
	assert.Equal(t, models.Consumed_QuoteStatus, quote.Status)
}

func TestHandleInboundPaymentRedelivery(t *testing.T) {
	ctx := context.Background()
	dataStore := newMemStore()
	dispatcher := &stubDispatcher{}
	matcher := newTestMatcher(dataStore, dispatcher)
	seedOpenQuote(dataStore, "qt_1", 100, 89, time.Now().UTC().Add(15*time.Minute))

	first, err := matcher.HandleInboundPayment(ctx, notification("pay_1", "qt_1", 100))
	require.NoError(t, err)

	// The detector redelivers; the answer comes from the ledger with no
	// second dispatch and no state change.
	second, err := matcher.HandleInboundPayment(ctx, notification("pay_1", "qt_1", 100))
	require.NoError(t, err)
	assert.Equal(t, "duplicate", second.Data.Result)
	assert.Equal(t, first.Data.Record.ID, second.Data.Record.ID)
	assert.Equal(t, 1, dispatcher.dispatched())
}

func TestHandleInboundPaymentConcurrentDuplicates(t *testing.T) {
	dataStore := newMemStore()
	dispatcher := &stubDispatcher{}
	matcher := newTestMatcher(dataStore, dispatcher)
	seedOpenQuote(dataStore, "qt_1", 100, 89, time.Now().UTC().Add(15*time.Minute))

	const workers = 16
	results := make(chan *responses.Response[*responses.MatchResultData], workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := matcher.HandleInboundPayment(context.Background(), notification("pay_1", "qt_1", 100))
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	require.Empty(t, errs, "no concurrent delivery of one payment may fail")

	matched := 0
	for res := range results {
		if res.Data.Result == "matched" {
			matched++
		}
	}
	assert.Equal(t, 1, matched, "exactly one delivery wins")
	assert.Equal(t, 1, dispatcher.dispatched())
}

func TestHandleInboundPaymentNoReference(t *testing.T) {
	ctx := context.Background()
	dataStore := newMemStore()
	matcher := newTestMatcher(dataStore, &stubDispatcher{})

	_, err := matcher.HandleInboundPayment(ctx, notification("pay_1", "", 100))
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnmatchedPayment, errors.AsAppError(err).Type)

	parked, err := dataStore.UnmatchedPayments().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, parked, 1)
	assert.Equal(t, "pay_1", parked[0].PaymentID)
}

func TestHandleInboundPaymentUnknownQuote(t *testing.T) {
	ctx := context.Background()
	dataStore := newMemStore()
	matcher := newTestMatcher(dataStore, &stubDispatcher{})

	_, err := matcher.HandleInboundPayment(ctx, notification("pay_1", "qt_missing", 100))
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnmatchedPayment, errors.AsAppError(err).Type)

	parked, err := dataStore.UnmatchedPayments().List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, parked, 1)
}

func TestHandleInboundPaymentExpiredQuote(t *testing.T) {
	ctx := context.Background()
	dataStore := newMemStore()
	dispatcher := &stubDispatcher{}
	matcher := newTestMatcher(dataStore, dispatcher)
	seedOpenQuote(dataStore, "qt_1", 100, 89, time.Now().UTC().Add(-time.Minute))

	_, err := matcher.HandleInboundPayment(ctx, notification("pay_1", "qt_1", 100))
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnmatchedPayment, errors.AsAppError(err).Type)
	assert.Zero(t, dispatcher.dispatched())

	// The quote itself stays untouched for manual review.
	quote, err := dataStore.Quotes().Find(ctx, "qt_1")
	require.NoError(t, err)
	assert.Equal(t, models.Open_QuoteStatus, quote.Status)
}

func TestHandleInboundPaymentAmountMismatch(t *testing.T) {
	ctx := context.Background()
	dataStore := newMemStore()
	dispatcher := &stubDispatcher{}
	matcher := newTestMatcher(dataStore, dispatcher)
	seedOpenQuote(dataStore, "qt_1", 100, 89, time.Now().UTC().Add(15*time.Minute))

	for _, amount := range []int64{99, 101} {
		_, err := matcher.HandleInboundPayment(ctx, notification(fmt.Sprintf("pay_%d", amount), "qt_1", amount))
		require.Error(t, err)
		assert.Equal(t, errors.ErrQuoteMismatch, errors.AsAppError(err).Type)
	}
	assert.Zero(t, dispatcher.dispatched())

	quote, err := dataStore.Quotes().Find(ctx, "qt_1")
	require.NoError(t, err)
	assert.Equal(t, models.Open_QuoteStatus, quote.Status, "mismatched payments never consume the quote")
}

func TestHandleInboundPaymentDispatchFailureStillMatches(t *testing.T) {
	ctx := context.Background()
	dataStore := newMemStore()
	dispatcher := &stubDispatcher{err: errors.NewFailedDependencyError("payout api down")}
	matcher := newTestMatcher(dataStore, dispatcher)
	seedOpenQuote(dataStore, "qt_1", 100, 89, time.Now().UTC().Add(15*time.Minute))

	// The match is durable before dispatch; a dispatch failure is the
	// recovery sweep's problem, not the detector's.
	res, err := matcher.HandleInboundPayment(ctx, notification("pay_1", "qt_1", 100))
	require.NoError(t, err)
	assert.Equal(t, "matched", res.Data.Result)

	record, err := dataStore.Reconciliations().FindByPaymentID(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, models.Pending_PayoutStatus, record.Status)
}
