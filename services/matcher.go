package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/metrics"
	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
	"github.com/sepalink/sepalink-go/types/requests"
	"github.com/sepalink/sepalink-go/types/responses"
)

type PaymentMatcherService interface {
	HandleInboundPayment(ctx context.Context, req *requests.PaymentNotificationRequest) (*responses.Response[*responses.MatchResultData], error)
}

func NewPaymentMatcherService(dataStore store.Store, dispatcher PayoutDispatcherService, webhookService WebhookService, log *zap.Logger) PaymentMatcherService {
	return &paymentMatcherService{
		service: service{
			store:          dataStore,
			dispatcher:     dispatcher,
			webhookService: webhookService,
			log:            log,
		},
	}
}

type paymentMatcherService struct {
	service
}

// HandleInboundPayment reconciles one detector notification. Redeliveries
// are answered from the ledger without side effects; the consume+create
// critical section runs as one atomic store operation, so of N concurrent
// deliveries exactly one wins and the rest fall back to the dedup read.
func (m *paymentMatcherService) HandleInboundPayment(ctx context.Context, req *requests.PaymentNotificationRequest) (*responses.Response[*responses.MatchResultData], error) {
	payment := &models.InboundPayment{
		ID:            req.PaymentID,
		SourceAmount:  req.SourceAmount,
		Reference:     req.Reference,
		TxHash:        req.TxHash,
		SenderAddress: req.SenderAddress,
		ReceivedAt:    req.ReceivedAt,
	}
	if payment.ReceivedAt.IsZero() {
		payment.ReceivedAt = time.Now().UTC()
	}

	// 1. Dedup on the detector's payment identifier.
	record, err := m.store.Reconciliations().FindByPaymentID(ctx, payment.ID)
	switch {
	case err == nil:
		metrics.DuplicateNotifications.Inc()
		m.log.Info("duplicate payment notification",
			zap.String("payment_id", payment.ID), zap.String("quote_id", record.QuoteID))
		return duplicateResult(record), nil
	case err != store.ErrNotFound:
		return nil, errors.NewFatalError(err)
	}

	// 2. The reference must name a quote.
	if payment.Reference == "" {
		return nil, m.park(ctx, payment, "payment carries no quote reference")
	}

	// 3. Quote lookup.
	quote, err := m.store.Quotes().Find(ctx, payment.Reference)
	if err == store.ErrNotFound {
		return nil, m.park(ctx, payment, "reference does not name a known quote")
	}
	if err != nil {
		return nil, errors.NewFatalError(err)
	}

	// 4. The quote must still be open and the amount must match exactly.
	// No partial payments, no overpayment credit: anything else is a
	// manual-intervention case and never touches the quote.
	if status := quote.EffectiveStatus(time.Now().UTC()); status != models.Open_QuoteStatus {
		return nil, m.park(ctx, payment, "quote is "+status.String())
	}
	if payment.SourceAmount != quote.SourceAmount {
		return nil, m.parkMismatch(ctx, payment, quote)
	}

	// 5. Atomic Open→Consumed + Pending record.
	record, err = m.store.ConsumeQuote(ctx, quote.ID, payment.ID)
	switch err {
	case nil:
	case store.ErrConflict, store.ErrStaleState:
		// Lost a race. If this same payment won on another goroutine the
		// record exists now; serve it as a duplicate.
		if record, ferr := m.store.Reconciliations().FindByPaymentID(ctx, payment.ID); ferr == nil {
			metrics.DuplicateNotifications.Inc()
			return duplicateResult(record), nil
		}
		return nil, m.park(ctx, payment, "quote is no longer open")
	default:
		return nil, errors.NewFatalError(err)
	}

	metrics.PaymentsMatched.Inc()
	m.log.Info("payment matched",
		zap.String("payment_id", payment.ID),
		zap.String("quote_id", quote.ID),
		zap.String("record_id", record.ID))

	// 6. Hand off. The match is already durable; a dispatch failure here
	// is picked up by the dispatcher's recovery sweep.
	if err := m.dispatcher.Dispatch(ctx, record); err != nil {
		m.log.Error("initial payout dispatch failed",
			zap.String("record_id", record.ID), zap.Error(err))
	}

	return &responses.Response[*responses.MatchResultData]{
		Status: "successful",
		Data:   &responses.MatchResultData{Result: "matched", Record: record},
	}, nil
}

// park durably files a payment that cannot be matched for manual review.
// The row must exist before the webhook can be answered: funds are never
// forgotten, so a failure to record is fatal and forces a redelivery.
func (m *paymentMatcherService) park(ctx context.Context, payment *models.InboundPayment, reason string) error {
	if err := m.saveUnmatched(ctx, payment, reason); err != nil {
		return err
	}
	metrics.UnmatchedPayments.WithLabelValues("unmatched").Inc()
	return errors.NewUnmatchedPaymentError(reason)
}

func (m *paymentMatcherService) parkMismatch(ctx context.Context, payment *models.InboundPayment, quote *models.Quote) error {
	reason := "payment amount does not equal the quoted amount"
	if err := m.saveUnmatched(ctx, payment, reason); err != nil {
		return err
	}
	metrics.UnmatchedPayments.WithLabelValues("mismatch").Inc()
	m.log.Warn("payment amount mismatch",
		zap.String("payment_id", payment.ID),
		zap.String("quote_id", quote.ID),
		zap.Int64("received", payment.SourceAmount),
		zap.Int64("quoted", quote.SourceAmount))
	return errors.NewQuoteMismatchError(reason)
}

func (m *paymentMatcherService) saveUnmatched(ctx context.Context, payment *models.InboundPayment, reason string) error {
	unmatched := &models.UnmatchedPayment{
		PaymentID:     payment.ID,
		SourceAmount:  payment.SourceAmount,
		Reference:     payment.Reference,
		TxHash:        payment.TxHash,
		SenderAddress: payment.SenderAddress,
		Reason:        reason,
		ReceivedAt:    payment.ReceivedAt,
	}
	if err := m.store.UnmatchedPayments().Save(ctx, unmatched); err != nil {
		return errors.NewFatalError(err)
	}

	m.log.Warn("payment parked for manual review",
		zap.String("payment_id", payment.ID),
		zap.String("reference", payment.Reference),
		zap.String("reason", reason))
	m.webhookService.SendPaymentUnmatchedEvent(unmatched)
	return nil
}

func duplicateResult(record *models.ReconciliationRecord) *responses.Response[*responses.MatchResultData] {
	return &responses.Response[*responses.MatchResultData]{
		Status: "successful",
		Data:   &responses.MatchResultData{Result: "duplicate", Record: record},
	}
}
