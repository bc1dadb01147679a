package services

import (
	"context"
	"fmt"
	"time"

	"github.com/madflojo/tasks"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/clients"
	"github.com/sepalink/sepalink-go/config"
	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/metrics"
	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
)

type PayoutDispatcherService interface {
	// Dispatch pushes one Pending record through a payout attempt. It is
	// safe to call concurrently and repeatedly for the same record: the
	// in-flight claim admits one worker at a time and terminal records
	// are left untouched.
	Dispatch(ctx context.Context, record *models.ReconciliationRecord) error

	// StartBackground registers the recurring submitted-status poll and
	// the pending-recovery sweep.
	StartBackground() error
}

func NewPayoutDispatcherService(
	dataStore store.Store,
	payouts clients.PayoutAPI,
	webhookService WebhookService,
	journalService JournalService,
	scheduler *tasks.Scheduler,
	log *zap.Logger,
) PayoutDispatcherService {
	return &payoutDispatcherService{
		service: service{
			store:          dataStore,
			payouts:        payouts,
			webhookService: webhookService,
			journalService: journalService,
			log:            log,
		},
		scheduler: scheduler,
	}
}

type payoutDispatcherService struct {
	service
	scheduler *tasks.Scheduler
}

func (d *payoutDispatcherService) Dispatch(ctx context.Context, record *models.ReconciliationRecord) error {
	repo := d.store.Reconciliations()
	recordID := record.ID

	claimed, err := repo.Claim(ctx, recordID, time.Now().UTC().Add(-config.CLAIM_LEASE))
	if err != nil {
		return err
	}
	if !claimed {
		// Another dispatcher is working this record.
		return nil
	}
	defer func() {
		if err := repo.Release(context.WithoutCancel(ctx), recordID); err != nil {
			d.log.Error("releasing dispatch claim", zap.String("record_id", recordID), zap.Error(err))
		}
	}()

	record, err = repo.Find(ctx, recordID)
	if err != nil {
		return err
	}
	if record.Status != models.Pending_PayoutStatus {
		return nil
	}

	quote, err := d.store.Quotes().Find(ctx, record.QuoteID)
	if err != nil {
		return err
	}

	// After an ambiguous failure the payout API is the authority on
	// whether the previous attempt landed. Query before resubmitting so a
	// provider without trustworthy idempotency keys cannot pay twice.
	if record.Attempts > 0 {
		receipt, err := d.payouts.GetPayoutStatus(ctx, record.QuoteID)
		switch err {
		case nil:
			d.log.Info("previous payout attempt had landed",
				zap.String("record_id", record.ID),
				zap.String("payout_request_id", receipt.PayoutRequestID))
			return d.settleSubmission(ctx, record, receipt)
		case clients.ErrPayoutUnknown:
			// Nothing landed; submission is safe.
		default:
			return d.noteFailure(ctx, record, err)
		}
	}

	receipt, err := d.payouts.CreatePayout(ctx, &clients.PayoutRequest{
		IdempotencyKey: quote.ID,
		RecipientName:  quote.BankAccount.RecipientName,
		IBAN:           quote.BankAccount.IBAN,
		BIC:            quote.BankAccount.BIC,
		RemittanceText: quote.BankAccount.RemittanceText,
		Amount:         quote.DestinationAmount,
		Currency:       quote.DestinationAsset,
		VerifyTxHash:   record.PaymentID,
	})
	if err != nil {
		if _, definitive := err.(*clients.PayoutError); definitive {
			return d.fail(ctx, record, err.Error())
		}
		return d.noteFailure(ctx, record, err)
	}

	return d.settleSubmission(ctx, record, receipt)
}

func (d *payoutDispatcherService) settleSubmission(ctx context.Context, record *models.ReconciliationRecord, receipt *clients.PayoutReceipt) error {
	now := time.Now().UTC()
	if err := record.MarkSubmitted(now, receipt.PayoutRequestID); err != nil {
		return err
	}
	if err := d.store.Reconciliations().Update(ctx, record); err != nil {
		return err
	}

	metrics.PayoutsSubmitted.Inc()
	d.log.Info("payout submitted",
		zap.String("record_id", record.ID),
		zap.String("quote_id", record.QuoteID),
		zap.String("payout_request_id", receipt.PayoutRequestID))
	d.webhookService.SendPayoutSubmittedEvent(record)
	return nil
}

// noteFailure books a transient failure and either schedules the next
// backed-off attempt or, at the ceiling, fails the record terminally.
func (d *payoutDispatcherService) noteFailure(ctx context.Context, record *models.ReconciliationRecord, cause error) error {
	now := time.Now().UTC()
	if err := record.RecordAttempt(now, cause.Error()); err != nil {
		return err
	}

	if record.Attempts >= config.RETRY_CEILING {
		failure := fmt.Sprintf("retries exhausted after %d attempts: %s", record.Attempts, cause)
		if err := record.MarkFailed(now, failure); err != nil {
			return err
		}
		if err := d.store.Reconciliations().Update(ctx, record); err != nil {
			return err
		}
		metrics.PayoutsFailed.Inc()
		d.log.Error("payout failed terminally; manual intervention required",
			zap.String("record_id", record.ID),
			zap.String("quote_id", record.QuoteID),
			zap.Int("attempts", record.Attempts),
			zap.Error(cause))
		d.webhookService.SendPayoutFailedEvent(record)
		return errors.NewFailedDependencyError(failure)
	}

	if err := d.store.Reconciliations().Update(ctx, record); err != nil {
		return err
	}

	d.scheduleRetry(record)
	d.log.Warn("payout attempt failed, retry scheduled",
		zap.String("record_id", record.ID),
		zap.Int("attempts", record.Attempts),
		zap.Error(cause))
	return cause
}

func (d *payoutDispatcherService) fail(ctx context.Context, record *models.ReconciliationRecord, cause string) error {
	now := time.Now().UTC()
	if err := record.MarkFailed(now, cause); err != nil {
		return err
	}
	if err := d.store.Reconciliations().Update(ctx, record); err != nil {
		return err
	}

	metrics.PayoutsFailed.Inc()
	d.log.Error("payout rejected definitively; manual intervention required",
		zap.String("record_id", record.ID),
		zap.String("quote_id", record.QuoteID),
		zap.String("cause", cause))
	d.webhookService.SendPayoutFailedEvent(record)
	return errors.NewFailedDependencyError(cause)
}

func (d *payoutDispatcherService) scheduleRetry(record *models.ReconciliationRecord) {
	delay := config.RETRY_BASE_DELAY << (record.Attempts - 1)
	err := d.scheduler.AddWithID(record.ID, &tasks.Task{
		RunOnce:    true,
		Interval:   time.Second,
		StartAfter: time.Now().Add(delay),
		TaskFunc: func() error {
			if err := d.Dispatch(context.Background(), record); err != nil {
				d.log.Warn("scheduled payout retry failed",
					zap.String("record_id", record.ID), zap.Error(err))
			}
			return nil
		},
	})
	// A task with this ID already waiting means a retry is on its way.
	if err != nil && err != tasks.ErrIDInUse {
		d.log.Error("scheduling payout retry", zap.String("record_id", record.ID), zap.Error(err))
	}
}

func (d *payoutDispatcherService) StartBackground() error {
	_, err := d.scheduler.Add(&tasks.Task{
		Interval: config.POLL_INTERVAL,
		TaskFunc: func() error {
			d.pollSubmitted(context.Background())
			return nil
		},
	})
	if err != nil {
		return err
	}

	_, err = d.scheduler.Add(&tasks.Task{
		Interval: config.SWEEP_INTERVAL,
		TaskFunc: func() error {
			d.recoverPending(context.Background())
			return nil
		},
	})
	return err
}

// pollSubmitted drives Submitted records to their bank-side outcome via
// the payout API status endpoint.
func (d *payoutDispatcherService) pollSubmitted(ctx context.Context) {
	records, err := d.store.Reconciliations().ListByStatus(ctx, models.Submitted_PayoutStatus, 0)
	if err != nil {
		d.log.Error("listing submitted payouts", zap.Error(err))
		return
	}

	for _, record := range records {
		receipt, err := d.payouts.GetPayoutStatus(ctx, record.QuoteID)
		if err != nil {
			d.log.Warn("polling payout status",
				zap.String("record_id", record.ID), zap.Error(err))
			continue
		}

		now := time.Now().UTC()
		switch receipt.Status {
		case "confirmed":
			if err := record.MarkConfirmed(now); err != nil {
				continue
			}
			if err := d.store.Reconciliations().Update(ctx, record); err != nil {
				d.log.Error("updating confirmed payout", zap.String("record_id", record.ID), zap.Error(err))
				continue
			}
			metrics.PayoutsConfirmed.Inc()
			d.log.Info("payout confirmed", zap.String("record_id", record.ID))
			d.webhookService.SendPayoutConfirmedEvent(record)
			d.journal(ctx, record)
		case "failed", "rejected":
			if err := record.MarkFailed(now, "bank-side settlement failure"); err != nil {
				continue
			}
			if err := d.store.Reconciliations().Update(ctx, record); err != nil {
				d.log.Error("updating failed payout", zap.String("record_id", record.ID), zap.Error(err))
				continue
			}
			metrics.PayoutsFailed.Inc()
			d.log.Error("payout failed on the bank side; manual intervention required",
				zap.String("record_id", record.ID))
			d.webhookService.SendPayoutFailedEvent(record)
		}
	}
}

// recoverPending re-dispatches Pending records whose in-flight claim or
// retry task was lost, e.g. to a crash between match and dispatch. Claims
// older than the lease count as lost; Claim takes them over.
func (d *payoutDispatcherService) recoverPending(ctx context.Context) {
	records, err := d.store.Reconciliations().ListByStatus(ctx, models.Pending_PayoutStatus, 0)
	if err != nil {
		d.log.Error("listing pending payouts", zap.Error(err))
		return
	}

	for _, record := range records {
		if record.InFlight && time.Since(record.UpdatedAt) < config.CLAIM_LEASE {
			continue
		}
		if err := d.Dispatch(ctx, record); err != nil {
			d.log.Warn("recovery dispatch failed",
				zap.String("record_id", record.ID), zap.Error(err))
		}
	}
}

func (d *payoutDispatcherService) journal(ctx context.Context, record *models.ReconciliationRecord) {
	quote, err := d.store.Quotes().Find(ctx, record.QuoteID)
	if err != nil {
		d.log.Error("loading quote for journal", zap.String("quote_id", record.QuoteID), zap.Error(err))
		return
	}
	if err := d.journalService.RecordSettledPayout(ctx, quote, record); err != nil {
		d.log.Error("journaling settled payout",
			zap.String("record_id", record.ID), zap.Error(err))
	}
}
