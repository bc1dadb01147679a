package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
)

type reconciliationRepository struct {
	db *sql.DB
}

var reconciliationColumns = []string{
	"id", "quote_id", "payment_id", "payout_request_id", "status",
	"in_flight", "attempts", "last_attempt_at", "last_error",
	"created_at", "updated_at",
}

func (r *reconciliationRepository) find(ctx context.Context, pred sq.Eq) (*models.ReconciliationRecord, error) {
	row := sq.
		Select(reconciliationColumns...).
		From("reconciliation_records").
		Where(pred).
		RunWith(r.db).
		QueryRowContext(ctx)

	return scanRecord(row)
}

func (r *reconciliationRepository) Find(ctx context.Context, id string) (*models.ReconciliationRecord, error) {
	return r.find(ctx, sq.Eq{"id": id})
}

func (r *reconciliationRepository) FindByQuoteID(ctx context.Context, quoteID string) (*models.ReconciliationRecord, error) {
	return r.find(ctx, sq.Eq{"quote_id": quoteID})
}

func (r *reconciliationRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.ReconciliationRecord, error) {
	return r.find(ctx, sq.Eq{"payment_id": paymentID})
}

func (r *reconciliationRepository) List(ctx context.Context, limit uint64) ([]*models.ReconciliationRecord, error) {
	return r.list(ctx, nil, limit)
}

func (r *reconciliationRepository) ListByStatus(ctx context.Context, status models.PayoutStatus, limit uint64) ([]*models.ReconciliationRecord, error) {
	return r.list(ctx, sq.Eq{"status": status.String()}, limit)
}

func (r *reconciliationRepository) list(ctx context.Context, pred sq.Eq, limit uint64) ([]*models.ReconciliationRecord, error) {
	query := sq.
		Select(reconciliationColumns...).
		From("reconciliation_records").
		OrderBy("created_at ASC")
	if pred != nil {
		query = query.Where(pred)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*models.ReconciliationRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *reconciliationRepository) Update(ctx context.Context, record *models.ReconciliationRecord) error {
	_, err := sq.
		Update("reconciliation_records").
		Set("payout_request_id", record.PayoutRequestID).
		Set("status", record.Status.String()).
		Set("attempts", record.Attempts).
		Set("last_attempt_at", record.LastAttemptAt).
		Set("last_error", record.LastError).
		Set("updated_at", record.UpdatedAt).
		Where(sq.Eq{"id": record.ID}).
		RunWith(r.db).
		ExecContext(ctx)

	return err
}

func (r *reconciliationRepository) Claim(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	res, err := sq.
		Update("reconciliation_records").
		Set("in_flight", true).
		Set("updated_at", time.Now().UTC()).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Or{sq.Eq{"in_flight": false}, sq.Lt{"updated_at": staleBefore}},
		}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *reconciliationRepository) Release(ctx context.Context, id string) error {
	_, err := sq.
		Update("reconciliation_records").
		Set("in_flight", false).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		RunWith(r.db).
		ExecContext(ctx)

	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ReconciliationRecord, error) {
	record := new(models.ReconciliationRecord)
	var status string
	err := row.Scan(
		&record.ID, &record.QuoteID, &record.PaymentID, &record.PayoutRequestID, &status,
		&record.InFlight, &record.Attempts, &record.LastAttemptAt, &record.LastError,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if record.Status, err = models.ParsePayoutStatus(status); err != nil {
		return nil, err
	}
	return record, nil
}
