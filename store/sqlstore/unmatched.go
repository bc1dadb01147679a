package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
)

type unmatchedPaymentRepository struct {
	db *sql.DB
}

func (r *unmatchedPaymentRepository) Save(ctx context.Context, payment *models.UnmatchedPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	_, err := sq.
		Insert("unmatched_payments").
		Columns(
			"id", "payment_id", "source_amount", "reference", "tx_hash",
			"sender_address", "reason", "received_at", "created_at",
		).
		Values(
			payment.ID, payment.PaymentID, payment.SourceAmount, payment.Reference, payment.TxHash,
			payment.SenderAddress, payment.Reason, payment.ReceivedAt, payment.CreatedAt,
		).
		RunWith(r.db).
		ExecContext(ctx)

	// Redelivered unmatched payments hit the unique payment_id key; the
	// first durable row is all the manual-review flow needs.
	if translateError(err) == store.ErrConflict {
		return nil
	}
	return err
}

func (r *unmatchedPaymentRepository) List(ctx context.Context, limit uint64) ([]*models.UnmatchedPayment, error) {
	query := sq.
		Select(
			"id", "payment_id", "source_amount", "reference", "tx_hash",
			"sender_address", "reason", "received_at", "created_at",
		).
		From("unmatched_payments").
		OrderBy("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*models.UnmatchedPayment{}
	for rows.Next() {
		payment := new(models.UnmatchedPayment)
		if err := rows.Scan(
			&payment.ID, &payment.PaymentID, &payment.SourceAmount, &payment.Reference, &payment.TxHash,
			&payment.SenderAddress, &payment.Reason, &payment.ReceivedAt, &payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}
