// Package sqlstore is the MySQL implementation of the store contract.
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
)

const duplicateEntryErrNo = 1062

type sqlStore struct {
	db *sql.DB

	quotes          *quoteRepository
	reconciliations *reconciliationRepository
	unmatched       *unmatchedPaymentRepository
}

func New(db *sql.DB) store.Store {
	return &sqlStore{
		db:              db,
		quotes:          &quoteRepository{db: db},
		reconciliations: &reconciliationRepository{db: db},
		unmatched:       &unmatchedPaymentRepository{db: db},
	}
}

func (s *sqlStore) Quotes() store.QuoteRepository { return s.quotes }

func (s *sqlStore) Reconciliations() store.ReconciliationRepository { return s.reconciliations }

func (s *sqlStore) UnmatchedPayments() store.UnmatchedPaymentRepository { return s.unmatched }

// ConsumeQuote runs the quote-consume + record-create critical section as a
// single transaction. The CAS update loses against any concurrent consume
// or cancel and against a quote past its expiry, and the unique keys on
// quote_id/payment_id reject duplicate records, so exactly one caller can
// ever win for a given quote or payment.
func (s *sqlStore) ConsumeQuote(ctx context.Context, quoteID, paymentID string) (*models.ReconciliationRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	// Defer a rollback in case anything fails.
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := sq.
		Update("quotes").
		Set("status", models.Consumed_QuoteStatus.String()).
		Set("updated_at", now).
		Where(sq.And{
			sq.Eq{"id": quoteID, "status": models.Open_QuoteStatus.String()},
			sq.Gt{"expires_at": now},
		}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrStaleState
	}

	record := &models.ReconciliationRecord{
		ID:        uuid.NewString(),
		QuoteID:   quoteID,
		PaymentID: paymentID,
		Status:    models.Pending_PayoutStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = sq.
		Insert("reconciliation_records").
		Columns("id", "quote_id", "payment_id", "status", "in_flight", "attempts", "created_at", "updated_at").
		Values(record.ID, record.QuoteID, record.PaymentID, record.Status.String(), false, 0, now, now).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return record, nil
}

func translateError(err error) error {
	if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == duplicateEntryErrNo {
		return store.ErrConflict
	}
	return err
}
