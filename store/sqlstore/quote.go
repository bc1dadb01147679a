package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
)

type quoteRepository struct {
	db *sql.DB
}

func (r *quoteRepository) Save(ctx context.Context, quote *models.Quote) error {
	_, err := sq.
		Insert("quotes").
		Columns(
			"id", "source_amount", "source_asset", "destination_amount", "destination_asset",
			"rate", "fee", "recipient_name", "iban", "bic", "remittance_text",
			"status", "created_at", "expires_at", "updated_at",
		).
		Values(
			quote.ID, quote.SourceAmount, quote.SourceAsset, quote.DestinationAmount, quote.DestinationAsset,
			quote.Rate.String(), quote.Fee, quote.BankAccount.RecipientName, quote.BankAccount.IBAN,
			quote.BankAccount.BIC, quote.BankAccount.RemittanceText,
			quote.Status.String(), quote.CreatedAt, quote.ExpiresAt, quote.CreatedAt,
		).
		RunWith(r.db).
		ExecContext(ctx)

	return translateError(err)
}

func (r *quoteRepository) Find(ctx context.Context, id string) (*models.Quote, error) {
	row := sq.
		Select(
			"id", "source_amount", "source_asset", "destination_amount", "destination_asset",
			"rate", "fee", "recipient_name", "iban", "bic", "remittance_text",
			"status", "created_at", "expires_at",
		).
		From("quotes").
		Where(sq.Eq{"id": id}).
		RunWith(r.db).
		QueryRowContext(ctx)

	quote := &models.Quote{BankAccount: &models.BankAccount{}}
	var rate, status string
	err := row.Scan(
		&quote.ID, &quote.SourceAmount, &quote.SourceAsset, &quote.DestinationAmount, &quote.DestinationAsset,
		&rate, &quote.Fee, &quote.BankAccount.RecipientName, &quote.BankAccount.IBAN,
		&quote.BankAccount.BIC, &quote.BankAccount.RemittanceText,
		&status, &quote.CreatedAt, &quote.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if quote.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, err
	}
	if quote.Status, err = models.ParseQuoteStatus(status); err != nil {
		return nil, err
	}

	return quote, nil
}

func (r *quoteRepository) UpdateStatus(ctx context.Context, id string, from, to models.QuoteStatus) error {
	res, err := sq.
		Update("quotes").
		Set("status", to.String()).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "status": from.String()}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrStaleState
	}
	return nil
}
