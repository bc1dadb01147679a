// Package store defines the narrow persistence contract the bridge core
// depends on. Two implementations exist: sqlstore (MySQL, production) and
// memstore (tests).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sepalink/sepalink-go/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("store: conflict")
	// ErrStaleState is returned when a compare-and-swap touched no row
	// because the expected state no longer holds.
	ErrStaleState = errors.New("store: stale state")
)

type Store interface {
	Quotes() QuoteRepository
	Reconciliations() ReconciliationRepository
	UnmatchedPayments() UnmatchedPaymentRepository

	// ConsumeQuote transitions the quote Open→Consumed and inserts the
	// Pending reconciliation record as one atomic unit. Returns
	// ErrStaleState when the quote is not Open and ErrConflict when a
	// record for the quote or the payment already exists; in either case
	// nothing is written.
	ConsumeQuote(ctx context.Context, quoteID, paymentID string) (*models.ReconciliationRecord, error)
}

type QuoteRepository interface {
	Save(ctx context.Context, quote *models.Quote) error
	Find(ctx context.Context, id string) (*models.Quote, error)
	// UpdateStatus is a compare-and-swap on the stored status. Returns
	// ErrStaleState when the quote was not in the expected state.
	UpdateStatus(ctx context.Context, id string, from, to models.QuoteStatus) error
}

type ReconciliationRepository interface {
	Find(ctx context.Context, id string) (*models.ReconciliationRecord, error)
	FindByQuoteID(ctx context.Context, quoteID string) (*models.ReconciliationRecord, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.ReconciliationRecord, error)
	List(ctx context.Context, limit uint64) ([]*models.ReconciliationRecord, error)
	ListByStatus(ctx context.Context, status models.PayoutStatus, limit uint64) ([]*models.ReconciliationRecord, error)
	Update(ctx context.Context, record *models.ReconciliationRecord) error

	// Claim marks the record in-flight so only one dispatcher works it at
	// a time. Returns false when another dispatcher holds the claim. A
	// claim last touched before staleBefore counts as lost to a crash and
	// is taken over.
	Claim(ctx context.Context, id string, staleBefore time.Time) (bool, error)
	Release(ctx context.Context, id string) error
}

type UnmatchedPaymentRepository interface {
	// Save is idempotent on payment ID: recording the same unmatched
	// payment twice is not an error.
	Save(ctx context.Context, payment *models.UnmatchedPayment) error
	List(ctx context.Context, limit uint64) ([]*models.UnmatchedPayment, error)
}
