// Package memstore is a mutex-guarded, map-backed implementation of the
// store contract with the same CAS and unique-key semantics as sqlstore.
// It backs the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
)

type memStore struct {
	lock sync.Mutex

	quotes           map[string]*models.Quote
	records          map[string]*models.ReconciliationRecord
	recordsByQuote   map[string]string
	recordsByPayment map[string]string
	unmatched        map[string]*models.UnmatchedPayment
}

func New() store.Store {
	return &memStore{
		quotes:           map[string]*models.Quote{},
		records:          map[string]*models.ReconciliationRecord{},
		recordsByQuote:   map[string]string{},
		recordsByPayment: map[string]string{},
		unmatched:        map[string]*models.UnmatchedPayment{},
	}
}

func (m *memStore) Quotes() store.QuoteRepository { return (*quoteRepository)(m) }

func (m *memStore) Reconciliations() store.ReconciliationRepository { return (*reconciliationRepository)(m) }

func (m *memStore) UnmatchedPayments() store.UnmatchedPaymentRepository {
	return (*unmatchedPaymentRepository)(m)
}

func (m *memStore) ConsumeQuote(ctx context.Context, quoteID, paymentID string) (*models.ReconciliationRecord, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.recordsByQuote[quoteID]; ok {
		return nil, store.ErrConflict
	}
	if _, ok := m.recordsByPayment[paymentID]; ok {
		return nil, store.ErrConflict
	}

	now := time.Now().UTC()
	quote, ok := m.quotes[quoteID]
	if !ok || quote.Status != models.Open_QuoteStatus || !quote.ExpiresAt.After(now) {
		return nil, store.ErrStaleState
	}
	quote.Status = models.Consumed_QuoteStatus

	record := &models.ReconciliationRecord{
		ID:        uuid.NewString(),
		QuoteID:   quoteID,
		PaymentID: paymentID,
		Status:    models.Pending_PayoutStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.records[record.ID] = record
	m.recordsByQuote[quoteID] = record.ID
	m.recordsByPayment[paymentID] = record.ID

	clone := *record
	return &clone, nil
}

type quoteRepository memStore

func (r *quoteRepository) Save(ctx context.Context, quote *models.Quote) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.quotes[quote.ID]; ok {
		return store.ErrConflict
	}
	clone := *quote
	r.quotes[quote.ID] = &clone
	return nil
}

func (r *quoteRepository) Find(ctx context.Context, id string) (*models.Quote, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	quote, ok := r.quotes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *quote
	return &clone, nil
}

func (r *quoteRepository) UpdateStatus(ctx context.Context, id string, from, to models.QuoteStatus) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	quote, ok := r.quotes[id]
	if !ok || quote.Status != from {
		return store.ErrStaleState
	}
	quote.Status = to
	return nil
}

type reconciliationRepository memStore

func (r *reconciliationRepository) findLocked(id string) (*models.ReconciliationRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *reconciliationRepository) Find(ctx context.Context, id string) (*models.ReconciliationRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.findLocked(id)
}

func (r *reconciliationRepository) FindByQuoteID(ctx context.Context, quoteID string) (*models.ReconciliationRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	id, ok := r.recordsByQuote[quoteID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.findLocked(id)
}

func (r *reconciliationRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.ReconciliationRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	id, ok := r.recordsByPayment[paymentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.findLocked(id)
}

func (r *reconciliationRepository) List(ctx context.Context, limit uint64) ([]*models.ReconciliationRecord, error) {
	return r.list(func(*models.ReconciliationRecord) bool { return true }, limit)
}

func (r *reconciliationRepository) ListByStatus(ctx context.Context, status models.PayoutStatus, limit uint64) ([]*models.ReconciliationRecord, error) {
	return r.list(func(record *models.ReconciliationRecord) bool { return record.Status == status }, limit)
}

func (r *reconciliationRepository) list(match func(*models.ReconciliationRecord) bool, limit uint64) ([]*models.ReconciliationRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	records := []*models.ReconciliationRecord{}
	for _, record := range r.records {
		if match(record) {
			clone := *record
			records = append(records, &clone)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	if limit > 0 && uint64(len(records)) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *reconciliationRepository) Update(ctx context.Context, record *models.ReconciliationRecord) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.records[record.ID]
	if !ok {
		return store.ErrNotFound
	}
	inFlight := stored.InFlight
	clone := *record
	clone.InFlight = inFlight
	r.records[record.ID] = &clone
	return nil
}

func (r *reconciliationRepository) Claim(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	record, ok := r.records[id]
	if !ok {
		return false, nil
	}
	if record.InFlight && !record.UpdatedAt.Before(staleBefore) {
		return false, nil
	}
	record.InFlight = true
	record.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *reconciliationRepository) Release(ctx context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	record, ok := r.records[id]
	if !ok {
		return store.ErrNotFound
	}
	record.InFlight = false
	record.UpdatedAt = time.Now().UTC()
	return nil
}

type unmatchedPaymentRepository memStore

func (r *unmatchedPaymentRepository) Save(ctx context.Context, payment *models.UnmatchedPayment) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.unmatched[payment.PaymentID]; ok {
		return nil
	}
	clone := *payment
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	r.unmatched[payment.PaymentID] = &clone
	return nil
}

func (r *unmatchedPaymentRepository) List(ctx context.Context, limit uint64) ([]*models.UnmatchedPayment, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	payments := []*models.UnmatchedPayment{}
	for _, payment := range r.unmatched {
		clone := *payment
		payments = append(payments, &clone)
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	if limit > 0 && uint64(len(payments)) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}
