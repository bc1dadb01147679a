package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/models"
	"github.com/sepalink/sepalink-go/store"
	"github.com/sepalink/sepalink-go/types/requests"
	"github.com/sepalink/sepalink-go/types/responses"
)

type ReconciliationService interface {
	FetchReconciliations(ctx context.Context, req *requests.FetchReconciliationsRequest) (*responses.Response[[]*models.ReconciliationRecord], error)
	FetchReconciliation(ctx context.Context, req *requests.FetchReconciliationRequest) (*responses.Response[*models.ReconciliationRecord], error)
}

func NewReconciliationService(dataStore store.Store, log *zap.Logger) ReconciliationService {
	return &reconciliationService{
		service: service{
			store: dataStore,
			log:   log,
		},
	}
}

type reconciliationService struct {
	service
}

func (r *reconciliationService) FetchReconciliations(ctx context.Context, req *requests.FetchReconciliationsRequest) (*responses.Response[[]*models.ReconciliationRecord], error) {
	var records []*models.ReconciliationRecord
	var err error

	if req.Status == "" {
		records, err = r.store.Reconciliations().List(ctx, req.Limit)
	} else {
		status, perr := models.ParsePayoutStatus(req.Status)
		if perr != nil {
			return nil, errors.NewValidationError(perr.Error())
		}
		records, err = r.store.Reconciliations().ListByStatus(ctx, status, req.Limit)
	}
	if err != nil {
		return nil, errors.NewFatalError(err)
	}

	return &responses.Response[[]*models.ReconciliationRecord]{
		Status: "successful",
		Data:   records,
	}, nil
}

func (r *reconciliationService) FetchReconciliation(ctx context.Context, req *requests.FetchReconciliationRequest) (*responses.Response[*models.ReconciliationRecord], error) {
	record, err := r.store.Reconciliations().FindByQuoteID(ctx, req.QuoteID)
	if err == store.ErrNotFound {
		return nil, errors.NewNotFoundError("no reconciliation for quote " + req.QuoteID)
	}
	if err != nil {
		return nil, errors.NewFatalError(err)
	}

	return &responses.Response[*models.ReconciliationRecord]{
		Status: "successful",
		Data:   record,
	}, nil
}
