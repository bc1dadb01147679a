package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/services"
	"github.com/sepalink/sepalink-go/types/requests"
	"github.com/sepalink/sepalink-go/utils"
)

type ReconciliationHandler interface {
	FetchReconciliations(w http.ResponseWriter, r *http.Request)
	FetchReconciliation(w http.ResponseWriter, r *http.Request)

	ServeHttp(*http.ServeMux)
}

func NewReconciliationHandler(reconciliationService services.ReconciliationService, middlewares MiddleWareHandler, log *zap.Logger) ReconciliationHandler {
	return &reconciliationHandler{
		handler: handler{reconciliationService: reconciliationService, middlewares: middlewares, log: log},
	}
}

type reconciliationHandler struct {
	handler
}

func (h *reconciliationHandler) ServeHttp(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/reconciliations", h.middlewares.AttachRecover(h.FetchReconciliations))
	mux.HandleFunc("GET /api/v1/reconciliations/{quote_id}", h.middlewares.AttachRecover(h.FetchReconciliation))
}

func (h *reconciliationHandler) FetchReconciliations(w http.ResponseWriter, r *http.Request) {
	req := utils.Bind[requests.FetchReconciliationsRequest](r)

	res, err := h.reconciliationService.FetchReconciliations(r.Context(), req)
	if err != nil {
		errors.AsAppError(err).Serialize(w)
		return
	}

	utils.JSON(w, 200, res)
}

func (h *reconciliationHandler) FetchReconciliation(w http.ResponseWriter, r *http.Request) {
	req := utils.Bind[requests.FetchReconciliationRequest](r)

	res, err := h.reconciliationService.FetchReconciliation(r.Context(), req)
	if err != nil {
		errors.AsAppError(err).Serialize(w)
		return
	}

	utils.JSON(w, 200, res)
}
