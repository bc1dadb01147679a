package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/services"
	"github.com/sepalink/sepalink-go/types/requests"
	"github.com/sepalink/sepalink-go/utils"
)

type QuoteHandler interface {
	CreateQuote(w http.ResponseWriter, r *http.Request)
	FetchQuote(w http.ResponseWriter, r *http.Request)
	CancelQuote(w http.ResponseWriter, r *http.Request)

	ServeHttp(*http.ServeMux)
}

func NewQuoteHandler(quoteService services.QuoteService, middlewares MiddleWareHandler, log *zap.Logger) QuoteHandler {
	return &quoteHandler{
		handler: handler{quoteService: quoteService, middlewares: middlewares, log: log},
	}
}

type quoteHandler struct {
	handler
}

func (q *quoteHandler) ServeHttp(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/quotes", q.middlewares.AttachRecover(q.CreateQuote))
	mux.HandleFunc("GET /api/v1/quotes/{quote_id}", q.middlewares.AttachRecover(q.FetchQuote))
	mux.HandleFunc("POST /api/v1/quotes/{quote_id}/cancel", q.middlewares.AttachRecover(q.CancelQuote))
}

func (q *quoteHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	req := utils.Bind[requests.CreateQuoteRequest](r)

	res, err := q.quoteService.IssueQuote(r.Context(), req)
	if err != nil {
		errors.AsAppError(err).Serialize(w)
		return
	}

	utils.JSON(w, 201, res)
}

func (q *quoteHandler) FetchQuote(w http.ResponseWriter, r *http.Request) {
	req := utils.Bind[requests.FetchQuoteRequest](r)

	res, err := q.quoteService.FetchQuote(r.Context(), req)
	if err != nil {
		errors.AsAppError(err).Serialize(w)
		return
	}

	utils.JSON(w, 200, res)
}

func (q *quoteHandler) CancelQuote(w http.ResponseWriter, r *http.Request) {
	req := utils.Bind[requests.CancelQuoteRequest](r)

	res, err := q.quoteService.CancelQuote(r.Context(), req)
	if err != nil {
		errors.AsAppError(err).Serialize(w)
		return
	}

	utils.JSON(w, 200, res)
}
