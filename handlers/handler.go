package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/services"
)

type handler struct {
	quoteService          services.QuoteService
	matcherService        services.PaymentMatcherService
	reconciliationService services.ReconciliationService
	middlewares           MiddleWareHandler

	log *zap.Logger
}

type Handler interface {
	ServeHttp(*http.ServeMux)
}
