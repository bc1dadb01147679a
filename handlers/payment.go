package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/services"
	"github.com/sepalink/sepalink-go/types/requests"
	"github.com/sepalink/sepalink-go/utils"
)

type PaymentHandler interface {
	HandleNotification(w http.ResponseWriter, r *http.Request)

	ServeHttp(*http.ServeMux)
}

func NewPaymentHandler(matcherService services.PaymentMatcherService, middlewares MiddleWareHandler, log *zap.Logger) PaymentHandler {
	return &paymentHandler{
		handler: handler{matcherService: matcherService, middlewares: middlewares, log: log},
	}
}

type paymentHandler struct {
	handler
}

func (p *paymentHandler) ServeHttp(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments/notifications",
		p.middlewares.AttachRecover(p.middlewares.AttachVerifyReceipt(p.HandleNotification)))
}

func (p *paymentHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	req := utils.Bind[requests.PaymentNotificationRequest](r)

	res, err := p.matcherService.HandleInboundPayment(r.Context(), req)
	if err != nil {
		appErr := errors.AsAppError(err)
		// A parked payment is durably recorded; answering with its error
		// body on 200 stops the detector from redelivering what can never
		// match. Everything else keeps its status so delivery is retried.
		switch appErr.Type {
		case errors.ErrUnmatchedPayment, errors.ErrQuoteMismatch:
			utils.JSON(w, 200, appErr)
		default:
			appErr.Serialize(w)
		}
		return
	}

	utils.JSON(w, 200, res)
}
