package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/config"
	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/services"
	"github.com/sepalink/sepalink-go/types/requests"
	"github.com/sepalink/sepalink-go/types/responses"
	"github.com/sepalink/sepalink-go/utils"
)

// FederationHandler exposes the Ripple federation surface: ripple.txt
// service discovery, destination validation and quote requests. Protocol
// errors are answered 200 with an error envelope, the way federation
// clients expect.
type FederationHandler interface {
	RippleTxt(w http.ResponseWriter, r *http.Request)
	Federation(w http.ResponseWriter, r *http.Request)
	FederationQuote(w http.ResponseWriter, r *http.Request)

	ServeHttp(*http.ServeMux)
}

func NewFederationHandler(quoteService services.QuoteService, middlewares MiddleWareHandler, log *zap.Logger) FederationHandler {
	return &federationHandler{
		handler: handler{quoteService: quoteService, middlewares: middlewares, log: log},
	}
}

type federationHandler struct {
	handler
}

func (f *federationHandler) ServeHttp(mux *http.ServeMux) {
	mux.HandleFunc("GET /ripple.txt", f.middlewares.AttachRecover(f.RippleTxt))
	mux.HandleFunc("GET /federation", f.middlewares.AttachRecover(f.Federation))
	mux.HandleFunc("GET /federation/quote", f.middlewares.AttachRecover(f.FederationQuote))
}

func (f *federationHandler) RippleTxt(w http.ResponseWriter, r *http.Request) {
	allowCORS(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "[domain]\n%s\n\n[federation_url]\n%s/federation\n\n[accounts]\n%s\n",
		config.DOMAIN, baseURL(r), config.BRIDGE_ADDRESS)
}

func (f *federationHandler) Federation(w http.ResponseWriter, r *http.Request) {
	allowCORS(w)
	req := utils.Bind[requests.FederationRequest](r)

	if _, err := utils.ParseSEPADestination(req.Destination); err != nil {
		federationError(w, "invalidSEPA", "Cannot find a valid SEPA recipient: "+err.Error())
		return
	}

	utils.JSON(w, 200, &responses.FederationResponseData{
		Result:      "success",
		Destination: req.Destination,
		Domain:      config.DOMAIN,
		Currencies: []responses.FederationCurrency{{
			Currency: services.SourceAsset,
			Issuer:   config.ACCEPTED_ISSUER,
		}},
		QuoteURL: baseURL(r) + "/federation/quote",
	})
}

func (f *federationHandler) FederationQuote(w http.ResponseWriter, r *http.Request) {
	allowCORS(w)
	req := utils.Bind[requests.FederationQuoteRequest](r)

	res, err := f.quoteService.IssueFederationQuote(r.Context(), req)
	if err != nil {
		appErr := errors.AsAppError(err)
		switch appErr.Type {
		case errors.ErrValidation:
			federationError(w, "invalidParams", appErr.Message)
		case errors.ErrRateUnavailable:
			federationError(w, "unavailable", appErr.Message)
		default:
			appErr.Serialize(w)
		}
		return
	}

	utils.JSON(w, 200, res)
}

func federationError(w http.ResponseWriter, code, message string) {
	utils.JSON(w, 200, &responses.FederationResponseData{
		Result:   "error",
		Error:    code,
		ErrorMsg: message,
	})
}

func allowCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if config.USE_HTTPS {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
