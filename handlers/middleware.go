package handlers

import (
	"bytes"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/clients"
	"github.com/sepalink/sepalink-go/errors"
)

type MiddleWareHandler interface {
	// AttachRecover turns panicked AppErrors, e.g. from request binding,
	// into their serialized form instead of a dropped connection.
	AttachRecover(http.HandlerFunc) http.HandlerFunc
	// AttachVerifyReceipt forwards the raw notification body to the
	// detector's verification endpoint and rejects anything it does not
	// vouch for.
	AttachVerifyReceipt(http.HandlerFunc) http.HandlerFunc
}

type middlewareHandler struct {
	verifier clients.ReceiptVerifier
	log      *zap.Logger
}

func NewMiddlewareHandler(verifier clients.ReceiptVerifier, log *zap.Logger) MiddleWareHandler {
	return &middlewareHandler{verifier: verifier, log: log}
}

func (m *middlewareHandler) AttachRecover(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if err, ok := rec.(errors.AppError); ok {
					err.Serialize(w)
					return
				}
				m.log.Error("handler panicked", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				errors.NewUnknownError(rec).Serialize(w)
			}
		}()

		h.ServeHTTP(w, r)
	}
}

func (m *middlewareHandler) AttachVerifyReceipt(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			errors.NewValidationError("unreadable request body").Serialize(w)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if err := m.verifier.Verify(r.Context(), body); err != nil {
			m.log.Warn("rejected unverified payment notification", zap.Error(err))
			errors.NewValidationError("payment receipt could not be verified").Serialize(w)
			return
		}

		h.ServeHTTP(w, r)
	}
}
