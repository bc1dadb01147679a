package requests

type CancelQuoteRequest struct {
	QuoteID string `uri:"quote_id" validate:"required"`
}
