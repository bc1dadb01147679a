package requests

type FetchReconciliationsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=pending submitted confirmed failed"`
	Limit  uint64 `query:"limit" default:"50" validate:"lte=500"`
}

type FetchReconciliationRequest struct {
	QuoteID string `uri:"quote_id" validate:"required"`
}
