package requests

// FederationQuoteRequest mirrors the Ripple federation protocol quote
// query. Amount comes as "<value>/<currency>", e.g. "89.50/EUR".
type FederationQuoteRequest struct {
	Destination string `query:"destination" validate:"required"`
	Amount      string `query:"amount" validate:"required"`
}

type FederationRequest struct {
	Destination string `query:"destination" validate:"required"`
	Domain      string `query:"domain"`
	Type        string `query:"type"`
}
