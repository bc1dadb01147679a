package responses

// Federation protocol envelopes, shaped after the reference federation
// server answers.

type FederationCurrency struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
}

type FederationResponseData struct {
	Result      string               `json:"result"`
	Destination string               `json:"destination,omitempty"`
	Domain      string               `json:"domain,omitempty"`
	Currencies  []FederationCurrency `json:"currencies,omitempty"`
	QuoteURL    string               `json:"quote_url,omitempty"`
	Error       string               `json:"error,omitempty"`
	ErrorMsg    string               `json:"error_message,omitempty"`
}

type FederationSendAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
	Issuer   string `json:"issuer"`
}

type FederationQuote struct {
	InvoiceID string                 `json:"invoice_id"`
	Send      []FederationSendAmount `json:"send"`
	Address   string                 `json:"address"`
	Expires   int64                  `json:"expires"`
}

type FederationQuoteResponseData struct {
	Result string           `json:"result"`
	Quote  *FederationQuote `json:"quote,omitempty"`
	Error  string           `json:"error,omitempty"`
}
