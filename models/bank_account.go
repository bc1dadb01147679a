package models

// BankAccount is the SEPA destination a quote pays out to. It is captured
// verbatim at quote issuance and immutable afterwards.
type BankAccount struct {
	RecipientName  string `json:"recipient_name"`
	IBAN           string `json:"iban"`
	BIC            string `json:"bic"`
	RemittanceText string `json:"remittance_text,omitempty"`
}
