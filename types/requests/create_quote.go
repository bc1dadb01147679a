package requests

type CreateQuoteRequest struct {
	SourceAmount   int64  `json:"source_amount" validate:"required,gt=0"`
	RecipientName  string `json:"recipient_name" validate:"required"`
	IBAN           string `json:"iban" validate:"required,iban"`
	BIC            string `json:"bic" validate:"required,bic"`
	RemittanceText string `json:"remittance_text" validate:"omitempty,max=140"`
}
