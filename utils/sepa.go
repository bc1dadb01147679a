package utils

import (
	"strings"

	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/models"
)

// ParseSEPADestination converts the federation destination string into a
// bank account descriptor. Recipient data is packed into the user part of
// user@domain as slash-separated fields:
//
//	recipient+name/IBAN/BIC/remittance+text
//
// IBAN and BIC can be definitively identified, so they act as structure
// elements; the remaining parts become recipient name and remittance text.
// A '+' stands in for a space since Ripple clients reject spaces in
// federation addresses.
func ParseSEPADestination(s string) (*models.BankAccount, error) {
	if strings.Contains(s, " ") {
		return nil, errors.NewValidationError("space-separated destinations are not supported")
	}

	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 4 {
		return nil, errors.NewValidationError("destination has wrong number of parts")
	}

	var name, text, iban, bic string
	for idx, part := range parts {
		if bic == "" && Validator.Field(part, "bic") == nil {
			bic = part
			continue
		}
		if iban == "" && Validator.Field(part, "iban") == nil {
			iban = part
			continue
		}
		// Free text is the recipient name when listed first or when all
		// four parts are present; otherwise it is the remittance text.
		if name == "" && (idx == 0 || len(parts) == 4) {
			name = strings.ReplaceAll(part, "+", " ")
			continue
		}
		text = strings.ReplaceAll(part, "+", " ")
	}

	if iban == "" {
		return nil, errors.NewValidationError("did not find a valid IBAN")
	}
	if bic == "" {
		return nil, errors.NewValidationError("did not find a valid BIC")
	}
	if name == "" {
		return nil, errors.NewValidationError("did not find a recipient name")
	}

	return &models.BankAccount{
		RecipientName:  name,
		IBAN:           iban,
		BIC:            bic,
		RemittanceText: text,
	}, nil
}
