package responses

import (
	"time"

	"github.com/sepalink/sepalink-go/models"
)

type QuoteResponseData struct {
	ID                string              `json:"id"`
	SourceAmount      int64               `json:"source_amount"`
	SourceAsset       string              `json:"source_asset"`
	DestinationAmount int64               `json:"destination_amount"`
	DestinationAsset  string              `json:"destination_asset"`
	Rate              string              `json:"rate"`
	Fee               int64               `json:"fee"`
	BankAccount       *models.BankAccount `json:"bank_account"`
	Status            models.QuoteStatus  `json:"status"`
	BridgeAddress     string              `json:"bridge_address"`
	CreatedAt         time.Time           `json:"created_at"`
	ExpiresAt         time.Time           `json:"expires_at"`
}
