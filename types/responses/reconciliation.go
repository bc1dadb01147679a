package responses

import "github.com/sepalink/sepalink-go/models"

type MatchResultData struct {
	// Result is "matched" for a first delivery and "duplicate" when the
	// notification was already reconciled.
	Result string                       `json:"result"`
	Record *models.ReconciliationRecord `json:"record"`
}
