package db

import (
	"log"
	"strings"

	tdb "github.com/tigerbeetle/tigerbeetle-go"
	tdb_types "github.com/tigerbeetle/tigerbeetle-go/pkg/types"

	"github.com/sepalink/sepalink-go/config"
)

// GetTxDBConnection connects to the tigerbeetle cluster backing the
// accounting journal. Returns nil when TX_DB_URL is unset: the journal is
// optional and the reconciliation core never depends on it.
func GetTxDBConnection() tdb.Client {
	if config.TX_DB_URL == "" {
		return nil
	}

	addr := strings.Split(config.TX_DB_URL, ",")
	client, err := tdb.NewClient(tdb_types.ToUint128(0), addr)
	if err != nil {
		log.Panicln(err)
	}

	return client
}
