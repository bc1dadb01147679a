package services

import (
	"context"

	tdb "github.com/tigerbeetle/tigerbeetle-go"
	tdb_types "github.com/tigerbeetle/tigerbeetle-go/pkg/types"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/errors"
	"github.com/sepalink/sepalink-go/models"
)

// Account and ledger layout of the settlement journal. One euro ledger,
// three accounts: the bridge's float, the payout clearing account and
// the fee income account.
const (
	EuroLedger uint32 = 1

	BridgeFloatAccount   uint64 = 1
	PayoutClearedAccount uint64 = 2
	FeeIncomeAccount     uint64 = 3

	payoutTransferCode uint16 = 1
	feeTransferCode    uint16 = 2
)

type JournalService interface {
	// RecordSettledPayout books a confirmed payout as a double-entry
	// transfer pair on the accounting journal. A nil journal client makes
	// this a no-op; the reconciliation ledger in SQL stays authoritative
	// either way.
	RecordSettledPayout(ctx context.Context, quote *models.Quote, record *models.ReconciliationRecord) error
}

func NewJournalService(transactionDB tdb.Client, log *zap.Logger) JournalService {
	return &journalService{
		transactionDB: transactionDB,
		log:           log,
	}
}

type journalService struct {
	transactionDB tdb.Client
	log           *zap.Logger
}

func (j *journalService) RecordSettledPayout(_ context.Context, quote *models.Quote, record *models.ReconciliationRecord) error {
	if j.transactionDB == nil {
		return nil
	}

	ref := tdb_types.ID()
	transfers := []tdb_types.Transfer{
		{
			ID:              tdb_types.ID(),
			DebitAccountID:  tdb_types.ToUint128(BridgeFloatAccount),
			CreditAccountID: tdb_types.ToUint128(PayoutClearedAccount),
			Amount:          tdb_types.ToUint128(uint64(quote.DestinationAmount)),
			UserData128:     ref,
			Ledger:          EuroLedger,
			Code:            payoutTransferCode,
		},
	}
	if quote.Fee > 0 {
		transfers[0].Flags = tdb_types.TransferFlags{Linked: true}.ToUint16()
		transfers = append(transfers, tdb_types.Transfer{
			ID:              tdb_types.ID(),
			DebitAccountID:  tdb_types.ToUint128(BridgeFloatAccount),
			CreditAccountID: tdb_types.ToUint128(FeeIncomeAccount),
			Amount:          tdb_types.ToUint128(uint64(quote.Fee)),
			UserData128:     ref,
			Ledger:          EuroLedger,
			Code:            feeTransferCode,
		})
	}

	res, err := j.transactionDB.CreateTransfers(transfers)
	if err != nil {
		return errors.NewFailedDependencyError(err.Error())
	}
	if len(res) > 0 {
		return errors.NewFailedDependencyError(res[0].Result.String())
	}

	j.log.Info("settled payout journaled",
		zap.String("record_id", record.ID),
		zap.String("quote_id", quote.ID),
		zap.Int64("amount", quote.DestinationAmount),
		zap.Int64("fee", quote.Fee))
	return nil
}
