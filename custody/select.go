package custody

import (
	"errors"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	custodydb "github.com/0xPolygon/pegcore/custody/db"
	"github.com/0xPolygon/pegcore/custody/types"
	"github.com/0xPolygon/pegcore/db"
	"github.com/russross/meddler"
)

// SelectUtxos withdraws utxos from storage, oldest first, until they cover
// required plus the fee of spending them into numOutputs outputs. While the
// change would be dust another utxo is withdrawn; if none is left it fails with
// ErrInsufficientFunds and ErrDustChange. The withdrawals must run in a
// transaction that is rolled back on error
func SelectUtxos(q meddler.DB, storage custodydb.Storage, required uint64, numOutputs int,
	feeRate, dustAmount uint64) ([]types.UtxoAndValue, error) {
	var (
		selected []types.UtxoAndValue
		total    uint64
		target   uint64
		err      error
	)
	for {
		next, errWithdraw := storage.WithdrawNext(q)
		if errors.Is(errWithdraw, db.ErrNotFound) {
			if len(selected) > 0 && total >= target {
				return nil, pegcommon.InsufficientFundsError("SelectUtxos",
					fmt.Errorf("%w: %w: change %d of %d utxos not above dust amount %d",
						ErrInsufficientFunds, ErrDustChange, total-target, len(selected), dustAmount))
			}
			return nil, pegcommon.InsufficientFundsError("SelectUtxos",
				fmt.Errorf("%w: required %d plus fee, available %d in %d utxos",
					ErrInsufficientFunds, required, total, len(selected)))
		}
		if errWithdraw != nil {
			return nil, errWithdraw
		}

		selected = append(selected, *next)
		if total, err = pegcommon.SafeAddUint64(total, next.Value); err != nil {
			return nil, pegcommon.PolicyError("SelectUtxos", err)
		}
		fee := TxFee(len(selected), numOutputs, feeRate)
		if target, err = pegcommon.SafeAddUint64(required, fee); err != nil {
			return nil, pegcommon.PolicyError("SelectUtxos", err)
		}
		if total < target {
			continue
		}
		if change := total - target; change == 0 || change > dustAmount {
			return selected, nil
		}
	}
}
