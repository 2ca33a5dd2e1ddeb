package custody

import (
	"github.com/0xPolygon/pegcore/custody/db"
	"github.com/0xPolygon/pegcore/custody/types"
	"github.com/0xPolygon/pegcore/log"
	"github.com/btcsuite/btcd/wire"
	"github.com/russross/meddler"
)

// FilterDust drops the utxos worth less than minValue
func FilterDust(logger *log.Logger, utxos []types.UtxoAndValue, minValue uint64) []types.UtxoAndValue {
	filtered := make([]types.UtxoAndValue, 0, len(utxos))
	for _, utxo := range utxos {
		if utxo.Value < minValue {
			logger.Infof("filtering out dust utxo %s, minimum is %d", utxo, minValue)
			continue
		}
		filtered = append(filtered, utxo)
	}
	return filtered
}

// FilterExtant drops the utxos already held in storage, and repeated ones
func FilterExtant(logger *log.Logger, q meddler.DB, storage db.Storage,
	utxos []types.UtxoAndValue) ([]types.UtxoAndValue, error) {
	seen := make(map[wire.OutPoint]struct{}, len(utxos))
	filtered := make([]types.UtxoAndValue, 0, len(utxos))
	for _, utxo := range utxos {
		outpoint := utxo.Outpoint()
		if _, ok := seen[outpoint]; ok {
			logger.Infof("filtering out repeated utxo %s", outpoint)
			continue
		}
		seen[outpoint] = struct{}{}

		exists, err := storage.Exists(q, outpoint)
		if err != nil {
			return nil, err
		}
		if exists {
			logger.Infof("filtering out utxo %s, already in custody", outpoint)
			continue
		}
		filtered = append(filtered, utxo)
	}
	return filtered, nil
}
