package custody

import (
	"github.com/0xPolygon/pegcore/custody/types"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ExtractDeposits returns the outputs of block paying a watched address.
// Outputs of other script types, or not decoding to an address, are ignored
func ExtractDeposits(block *wire.MsgBlock, index *DepositAddressIndex,
	params *chaincfg.Params) []types.UtxoAndValue {
	var utxos []types.UtxoAndValue
	for _, tx := range block.Transactions {
		txHash := tx.TxHash()
		for vout, out := range tx.TxOut {
			scriptType, address, ok := outputAddress(out.PkScript, params)
			if !ok || out.Value < 0 {
				continue
			}
			info, ok := index.Lookup(address)
			if !ok {
				continue
			}
			// a P2SH output must carry the commitment to be spendable, a P2PKH one
			// only pays the custody address
			if (scriptType == types.P2SH) != (info != nil) {
				continue
			}
			utxos = append(utxos, types.UtxoAndValue{
				TxID:        txHash,
				Vout:        uint32(vout),
				Value:       uint64(out.Value),
				Script:      out.PkScript,
				ScriptType:  scriptType,
				DepositInfo: info,
			})
		}
	}
	return utxos
}

func outputAddress(pkScript []byte, params *chaincfg.Params) (types.ScriptType, string, bool) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, params)
	if err != nil || len(addrs) != 1 {
		return types.ScriptTypeUnknown, "", false
	}
	switch class {
	case txscript.PubKeyHashTy:
		return types.P2PKH, addrs[0].EncodeAddress(), true
	case txscript.ScriptHashTy:
		return types.P2SH, addrs[0].EncodeAddress(), true
	default:
		return types.ScriptTypeUnknown, "", false
	}
}
