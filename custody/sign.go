package custody

import (
	"bytes"
	"encoding/hex"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/custody/types"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// SpendParams are the inputs of BuildSignedTx
type SpendParams struct {
	Utxos         []types.UtxoAndValue
	Recipients    []types.Recipient
	ChangeAddress btcutil.Address
	Key           *btcec.PrivateKey
	FeeRate       uint64
	DustAmount    uint64
	Params        *chaincfg.Params
}

// BuildSignedTx spends the utxos into one output per recipient plus, when the
// inputs exceed the recipients and the fee, a change output back to
// ChangeAddress. A change not above the dust amount fails with ErrDustChange
func BuildSignedTx(p SpendParams) (*wire.MsgTx, *types.SignedTransaction, error) {
	const op = "BuildSignedTx"
	if len(p.Utxos) == 0 {
		return nil, nil, pegcommon.PolicyError(op, ErrNoInputs)
	}
	if len(p.Recipients) == 0 {
		return nil, nil, pegcommon.PolicyError(op, ErrNoRecipients)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	consumed := make([]wire.OutPoint, len(p.Utxos))
	var inputTotal uint64
	for i, utxo := range p.Utxos {
		consumed[i] = utxo.Outpoint()
		tx.AddTxIn(wire.NewTxIn(&consumed[i], nil, nil))
		var err error
		if inputTotal, err = pegcommon.SafeAddUint64(inputTotal, utxo.Value); err != nil {
			return nil, nil, pegcommon.PolicyError(op, err)
		}
	}

	var spent uint64
	for _, recipient := range p.Recipients {
		out, err := payToAddress(recipient.Address, recipient.Amount, p.Params)
		if err != nil {
			return nil, nil, pegcommon.PolicyError(op, fmt.Errorf("recipient %s: %w", recipient.Address, err))
		}
		tx.AddTxOut(out)
		if spent, err = pegcommon.SafeAddUint64(spent, recipient.Amount); err != nil {
			return nil, nil, pegcommon.PolicyError(op, err)
		}
	}

	fee := TxFee(len(p.Utxos), len(p.Recipients)+1, p.FeeRate)
	required, err := pegcommon.SafeAddUint64(spent, fee)
	if err != nil {
		return nil, nil, pegcommon.PolicyError(op, err)
	}
	if inputTotal < required {
		return nil, nil, pegcommon.InsufficientFundsError(op,
			fmt.Errorf("%w: inputs %d, outputs %d, fee %d", ErrInsufficientFunds, inputTotal, spent, fee))
	}
	change := inputTotal - required
	if change > 0 {
		if change <= p.DustAmount {
			return nil, nil, pegcommon.PolicyError(op,
				fmt.Errorf("%w: %d not above dust amount %d", ErrDustChange, change, p.DustAmount))
		}
		out, err := payToAddress(p.ChangeAddress.EncodeAddress(), change, p.Params)
		if err != nil {
			return nil, nil, pegcommon.PolicyError(op, fmt.Errorf("change address: %w", err))
		}
		tx.AddTxOut(out)
	}

	for i, utxo := range p.Utxos {
		sigScript, err := signatureScript(tx, i, utxo, p.Key)
		if err != nil {
			return nil, nil, err
		}
		tx.TxIn[i].SignatureScript = sigScript
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, nil, pegcommon.DecodingError(op, err)
	}
	return tx, &types.SignedTransaction{
		Hex:      hex.EncodeToString(buf.Bytes()),
		TxID:     tx.TxHash(),
		Consumed: consumed,
		Fee:      fee,
		Change:   change,
	}, nil
}

func payToAddress(address string, amount uint64, params *chaincfg.Params) (*wire.TxOut, error) {
	if amount == 0 || amount > btcutil.MaxSatoshi {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	addr, err := decodeBtcAddress(address, params)
	if err != nil {
		return nil, err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}
	return wire.NewTxOut(int64(amount), script), nil
}

// signatureScript signs input idx of tx, spending utxo with key
func signatureScript(tx *wire.MsgTx, idx int, utxo types.UtxoAndValue, key *btcec.PrivateKey) ([]byte, error) {
	const op = "signatureScript"
	switch utxo.ScriptType {
	case types.P2PKH:
		script, err := txscript.SignatureScript(tx, idx, utxo.Script, txscript.SigHashAll, key, true)
		if err != nil {
			return nil, pegcommon.NewError(pegcommon.KindUnknown, op, err)
		}
		return script, nil

	case types.P2SH:
		if utxo.DepositInfo == nil {
			return nil, pegcommon.VerificationError(op, fmt.Errorf("%w: %s has no deposit info",
				ErrRedeemScriptMismatch, utxo.Outpoint()))
		}
		redeem, err := RedeemScript(utxo.DepositInfo.CommitmentHash, key.PubKey())
		if err != nil {
			return nil, pegcommon.NewError(pegcommon.KindUnknown, op, err)
		}
		expected, err := txscript.NewScriptBuilder().
			AddOp(txscript.OP_HASH160).
			AddData(btcutil.Hash160(redeem)).
			AddOp(txscript.OP_EQUAL).
			Script()
		if err != nil {
			return nil, pegcommon.NewError(pegcommon.KindUnknown, op, err)
		}
		if !bytes.Equal(expected, utxo.Script) {
			return nil, pegcommon.VerificationError(op, fmt.Errorf("%w: %s", ErrRedeemScriptMismatch, utxo.Outpoint()))
		}
		sig, err := txscript.RawTxInSignature(tx, idx, redeem, txscript.SigHashAll, key)
		if err != nil {
			return nil, pegcommon.NewError(pegcommon.KindUnknown, op, err)
		}
		script, err := txscript.NewScriptBuilder().AddData(sig).AddData(redeem).Script()
		if err != nil {
			return nil, pegcommon.NewError(pegcommon.KindUnknown, op, err)
		}
		return script, nil

	default:
		return nil, pegcommon.PolicyError(op, fmt.Errorf("%w: %s", ErrUnsupportedScript, utxo.ScriptType))
	}
}
