package custody

import "github.com/btcsuite/btcd/wire"

const (
	// DefaultDustRelayFee is the relay fee of bitcoin core's default dust policy
	DefaultDustRelayFee = 3

	txOverheadSize  = 10
	p2pkhInputSize  = 148
	p2pkhOutputSize = 34
	p2pkhScriptSize = 25
)

// TxFee estimates the fee of a legacy transaction spending numInputs outputs
// into numOutputs outputs
func TxFee(numInputs, numOutputs int, feeRate uint64) uint64 {
	size := txOverheadSize + p2pkhInputSize*numInputs + p2pkhOutputSize*numOutputs
	return uint64(size) * feeRate
}

// DustAmountFromRelayFee returns the value below which an output costs more
// than a third of itself to spend
func DustAmountFromRelayFee(relayFee uint64) uint64 {
	return 3 * relayFee * uint64(dummySpendTxSize())
}

// dummySpendTxSize is the size of a tx spending one P2PKH output into one P2PKH output,
// with the unsigned input carrying the locking script
func dummySpendTxSize() int {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, make([]byte, p2pkhScriptSize), nil))
	tx.AddTxOut(wire.NewTxOut(0, make([]byte, p2pkhScriptSize)))
	return tx.SerializeSize()
}
