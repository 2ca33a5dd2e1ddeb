package custody

import (
	"errors"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

var ErrMerkleRootMismatch = errors.New("transactions do not match the header merkle root")

// BlockVerifier validates a block before its outputs are credited
type BlockVerifier interface {
	VerifyBlock(block *wire.MsgBlock) error
}

// BlockVerifierFunc adapts a function to BlockVerifier
type BlockVerifierFunc func(block *wire.MsgBlock) error

func (f BlockVerifierFunc) VerifyBlock(block *wire.MsgBlock) error {
	return f(block)
}

// MerkleRootVerifier checks that the transactions of a block hash to its header merkle root
type MerkleRootVerifier struct{}

func (MerkleRootVerifier) VerifyBlock(block *wire.MsgBlock) error {
	if len(block.Transactions) == 0 {
		return pegcommon.VerificationError("VerifyMerkleRoot", fmt.Errorf("%w: block has no transactions",
			ErrMerkleRootMismatch))
	}
	txs := make([]*btcutil.Tx, len(block.Transactions))
	for i, tx := range block.Transactions {
		txs[i] = btcutil.NewTx(tx)
	}
	root := blockchain.CalcMerkleRoot(txs, false)
	if !root.IsEqual(&block.Header.MerkleRoot) {
		return pegcommon.VerificationError("VerifyMerkleRoot", fmt.Errorf("%w: computed %s, header %s",
			ErrMerkleRootMismatch, root, block.Header.MerkleRoot))
	}
	return nil
}
