package lightclient

import (
	"github.com/0xPolygon/pegcore/eos"
	"github.com/0xPolygon/pegcore/merkle"
	"github.com/ethereum/go-ethereum/common"
)

// ActionProof proves that Receipt was executed in a block: the first element
// of Proof must be the receipt digest and the last one the block action_mroot
type ActionProof struct {
	Receipt eos.ActionReceipt `json:"action_receipt"`
	Proof   merkle.Proof      `json:"action_proof"`
}

// Block is the part of an execution chain block header the bridge needs,
// together with the proofs of the actions of interest. Header signatures
// are checked by the caller before handing the block over
type Block struct {
	Num             uint64        `json:"block_num"`
	ID              common.Hash   `json:"id"`
	Previous        common.Hash   `json:"previous"`
	ActionMroot     common.Hash   `json:"action_mroot"`
	BlockrootMerkle common.Hash   `json:"blockroot_merkle"`
	ActionProofs    []ActionProof `json:"action_proofs"`
}
