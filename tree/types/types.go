package types

import "github.com/ethereum/go-ethereum/common"

// IncremerkleState is the persisted form of an incremerkle after the block
// BlockNum was appended. BlockNum equals NodeCount
type IncremerkleState struct {
	BlockNum    uint64        `meddler:"block_num"`
	NodeCount   uint64        `meddler:"node_count"`
	ActiveNodes []common.Hash `meddler:"active_nodes,hashslice"`
	Root        common.Hash   `meddler:"root,hash"`
}
