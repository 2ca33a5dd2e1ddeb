// Package tree keeps the incremental merkle tree ("incremerkle") of block ids
// of an execution chain. Only the frontier needed to keep appending is stored,
// so the state is O(log n) and the root is always the last active node.
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/merkle"
	"github.com/0xPolygon/pegcore/tree/types"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrCorruptedState is returned when the active nodes can not support the next append
	ErrCorruptedState = errors.New("incremerkle state is corrupted")
	ErrNotInitialized = errors.New("incremerkle has not been initialized")
)

// Incremerkle is an append-only merkle tree that only keeps its frontier
type Incremerkle struct {
	nodeCount   uint64
	activeNodes []common.Hash
}

// NewIncremerkle creates an empty tree
func NewIncremerkle() *Incremerkle {
	return &Incremerkle{activeNodes: []common.Hash{}}
}

// NewIncremerkleFromState restores a tree from its node count and active nodes
func NewIncremerkleFromState(nodeCount uint64, activeNodes []common.Hash) (*Incremerkle, error) {
	if (nodeCount == 0) != (len(activeNodes) == 0) {
		return nil, pegcommon.DecodingError("NewIncremerkleFromState", fmt.Errorf(
			"%w: %d nodes with %d active nodes", ErrCorruptedState, nodeCount, len(activeNodes)))
	}
	nodes := make([]common.Hash, len(activeNodes))
	copy(nodes, activeNodes)
	return &Incremerkle{nodeCount: nodeCount, activeNodes: nodes}, nil
}

// NodeCount returns the number of leaves appended so far
func (t *Incremerkle) NodeCount() uint64 {
	return t.nodeCount
}

// ActiveNodes returns a copy of the frontier
func (t *Incremerkle) ActiveNodes() []common.Hash {
	nodes := make([]common.Hash, len(t.activeNodes))
	copy(nodes, t.activeNodes)
	return nodes
}

// Root returns the current root, the zero hash for an empty tree
func (t *Incremerkle) Root() common.Hash {
	if t.nodeCount == 0 || len(t.activeNodes) == 0 {
		return common.Hash{}
	}
	return t.activeNodes[len(t.activeNodes)-1]
}

// Copy returns a deep copy of the tree
func (t *Incremerkle) Copy() *Incremerkle {
	return &Incremerkle{nodeCount: t.nodeCount, activeNodes: t.ActiveNodes()}
}

// Append adds digest as the next leaf and returns the new root. On error
// the tree is left untouched
//
// The new frontier is built walking from the deepest level to the root. When
// the leaf path goes left the running node is paired with itself (the implied
// padding of an odd level), when it goes right it is paired with the next
// active node of the previous frontier
func (t *Incremerkle) Append(digest common.Hash) (common.Hash, error) {
	partial := false
	maxDepth := calculateMaxDepth(t.nodeCount + 1)
	currentDepth := maxDepth - 1
	index := t.nodeCount
	top := digest
	updated := make([]common.Hash, 0, maxDepth)
	oldPos := 0

	for currentDepth > 0 {
		if index&1 == 0 {
			// we are a left child
			if !partial {
				updated = append(updated, top)
			}
			top = merkle.HashPair(top, top)
			partial = true
		} else {
			// we are a right child
			if oldPos >= len(t.activeNodes) {
				return common.Hash{}, pegcommon.VerificationError("Incremerkle.Append", fmt.Errorf(
					"%w: appending leaf %d needs more than %d active nodes",
					ErrCorruptedState, t.nodeCount, len(t.activeNodes)))
			}
			left := t.activeNodes[oldPos]
			oldPos++
			if partial {
				updated = append(updated, left)
			}
			top = merkle.HashPair(left, top)
		}
		currentDepth--
		index >>= 1
	}
	updated = append(updated, top)

	t.activeNodes = updated
	t.nodeCount++
	return top, nil
}

// calculateMaxDepth returns the depth of a tree holding n leaves, counting the leaves level
func calculateMaxDepth(n uint64) int {
	if n == 0 {
		return 0
	}
	return bits.Len64(nextPowerOfTwo(n))
}

func nextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}

// State returns the persisted form of the tree
func (t *Incremerkle) State() types.IncremerkleState {
	return types.IncremerkleState{
		BlockNum:    t.nodeCount,
		NodeCount:   t.nodeCount,
		ActiveNodes: t.ActiveNodes(),
		Root:        t.Root(),
	}
}

// NewIncremerkleFromRow restores a tree from its persisted form, checking its root
func NewIncremerkleFromRow(state types.IncremerkleState) (*Incremerkle, error) {
	t, err := NewIncremerkleFromState(state.NodeCount, state.ActiveNodes)
	if err != nil {
		return nil, err
	}
	if t.Root() != state.Root {
		return nil, pegcommon.DecodingError("NewIncremerkleFromRow", fmt.Errorf(
			"%w: stored root %s, active nodes root %s", ErrCorruptedState, state.Root.Hex(), t.Root().Hex()))
	}
	return t, nil
}

type incremerkleJSON struct {
	NodeCount   uint64   `json:"node_count"`
	ActiveNodes []string `json:"active_nodes"`
}

// MarshalJSON encodes the tree as {"node_count": n, "active_nodes": [hex, ...]}
func (t *Incremerkle) MarshalJSON() ([]byte, error) {
	return json.Marshal(incremerkleJSON{
		NodeCount:   t.nodeCount,
		ActiveNodes: merkle.Proof(t.activeNodes).Hex(),
	})
}

func (t *Incremerkle) UnmarshalJSON(data []byte) error {
	var aux incremerkleJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return pegcommon.DecodingError("Incremerkle.UnmarshalJSON", err)
	}
	nodes, err := merkle.ProofFromHex(aux.ActiveNodes)
	if err != nil {
		return err
	}
	restored, err := NewIncremerkleFromState(aux.NodeCount, nodes)
	if err != nil {
		return err
	}
	*t = *restored
	return nil
}
