// Package merkle implements the canonical-pair merkle tree used by the
// execution chains: every node is paired as sha256(left' || right') where the
// side of each element is encoded in the top bit of its first byte, so proofs
// do not need a separate direction vector.
package merkle

import (
	"errors"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrIndexOutOfRange = errors.New("leaf index out of range")
)

// Digest computes the root of leaves. Levels with an odd number of nodes
// duplicate the last node as it is, before pairing. The digest of an empty list is the zero hash
func Digest(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0]
}

// GenerateProof builds the proof of the leaf at index: the leaf itself, the
// canonicalized sibling of every level and the root
func GenerateProof(leaves []common.Hash, index int) (Proof, error) {
	if index < 0 || index >= len(leaves) {
		return nil, pegcommon.DecodingError("GenerateProof",
			fmt.Errorf("%w: index %d, leaves %d", ErrIndexOutOfRange, index, len(leaves)))
	}

	proof := Proof{leaves[index]}
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		if index%2 == 1 {
			proof = append(proof, CanonicalLeft(level[index-1]))
		} else {
			proof = append(proof, CanonicalRight(level[index+1]))
		}
		level = nextLevel(level)
		index /= 2
	}
	return append(proof, level[0]), nil
}

func nextLevel(level []common.Hash) []common.Hash {
	if len(level)%2 != 0 {
		level = append(level, level[len(level)-1])
	}
	next := make([]common.Hash, 0, len(level)/2) //nolint:mnd
	for i := 0; i < len(level); i += 2 {
		next = append(next, HashPair(level[i], level[i+1]))
	}
	return next
}
