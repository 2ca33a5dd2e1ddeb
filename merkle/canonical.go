package merkle

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
)

// sideBit is the most significant bit of the first byte. It tags a hash as the
// left (0) or right (1) element of a pair
const sideBit byte = 0x80

// Side of a node inside a hashed pair
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Canonicalize returns a copy of h tagged for the given side
func Canonicalize(h common.Hash, side Side) common.Hash {
	if side == Right {
		h[0] |= sideBit
	} else {
		h[0] &^= sideBit
	}
	return h
}

// CanonicalLeft returns h with the side bit cleared
func CanonicalLeft(h common.Hash) common.Hash {
	return Canonicalize(h, Left)
}

// CanonicalRight returns h with the side bit set
func CanonicalRight(h common.Hash) common.Hash {
	return Canonicalize(h, Right)
}

func IsCanonicalLeft(h common.Hash) bool {
	return h[0]&sideBit == 0
}

func IsCanonicalRight(h common.Hash) bool {
	return h[0]&sideBit != 0
}

// HashPair hashes the canonical left form of left followed by the canonical right form of right
func HashPair(left, right common.Hash) common.Hash {
	l := CanonicalLeft(left)
	r := CanonicalRight(right)

	hasher := sha256.New()
	hasher.Write(l[:])
	hasher.Write(r[:])

	var hash common.Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
