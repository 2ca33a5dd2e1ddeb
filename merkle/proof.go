package merkle

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrEmptyProof   = errors.New("empty proof")
	ErrInvalidProof = errors.New("proof does not fold into its root")
	ErrRootMismatch = errors.New("proof root does not match the expected root")
	ErrLeafMismatch = errors.New("proof leaf does not match the expected leaf")
)

// Proof is an inclusion proof: the leaf, the canonicalized siblings from the
// bottom level upwards and the root as last element
type Proof []common.Hash

// Leaf returns the first element of the proof
func (p Proof) Leaf() common.Hash {
	if len(p) == 0 {
		return common.Hash{}
	}
	return p[0]
}

// Root returns the last element of the proof
func (p Proof) Root() common.Hash {
	if len(p) == 0 {
		return common.Hash{}
	}
	return p[len(p)-1]
}

// Siblings returns the elements between the leaf and the root
func (p Proof) Siblings() []common.Hash {
	if len(p) < 2 { //nolint:mnd
		return nil
	}
	return p[1 : len(p)-1]
}

// Verify folds the leaf with every sibling and checks the result against the
// root. A sibling tagged as right is hashed after the running node, any other
// sibling before it. A proof with a single element is trivially valid
func (p Proof) Verify() bool {
	if len(p) == 0 {
		return false
	}
	node := p[0]
	for _, sibling := range p.Siblings() {
		if IsCanonicalRight(sibling) {
			node = HashPair(node, sibling)
		} else {
			node = HashPair(sibling, node)
		}
	}
	return node == p.Root()
}

// VerifyProof reports whether proof is internally consistent
func VerifyProof(proof Proof) bool {
	return proof.Verify()
}

// VerifyAgainst checks the proof is consistent and that it commits to a trusted root
func (p Proof) VerifyAgainst(root common.Hash) error {
	if len(p) == 0 {
		return pegcommon.VerificationError("VerifyProof", ErrEmptyProof)
	}
	if !p.Verify() {
		return pegcommon.VerificationError("VerifyProof", ErrInvalidProof)
	}
	if p.Root() != root {
		return pegcommon.VerificationError("VerifyProof",
			fmt.Errorf("%w: expected %s, proof %s", ErrRootMismatch, root.Hex(), p.Root().Hex()))
	}
	return nil
}

// Hex encodes the proof as a list of hex strings without prefix
func (p Proof) Hex() []string {
	res := make([]string, len(p))
	for i, h := range p {
		res[i] = hex.EncodeToString(h[:])
	}
	return res
}

// ProofFromHex decodes a proof from its hex form. Items may carry a 0x prefix
func ProofFromHex(items []string) (Proof, error) {
	proof := make(Proof, len(items))
	for i, item := range items {
		h, err := pegcommon.HashFromHex(item)
		if err != nil {
			return nil, pegcommon.DecodingError("ProofFromHex", fmt.Errorf("element %d: %w", i, err))
		}
		proof[i] = h
	}
	return proof, nil
}

func (p Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Hex())
}

func (p *Proof) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return pegcommon.DecodingError("Proof.UnmarshalJSON", err)
	}
	proof, err := ProofFromHex(items)
	if err != nil {
		return err
	}
	*p = proof
	return nil
}
