// Package eos serializes the execution-chain action receipts whose digests
// are the leaves of a block's action_mroot.
package eos

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/ethereum/go-ethereum/common"
)

// AuthSequence is the per-account sequence of an authorizer of the action
type AuthSequence struct {
	Account  Name
	Sequence uint64
}

// MarshalJSON encodes the auth sequence as the [name, sequence] pair used by the chain API
func (a AuthSequence) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{a.Account.String(), a.Sequence})
}

func (a *AuthSequence) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return pegcommon.DecodingError("AuthSequence.UnmarshalJSON", err)
	}
	if len(pair) != 2 { //nolint:mnd
		return pegcommon.DecodingError("AuthSequence.UnmarshalJSON",
			fmt.Errorf("expected [name, sequence], got %d elements", len(pair)))
	}
	var account string
	if err := json.Unmarshal(pair[0], &account); err != nil {
		return pegcommon.DecodingError("AuthSequence.UnmarshalJSON", err)
	}
	if err := json.Unmarshal(pair[1], &a.Sequence); err != nil {
		return pegcommon.DecodingError("AuthSequence.UnmarshalJSON", err)
	}
	a.Account = StringToName(account)
	return nil
}

// ActionReceipt is the receipt of an executed action. Its digest is a leaf of
// the action merkle tree of the block
type ActionReceipt struct {
	Receiver       Name           `json:"receiver"`
	ActDigest      common.Hash    `json:"act_digest"`
	GlobalSequence uint64         `json:"global_sequence"`
	RecvSequence   uint64         `json:"recv_sequence"`
	AuthSequence   []AuthSequence `json:"auth_sequence"`
	CodeSequence   uint32         `json:"code_sequence"`
	AbiSequence    uint32         `json:"abi_sequence"`
}

// UnmarshalJSON accepts act_digest with or without 0x prefix, as returned by the chain API
func (r *ActionReceipt) UnmarshalJSON(data []byte) error {
	type receiptAlias ActionReceipt
	aux := struct {
		*receiptAlias
		ActDigest string `json:"act_digest"`
	}{receiptAlias: (*receiptAlias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return pegcommon.DecodingError("ActionReceipt.UnmarshalJSON", err)
	}
	digest, err := pegcommon.HashFromHex(aux.ActDigest)
	if err != nil {
		return pegcommon.DecodingError("ActionReceipt.UnmarshalJSON", fmt.Errorf("act_digest: %w", err))
	}
	r.ActDigest = digest
	return nil
}

// Serialize returns the binary form of the receipt: integers little endian,
// list length and code/abi sequences as varuint32
func (r ActionReceipt) Serialize() []byte {
	buf := make([]byte, 0, 8+common.HashLength+8+8+1+16*len(r.AuthSequence)+10) //nolint:mnd
	buf = appendUint64(buf, uint64(r.Receiver))
	buf = append(buf, r.ActDigest[:]...)
	buf = appendUint64(buf, r.GlobalSequence)
	buf = appendUint64(buf, r.RecvSequence)
	buf = AppendVarUint32(buf, uint32(len(r.AuthSequence)))
	for _, auth := range r.AuthSequence {
		buf = appendUint64(buf, uint64(auth.Account))
		buf = appendUint64(buf, auth.Sequence)
	}
	buf = AppendVarUint32(buf, r.CodeSequence)
	return AppendVarUint32(buf, r.AbiSequence)
}

// Digest is the sha256 of the serialized receipt
func (r ActionReceipt) Digest() common.Hash {
	return sha256.Sum256(r.Serialize())
}

// Digests returns the digest of every receipt, in order
func Digests(receipts []ActionReceipt) []common.Hash {
	res := make([]common.Hash, len(receipts))
	for i, r := range receipts {
		res[i] = r.Digest()
	}
	return res
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf, pegcommon.Uint64ToLittleEndianBytes(v)...)
}

// AppendVarUint32 appends v LEB128 encoded
func AppendVarUint32(buf []byte, v uint32) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}
