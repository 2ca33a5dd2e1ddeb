package types

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ScriptType is the kind of locking script of a custodied output
type ScriptType uint8

const (
	ScriptTypeUnknown ScriptType = iota
	// P2PKH pays to the custody key hash
	P2PKH
	// P2SH pays to a deposit redeem script committing to a destination
	P2SH
)

func (s ScriptType) String() string {
	switch s {
	case P2PKH:
		return "p2pkh"
	case P2SH:
		return "p2sh"
	default:
		return "unknown"
	}
}

func (s ScriptType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ScriptType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "p2pkh":
		*s = P2PKH
	case "p2sh":
		*s = P2SH
	default:
		return fmt.Errorf("unknown script type %q", string(text))
	}
	return nil
}

// UtxoAndValue is an unspent output held by the custody engine. It is
// identified by (TxID, Vout)
type UtxoAndValue struct {
	TxID        chainhash.Hash `meddler:"tx_id,chainhash" json:"tx_id"`
	Vout        uint32         `meddler:"vout" json:"vout"`
	Value       uint64         `meddler:"value" json:"value"`
	Script      hexutil.Bytes  `meddler:"script" json:"script"`
	ScriptType  ScriptType     `meddler:"script_type" json:"script_type"`
	DepositInfo *DepositInfo   `meddler:"deposit_info,json" json:"deposit_info,omitempty"`
}

// Outpoint returns the identity of the output
func (u UtxoAndValue) Outpoint() wire.OutPoint {
	return wire.OutPoint{Hash: u.TxID, Index: u.Vout}
}

func (u UtxoAndValue) String() string {
	return fmt.Sprintf("%s:%d (%d sats, %s)", u.TxID, u.Vout, u.Value, u.ScriptType)
}

// TotalValue sums the value of utxos
func TotalValue(utxos []UtxoAndValue) uint64 {
	var total uint64
	for _, u := range utxos {
		total += u.Value
	}
	return total
}

// Recipient of a redemption
type Recipient struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// GetDestinationAddress returns the address the funds are sent to
func (r Recipient) GetDestinationAddress() string {
	return r.Address
}

// DivertTo returns a copy of the recipient paying to address
func (r Recipient) DivertTo(address string) Recipient {
	r.Address = address
	return r
}

// SignedTransaction is a fully signed redemption ready to be broadcast
type SignedTransaction struct {
	Hex      string          `json:"hex"`
	TxID     chainhash.Hash  `json:"tx_id"`
	Consumed []wire.OutPoint `json:"consumed"`
	Fee      uint64          `json:"fee"`
	Change   uint64          `json:"change"`
}

// MarshalJSON encodes the consumed outpoints as "txid:vout"
func (s SignedTransaction) MarshalJSON() ([]byte, error) {
	consumed := make([]string, len(s.Consumed))
	for i, op := range s.Consumed {
		consumed[i] = op.String()
	}
	return json.Marshal(struct {
		Hex      string   `json:"hex"`
		TxID     string   `json:"tx_id"`
		Consumed []string `json:"consumed"`
		Fee      uint64   `json:"fee"`
		Change   uint64   `json:"change"`
	}{s.Hex, s.TxID.String(), consumed, s.Fee, s.Change})
}
