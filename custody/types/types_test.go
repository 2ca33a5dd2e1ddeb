package types

import (
	"encoding/json"
	"testing"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testCommitment = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"

func TestParseDepositAddressListVersion(t *testing.T) {
	str := func(s string) *string { return &s }

	v, err := ParseDepositAddressListVersion(nil)
	require.NoError(t, err)
	require.Equal(t, DepositAddressListV0, v)

	v, err = ParseDepositAddressListVersion(str("0"))
	require.NoError(t, err)
	require.Equal(t, DepositAddressListV0, v)

	v, err = ParseDepositAddressListVersion(str("1"))
	require.NoError(t, err)
	require.Equal(t, DepositAddressListV1, v)

	_, err = ParseDepositAddressListVersion(str("2"))
	require.Error(t, err)
	_, err = ParseDepositAddressListVersion(str(""))
	require.Error(t, err)
}

func TestDepositInfoJSON(t *testing.T) {
	info := DepositInfo{
		Nonce:             1337,
		Address:           "0xfedfe2616eb3661cb8fed2782f5f0cc91d59dcac",
		CommitmentHash:    common.HexToHash(testCommitment),
		BtcDepositAddress: "2N2LHYbt8K1KDBogd6XUG9VBv5YM6xefdM2",
		Version:           DepositAddressListV1,
	}

	t.Run("v1", func(t *testing.T) {
		encoded, err := json.Marshal(info)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"nonce": 1337,
			"address": "0xfedfe2616eb3661cb8fed2782f5f0cc91d59dcac",
			"btc_deposit_address": "2N2LHYbt8K1KDBogd6XUG9VBv5YM6xefdM2",
			"maybe_version": "1",
			"address_and_nonce_hash": "`+testCommitment+`"
		}`, string(encoded))

		var decoded DepositInfo
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		require.Equal(t, info, decoded)
	})

	t.Run("v0 legacy field", func(t *testing.T) {
		legacy := info
		legacy.Version = DepositAddressListV0
		encoded, err := json.Marshal(legacy)
		require.NoError(t, err)
		require.Contains(t, string(encoded), `"eth_address_and_nonce_hash":"`+testCommitment+`"`)
		require.NotContains(t, string(encoded), `"address_and_nonce_hash"`)

		// the version is optional, and the hash may be 0x prefixed
		var decoded DepositInfo
		require.NoError(t, json.Unmarshal([]byte(`{
			"nonce": 1337,
			"address": "0xfedfe2616eb3661cb8fed2782f5f0cc91d59dcac",
			"btc_deposit_address": "2N2LHYbt8K1KDBogd6XUG9VBv5YM6xefdM2",
			"eth_address_and_nonce_hash": "0x`+testCommitment+`"
		}`), &decoded))
		require.Equal(t, legacy, decoded)
	})

	t.Run("errors", func(t *testing.T) {
		var decoded DepositInfo
		err := json.Unmarshal([]byte(`{"nonce": 1, "btc_deposit_address": "x"}`), &decoded)
		require.Error(t, err)
		require.True(t, pegcommon.IsKind(err, pegcommon.KindDecoding))

		err = json.Unmarshal([]byte(`{"nonce": 1, "address_and_nonce_hash": "abcd"}`), &decoded)
		require.ErrorIs(t, err, pegcommon.ErrInvalidHashLength)

		err = json.Unmarshal([]byte(`{"nonce": 1, "maybe_version": "7", "address_and_nonce_hash": "`+testCommitment+`"}`), &decoded)
		require.True(t, pegcommon.IsKind(err, pegcommon.KindDecoding))
	})
}

func TestDivertible(t *testing.T) {
	r := Recipient{Address: "a", Amount: 5}
	diverted := r.DivertTo("b")
	require.Equal(t, "a", r.GetDestinationAddress())
	require.Equal(t, "b", diverted.GetDestinationAddress())
	require.Equal(t, uint64(5), diverted.Amount)

	info := DepositInfo{Nonce: 3, Address: "a"}
	require.Equal(t, DepositInfo{Nonce: 3, Address: "b"}, info.DivertTo("b"))
}

func TestScriptTypeText(t *testing.T) {
	for _, st := range []ScriptType{P2PKH, P2SH} {
		text, err := st.MarshalText()
		require.NoError(t, err)
		var decoded ScriptType
		require.NoError(t, decoded.UnmarshalText(text))
		require.Equal(t, st, decoded)
	}
	var decoded ScriptType
	require.Error(t, decoded.UnmarshalText([]byte("p2wpkh")))
	require.Equal(t, "unknown", ScriptTypeUnknown.String())
}

func TestUtxoAndSignedTransaction(t *testing.T) {
	txID := chainhash.DoubleHashH([]byte("tx"))
	utxos := []UtxoAndValue{
		{TxID: txID, Vout: 1, Value: 100, ScriptType: P2PKH},
		{TxID: txID, Vout: 2, Value: 250, ScriptType: P2SH},
	}
	require.Equal(t, wire.OutPoint{Hash: txID, Index: 2}, utxos[1].Outpoint())
	require.Equal(t, uint64(350), TotalValue(utxos))

	signed := SignedTransaction{
		Hex:      "0100",
		TxID:     txID,
		Consumed: []wire.OutPoint{utxos[0].Outpoint()},
		Fee:      10,
	}
	encoded, err := json.Marshal(signed)
	require.NoError(t, err)
	require.JSONEq(t, `{"hex":"0100","tx_id":"`+txID.String()+`","consumed":["`+txID.String()+`:1"],"fee":10,"change":0}`,
		string(encoded))
}
