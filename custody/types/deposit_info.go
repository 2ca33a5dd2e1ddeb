package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/ethereum/go-ethereum/common"
)

// DepositAddressListVersion selects how the commitment hash is named in the
// JSON form of a deposit address
type DepositAddressListVersion uint8

const (
	// DepositAddressListV0 names the commitment eth_address_and_nonce_hash
	DepositAddressListV0 DepositAddressListVersion = iota
	// DepositAddressListV1 names the commitment address_and_nonce_hash
	DepositAddressListV1
)

func (v DepositAddressListVersion) String() string {
	if v == DepositAddressListV1 {
		return "1"
	}
	return "0"
}

// ParseDepositAddressListVersion parses the version string. A missing
// version means V0; only the first character is significant
func ParseDepositAddressListVersion(version *string) (DepositAddressListVersion, error) {
	if version == nil {
		return DepositAddressListV0, nil
	}
	if len(*version) > 0 {
		switch (*version)[0] {
		case '0':
			return DepositAddressListV0, nil
		case '1':
			return DepositAddressListV1, nil
		}
	}
	return 0, fmt.Errorf("deposit address list version unrecognized: %q", *version)
}

// DepositInfo binds a bitcoin deposit address to the destination the wrapped
// tokens are minted to. CommitmentHash is the value committed in the redeem script
type DepositInfo struct {
	Nonce             uint64
	Address           string
	CommitmentHash    common.Hash
	BtcDepositAddress string
	Version           DepositAddressListVersion
}

// GetDestinationAddress returns the address the wrapped tokens are minted to
func (d DepositInfo) GetDestinationAddress() string {
	return d.Address
}

// DivertTo returns a copy minting to address
func (d DepositInfo) DivertTo(address string) DepositInfo {
	d.Address = address
	return d
}

// DepositInfoJSON is the wire form of a DepositInfo
type DepositInfoJSON struct {
	Nonce                  uint64  `json:"nonce"`
	Address                string  `json:"address"`
	BtcDepositAddress      string  `json:"btc_deposit_address"`
	MaybeVersion           *string `json:"maybe_version,omitempty"`
	AddressAndNonceHash    *string `json:"address_and_nonce_hash,omitempty"`
	EthAddressAndNonceHash *string `json:"eth_address_and_nonce_hash,omitempty"`
}

// ToJSON returns the wire form. The commitment field depends on the version
func (d DepositInfo) ToJSON() DepositInfoJSON {
	hash := hex.EncodeToString(d.CommitmentHash[:])
	version := d.Version.String()
	res := DepositInfoJSON{
		Nonce:             d.Nonce,
		Address:           d.Address,
		BtcDepositAddress: d.BtcDepositAddress,
		MaybeVersion:      &version,
	}
	if d.Version == DepositAddressListV1 {
		res.AddressAndNonceHash = &hash
	} else {
		res.EthAddressAndNonceHash = &hash
	}
	return res
}

// FromJSON builds a DepositInfo from its wire form. Either commitment field is accepted
func (j DepositInfoJSON) FromJSON() (DepositInfo, error) {
	version, err := ParseDepositAddressListVersion(j.MaybeVersion)
	if err != nil {
		return DepositInfo{}, pegcommon.DecodingError("DepositInfo", err)
	}
	hashStr := j.AddressAndNonceHash
	if hashStr == nil {
		hashStr = j.EthAddressAndNonceHash
	}
	if hashStr == nil {
		return DepositInfo{}, pegcommon.DecodingError("DepositInfo",
			fmt.Errorf("no address and nonce hash found for deposit address %s", j.BtcDepositAddress))
	}
	commitment, err := pegcommon.HashFromHex(*hashStr)
	if err != nil {
		return DepositInfo{}, pegcommon.DecodingError("DepositInfo", err)
	}
	return DepositInfo{
		Nonce:             j.Nonce,
		Address:           j.Address,
		CommitmentHash:    commitment,
		BtcDepositAddress: j.BtcDepositAddress,
		Version:           version,
	}, nil
}

func (d DepositInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToJSON())
}

func (d *DepositInfo) UnmarshalJSON(data []byte) error {
	var aux DepositInfoJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return pegcommon.DecodingError("DepositInfo", err)
	}
	info, err := aux.FromJSON()
	if err != nil {
		return err
	}
	*d = info
	return nil
}
