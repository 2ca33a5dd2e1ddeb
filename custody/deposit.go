package custody

import (
	"errors"
	"fmt"

	"github.com/0xPolygon/pegcore/custody/types"
	"github.com/0xPolygon/pegcore/log"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/ethereum/go-ethereum/common"
)

var ErrDepositAddressMismatch = errors.New("deposit address does not match the commitment and custody key")

// RedeemScript returns the script locking a deposit to the custody key:
// <commitment> OP_DROP <pubkey> OP_CHECKSIG
func RedeemScript(commitment common.Hash, pubKey *btcec.PublicKey) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(commitment[:]).
		AddOp(txscript.OP_DROP).
		AddData(pubKey.SerializeCompressed()).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// DepositAddress returns the P2SH address of the redeem script of commitment
func DepositAddress(commitment common.Hash, pubKey *btcec.PublicKey,
	params *chaincfg.Params) (*btcutil.AddressScriptHash, error) {
	redeem, err := RedeemScript(commitment, pubKey)
	if err != nil {
		return nil, err
	}
	return btcutil.NewAddressScriptHash(redeem, params)
}

// CustodyAddress returns the P2PKH address of the custody key
func CustodyAddress(pubKey *btcec.PublicKey, params *chaincfg.Params) (*btcutil.AddressPubKeyHash, error) {
	return btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubKey.SerializeCompressed()), params)
}

// NewDepositInfo binds the deposit address derived from commitment to address
func NewDepositInfo(nonce uint64, address string, commitment common.Hash,
	pubKey *btcec.PublicKey, params *chaincfg.Params) (types.DepositInfo, error) {
	depositAddress, err := DepositAddress(commitment, pubKey, params)
	if err != nil {
		return types.DepositInfo{}, err
	}
	return types.DepositInfo{
		Nonce:             nonce,
		Address:           address,
		CommitmentHash:    commitment,
		BtcDepositAddress: depositAddress.EncodeAddress(),
		Version:           types.DepositAddressListV1,
	}, nil
}

// DepositAddressIndex maps the watched addresses to their deposit info. The
// custody address is watched too, with no deposit info
type DepositAddressIndex struct {
	custodyAddress string
	deposits       map[string]types.DepositInfo
}

// NewDepositAddressIndex indexes infos by deposit address. Entries whose
// address is not derived from their commitment and the custody key would not
// be spendable, so they are skipped
func NewDepositAddressIndex(logger *log.Logger, infos []types.DepositInfo,
	pubKey *btcec.PublicKey, params *chaincfg.Params) (*DepositAddressIndex, error) {
	custodyAddress, err := CustodyAddress(pubKey, params)
	if err != nil {
		return nil, err
	}
	index := &DepositAddressIndex{
		custodyAddress: custodyAddress.EncodeAddress(),
		deposits:       make(map[string]types.DepositInfo, len(infos)),
	}
	for _, info := range infos {
		expected, err := DepositAddress(info.CommitmentHash, pubKey, params)
		if err != nil {
			return nil, err
		}
		if expected.EncodeAddress() != info.BtcDepositAddress {
			logger.Warnf("skipping deposit info nonce %d: %v: got %s, expected %s",
				info.Nonce, ErrDepositAddressMismatch, info.BtcDepositAddress, expected.EncodeAddress())
			continue
		}
		index.deposits[info.BtcDepositAddress] = info
	}
	return index, nil
}

// Lookup returns the deposit info of address. ok is true for the custody
// address, with a nil info
func (i *DepositAddressIndex) Lookup(address string) (info *types.DepositInfo, ok bool) {
	if address == i.custodyAddress {
		return nil, true
	}
	d, ok := i.deposits[address]
	if !ok {
		return nil, false
	}
	return &d, true
}

// Len returns the number of watched deposit addresses, the custody one excluded
func (i *DepositAddressIndex) Len() int {
	return len(i.deposits)
}

func (i *DepositAddressIndex) String() string {
	return fmt.Sprintf("custody %s + %d deposit addresses", i.custodyAddress, len(i.deposits))
}
