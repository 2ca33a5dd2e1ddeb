package custody

import (
	"github.com/0xPolygon/pegcore/log"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
)

// SafeAddressDivertible is implemented by the values carrying a destination
// address that can be replaced
type SafeAddressDivertible[T any] interface {
	GetDestinationAddress() string
	DivertTo(address string) T
}

// DivertToSafeAddress replaces with safeAddress the destination of the items
// whose destination isValid rejects
func DivertToSafeAddress[T SafeAddressDivertible[T]](logger *log.Logger, items []T,
	isValid func(string) bool, safeAddress string) []T {
	res := make([]T, len(items))
	for i, item := range items {
		if isValid(item.GetDestinationAddress()) {
			res[i] = item
			continue
		}
		logger.Warnf("destination address %q is not valid, diverting to safe address %s",
			item.GetDestinationAddress(), safeAddress)
		res[i] = item.DivertTo(safeAddress)
	}
	return res
}

// IsValidBtcAddress reports whether address is a P2PKH or P2SH address of params
func IsValidBtcAddress(params *chaincfg.Params) func(string) bool {
	return func(address string) bool {
		_, err := decodeBtcAddress(address, params)
		return err == nil
	}
}

// IsValidEvmAddress reports whether address is a hex encoded 20 bytes address
func IsValidEvmAddress(address string) bool {
	return common.IsHexAddress(address)
}

func decodeBtcAddress(address string, params *chaincfg.Params) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, err
	}
	if !addr.IsForNet(params) {
		return nil, ErrWrongNetwork
	}
	switch addr.(type) {
	case *btcutil.AddressPubKeyHash, *btcutil.AddressScriptHash:
		return addr, nil
	default:
		return nil, ErrUnsupportedAddress
	}
}
