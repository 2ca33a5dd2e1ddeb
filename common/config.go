package common

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

type Config struct {
	// NetworkName is the bitcoin network the custody engine works on:
	// mainnet, testnet3, regtest, signet or simnet
	NetworkName string `mapstructure:"NetworkName" jsonschema:"enum=mainnet,enum=testnet3,enum=regtest,enum=signet,enum=simnet"` //nolint:lll
}

// NetParams returns the chain parameters of the configured network
func (c Config) NetParams() (*chaincfg.Params, error) {
	return NetParamsByName(c.NetworkName)
}

// NetParamsByName maps a network name to its chain parameters
func NetParamsByName(name string) (*chaincfg.Params, error) {
	switch name {
	case chaincfg.MainNetParams.Name, "":
		return &chaincfg.MainNetParams, nil
	case chaincfg.TestNet3Params.Name:
		return &chaincfg.TestNet3Params, nil
	case chaincfg.RegressionNetParams.Name:
		return &chaincfg.RegressionNetParams, nil
	case chaincfg.SigNetParams.Name:
		return &chaincfg.SigNetParams, nil
	case chaincfg.SimNetParams.Name:
		return &chaincfg.SimNetParams, nil
	default:
		return nil, fmt.Errorf("unknown bitcoin network %q", name)
	}
}
