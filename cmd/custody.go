package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/config"
	"github.com/0xPolygon/pegcore/custody"
	"github.com/0xPolygon/pegcore/custody/types"
	"github.com/0xPolygon/pegcore/log"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/urfave/cli/v2"
)

func newCustodian(cliCtx *cli.Context) (*custody.Custodian, *chaincfg.Params, error) {
	cfg, err := setup(cliCtx)
	if err != nil {
		return nil, nil, err
	}
	return custodianFromConfig(cfg)
}

func custodianFromConfig(cfg *config.Config) (*custody.Custodian, *chaincfg.Params, error) {
	params, err := cfg.Common.NetParams()
	if err != nil {
		return nil, nil, err
	}
	key, err := readCustodyKey(cfg.Custody.PrivateKeyPath, params)
	if err != nil {
		return nil, nil, err
	}
	c, err := custody.New(log.WithFields("module", common.CUSTODY), cfg.Custody, params, key)
	if err != nil {
		return nil, nil, err
	}
	return c, params, nil
}

// readCustodyKey reads a WIF encoded key of the network params from path
func readCustodyKey(path string, params *chaincfg.Params) (*btcec.PrivateKey, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading custody key %s: %w", path, err)
	}
	wif, err := btcutil.DecodeWIF(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, fmt.Errorf("error decoding custody key %s: %w", path, err)
	}
	if !wif.IsForNet(params) {
		return nil, fmt.Errorf("custody key %s is not for network %s", path, params.Name)
	}
	return wif.PrivKey, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}

func utxosCmd(cliCtx *cli.Context) error {
	c, _, err := newCustodian(cliCtx)
	if err != nil {
		return err
	}
	defer c.Close()
	utxos, err := c.Utxos()
	if err != nil {
		return err
	}
	return printJSON(utxos)
}

func balanceCmd(cliCtx *cli.Context) error {
	c, _, err := newCustodian(cliCtx)
	if err != nil {
		return err
	}
	defer c.Close()
	balance, err := c.Balance()
	if err != nil {
		return err
	}
	count, err := c.Count()
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"address": c.Address().EncodeAddress(),
		"balance": balance,
		"utxos":   count,
	})
}

func depositAddressCmd(cliCtx *cli.Context) error {
	c, _, err := newCustodian(cliCtx)
	if err != nil {
		return err
	}
	defer c.Close()
	commitment, err := common.HashFromHex(cliCtx.String(flagCommitment))
	if err != nil {
		return err
	}
	info, err := c.NewDepositInfo(cliCtx.Uint64(flagNonce), cliCtx.String(flagAddress), commitment)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func processBtcBlockCmd(cliCtx *cli.Context) error {
	c, _, err := newCustodian(cliCtx)
	if err != nil {
		return err
	}
	defer c.Close()
	block, err := readBtcBlock(cliCtx.String(flagBlock))
	if err != nil {
		return err
	}
	var deposits []types.DepositInfo
	if path := cliCtx.String(flagDeposits); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(content, &deposits); err != nil {
			return fmt.Errorf("error decoding deposit addresses %s: %w", path, err)
		}
	}
	saved, err := c.ProcessBlock(cliCtx.Context, block, deposits)
	if err != nil {
		return err
	}
	return printJSON(saved)
}

func readBtcBlock(path string) (*wire.MsgBlock, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, common.DecodingError("readBtcBlock", err)
	}
	var block wire.MsgBlock
	if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, common.DecodingError("readBtcBlock", err)
	}
	return &block, nil
}

func spendCmd(cliCtx *cli.Context) error {
	c, _, err := newCustodian(cliCtx)
	if err != nil {
		return err
	}
	defer c.Close()
	signed, err := c.Spend(cliCtx.Context, []types.Recipient{{
		Address: cliCtx.String(flagTo),
		Amount:  cliCtx.Uint64(flagAmount),
	}}, cliCtx.Uint64(flagFeeRate))
	if err != nil {
		return err
	}
	return printJSON(signed)
}
