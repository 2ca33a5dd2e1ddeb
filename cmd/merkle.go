package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/lightclient"
	"github.com/0xPolygon/pegcore/log"
	"github.com/0xPolygon/pegcore/merkle"
	"github.com/0xPolygon/pegcore/tree"
	"github.com/urfave/cli/v2"
)

func verifyProofCmd(cliCtx *cli.Context) error {
	var items []string
	for _, item := range cliCtx.StringSlice(flagProof) {
		items = append(items, strings.Split(item, ",")...)
	}
	proof, err := merkle.ProofFromHex(items)
	if err != nil {
		return err
	}
	if rootHex := cliCtx.String(flagRoot); rootHex != "" {
		root, err := common.HashFromHex(rootHex)
		if err != nil {
			return err
		}
		if err := proof.VerifyAgainst(root); err != nil {
			return err
		}
	} else if !proof.Verify() {
		return merkle.ErrInvalidProof
	}
	fmt.Printf("valid proof of leaf %x under root %x\n", proof.Leaf(), proof.Root())
	return nil
}

func incremerkleCmd(cliCtx *cli.Context) error {
	t := tree.NewIncremerkle()
	if path := cliCtx.String(flagState); path != "" {
		if err := readJSON(path, t); err != nil {
			return err
		}
	}
	for _, arg := range cliCtx.Args().Slice() {
		digest, err := common.HashFromHex(arg)
		if err != nil {
			return err
		}
		if _, err := t.Append(digest); err != nil {
			return err
		}
	}
	return printJSON(map[string]interface{}{
		"state": t,
		"root":  fmt.Sprintf("%x", t.Root()),
	})
}

func readJSON(path string, v interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}

func newLightClient(cliCtx *cli.Context) (*lightclient.Processor, error) {
	cfg, err := setup(cliCtx)
	if err != nil {
		return nil, err
	}
	return lightclient.New(log.WithFields("module", common.LIGHT_CLIENT), cfg.LightClient)
}

func lightClientInitCmd(cliCtx *cli.Context) error {
	p, err := newLightClient(cliCtx)
	if err != nil {
		return err
	}
	defer p.Close()
	anchor := tree.NewIncremerkle()
	if err := readJSON(cliCtx.String(flagState), anchor); err != nil {
		return err
	}
	if err := p.Init(cliCtx.Context, anchor); err != nil {
		return err
	}
	fmt.Printf("light client anchored at block %d, blockroot %x\n", anchor.NodeCount(), anchor.Root())
	return nil
}

func lightClientSubmitCmd(cliCtx *cli.Context) error {
	p, err := newLightClient(cliCtx)
	if err != nil {
		return err
	}
	defer p.Close()
	var block lightclient.Block
	if err := readJSON(cliCtx.String(flagBlock), &block); err != nil {
		return err
	}
	root, err := p.ProcessBlock(cliCtx.Context, block)
	if err != nil {
		return err
	}
	fmt.Printf("block %d accepted, blockroot %x\n", block.Num, root)
	return nil
}
