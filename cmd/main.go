package main

import (
	"os"

	"github.com/0xPolygon/pegcore"
	"github.com/0xPolygon/pegcore/config"
	"github.com/0xPolygon/pegcore/log"
	"github.com/urfave/cli/v2"
)

const appName = "pegcore"

const (
	flagProof      = "proof"
	flagRoot       = "root"
	flagBlock      = "block"
	flagDeposits   = "deposits"
	flagTo         = "to"
	flagAmount     = "amount"
	flagFeeRate    = "fee-rate"
	flagNonce      = "nonce"
	flagAddress    = "address"
	flagCommitment = "commitment"
	flagState      = "state"
	flagDown       = "down"
)

var (
	configFileFlag = cli.StringSliceFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration file(s)",
		Required: false,
	}
	saveConfigFlag = cli.StringFlag{
		Name:     config.FlagSaveConfigPath,
		Aliases:  []string{"s"},
		Usage:    "Save final configuration into to the indicated path (name: " + config.SaveConfigFileName + ")",
		Required: false,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "verification and custody core of a pegged-token bridge"
	app.Version = pegcore.Version
	flags := []cli.Flag{
		&configFileFlag,
		&saveConfigFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:   "version",
			Usage:  "Application version and build",
			Action: versionCmd,
		},
		{
			Name:   "config",
			Usage:  "Print the effective configuration, or its JSON schema",
			Action: configCmd,
			Flags: append(flags, &cli.BoolFlag{
				Name:  config.FlagSchema,
				Usage: "Print the JSON schema of the configuration instead",
			}),
		},
		{
			Name:   "migrate",
			Usage:  "Run the database migrations of every component",
			Action: migrateCmd,
			Flags: append(flags, &cli.BoolFlag{
				Name:  flagDown,
				Usage: "Revert the migrations instead",
			}),
		},
		{
			Name:   "utxos",
			Usage:  "Print the utxos held in custody as JSON",
			Action: utxosCmd,
			Flags:  flags,
		},
		{
			Name:   "balance",
			Usage:  "Print the value held in custody",
			Action: balanceCmd,
			Flags:  flags,
		},
		{
			Name:   "deposit-address",
			Usage:  "Derive the deposit address committing to a destination",
			Action: depositAddressCmd,
			Flags: append(flags,
				&cli.Uint64Flag{Name: flagNonce, Required: true},
				&cli.StringFlag{Name: flagAddress, Usage: "destination address", Required: true},
				&cli.StringFlag{Name: flagCommitment, Usage: "32 bytes hex commitment", Required: true},
			),
		},
		{
			Name:   "process-btc-block",
			Usage:  "Credit the deposits of a bitcoin block",
			Action: processBtcBlockCmd,
			Flags: append(flags,
				&cli.StringFlag{Name: flagBlock, Usage: "file with the hex serialized block", Required: true},
				&cli.StringFlag{Name: flagDeposits, Usage: "JSON file with the watched deposit addresses"},
			),
		},
		{
			Name:   "spend",
			Usage:  "Sign a transaction paying from the custodied utxos",
			Action: spendCmd,
			Flags: append(flags,
				&cli.StringFlag{Name: flagTo, Required: true},
				&cli.Uint64Flag{Name: flagAmount, Usage: "satoshis", Required: true},
				&cli.Uint64Flag{Name: flagFeeRate, Usage: "satoshis per byte, 0 for the configured one"},
			),
		},
		{
			Name:   "verify-proof",
			Usage:  "Verify a merkle proof given as a list of hex digests",
			Action: verifyProofCmd,
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: flagProof, Usage: "leaf, siblings and root", Required: true},
				&cli.StringFlag{Name: flagRoot, Usage: "expected root"},
			},
		},
		{
			Name:      "incremerkle",
			Usage:     "Append hex digests to an incremerkle and print its state",
			ArgsUsage: "<digest>...",
			Action:    incremerkleCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: flagState, Usage: "JSON file with the initial state"},
			},
		},
		{
			Name:   "lightclient-init",
			Usage:  "Anchor the light client to a trusted incremerkle state",
			Action: lightClientInitCmd,
			Flags: append(flags,
				&cli.StringFlag{Name: flagState, Usage: "JSON file with the incremerkle state", Required: true},
			),
		},
		{
			Name:   "lightclient-submit",
			Usage:  "Submit an execution chain block with its action proofs",
			Action: lightClientSubmitCmd,
			Flags: append(flags,
				&cli.StringFlag{Name: flagBlock, Usage: "JSON file with the block", Required: true},
			),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}

// setup loads the configuration and initializes the logger
func setup(cliCtx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(cliCtx)
	if err != nil {
		return nil, err
	}
	log.Init(cfg.Log)
	return cfg, nil
}

func versionCmd(*cli.Context) error {
	pegcore.PrintVersion(os.Stdout)
	return nil
}
