package main

import (
	"encoding/json"
	"os"

	"github.com/0xPolygon/pegcore/config"
	"github.com/invopop/jsonschema"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"
)

func configCmd(cliCtx *cli.Context) error {
	if cliCtx.Bool(config.FlagSchema) {
		reflector := jsonschema.Reflector{ExpandedStruct: true}
		schema := reflector.Reflect(&config.Config{})
		schema.Title = "pegcore config file"
		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}

	cfg, err := config.Load(cliCtx)
	if err != nil {
		return err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
