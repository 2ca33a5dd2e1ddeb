package main

import (
	"github.com/0xPolygon/pegcore/common"
	custodymigrations "github.com/0xPolygon/pegcore/custody/db/migrations"
	"github.com/0xPolygon/pegcore/db"
	dbtypes "github.com/0xPolygon/pegcore/db/types"
	"github.com/0xPolygon/pegcore/log"
	treemigrations "github.com/0xPolygon/pegcore/tree/migrations"
	"github.com/urfave/cli/v2"
)

func migrateCmd(cliCtx *cli.Context) error {
	cfg, err := setup(cliCtx)
	if err != nil {
		return err
	}
	targets := []struct {
		component string
		dbPath    string
		run       func(logger *log.Logger, dbPath string) error
	}{
		{common.CUSTODY, cfg.Custody.DBPath, migrationRunner(custodymigrations.Migrations, cliCtx.Bool(flagDown))},
		{common.LIGHT_CLIENT, cfg.LightClient.DBPath, migrationRunner(treemigrations.Migrations, cliCtx.Bool(flagDown))},
	}
	for _, target := range targets {
		logger := log.WithFields("module", target.component)
		if err := target.run(logger, target.dbPath); err != nil {
			return err
		}
		logger.Infof("migrations of %s done", target.dbPath)
	}
	return nil
}

func migrationRunner(migrations []dbtypes.Migration, down bool) func(*log.Logger, string) error {
	return func(logger *log.Logger, dbPath string) error {
		database, err := db.NewSQLiteDB(dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		if down {
			return db.RunMigrationsDownDB(logger, database, migrations)
		}
		return db.RunMigrationsDB(logger, database, migrations)
	}
}
