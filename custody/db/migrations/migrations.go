package migrations

import (
	_ "embed"

	"github.com/0xPolygon/pegcore/db"
	"github.com/0xPolygon/pegcore/db/types"
)

//go:embed custody0001.sql
var mig001 string

// Migrations of the custody tables
var Migrations = []types.Migration{
	{
		ID:  "custody0001",
		SQL: mig001,
	},
}

func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, Migrations)
}
