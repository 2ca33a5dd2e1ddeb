package db

import (
	"context"
	"errors"
	"path"
	"testing"

	"github.com/0xPolygon/pegcore/db/types"
	"github.com/0xPolygon/pegcore/log"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
	"github.com/stretchr/testify/require"
)

const testMigration = `
-- +migrate Down
DROP TABLE IF EXISTS /*dbprefix*/sample;

-- +migrate Up
CREATE TABLE /*dbprefix*/sample (
	id         TEXT PRIMARY KEY,
	root       VARCHAR NOT NULL,
	nodes      VARCHAR NOT NULL,
	tx_id      VARCHAR NOT NULL
);
`

type sample struct {
	ID    string         `meddler:"id"`
	Root  common.Hash    `meddler:"root,hash"`
	Nodes []common.Hash  `meddler:"nodes,hashslice"`
	TxID  chainhash.Hash `meddler:"tx_id,chainhash"`
}

func newTestDB(t *testing.T, prefix string) string {
	t.Helper()

	dbPath := path.Join(t.TempDir(), "file::memory:?cache=shared")
	err := RunMigrations(dbPath, []types.Migration{{ID: "sample0001", SQL: testMigration, Prefix: prefix}})
	require.NoError(t, err)
	return dbPath
}

func TestMeddlers(t *testing.T) {
	dbPath := newTestDB(t, "")
	db, err := NewSQLiteDB(dbPath)
	require.NoError(t, err)

	txID, err := chainhash.NewHashFromStr("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		in := sample{
			ID:    "a",
			Root:  common.HexToHash("0x1"),
			Nodes: []common.Hash{common.HexToHash("0x2"), common.HexToHash("0x3")},
			TxID:  *txID,
		}
		require.NoError(t, meddler.Insert(db, "sample", &in))

		var out sample
		require.NoError(t, meddler.QueryRow(db, &out, "SELECT * FROM sample WHERE id = $1;", "a"))
		require.Equal(t, in, out)
	})

	t.Run("empty hash slice", func(t *testing.T) {
		in := sample{ID: "b", Nodes: []common.Hash{}, TxID: *txID}
		require.NoError(t, meddler.Insert(db, "sample", &in))

		var out sample
		require.NoError(t, meddler.QueryRow(db, &out, "SELECT * FROM sample WHERE id = $1;", "b"))
		require.Empty(t, out.Nodes)
	})

	t.Run("unique violation", func(t *testing.T) {
		in := sample{ID: "a", Nodes: []common.Hash{}, TxID: *txID}
		err := meddler.Insert(db, "sample", &in)
		require.Error(t, err)
		require.True(t, IsUniqueViolation(err))
		require.False(t, IsUniqueViolation(errors.New("other")))
	})

	t.Run("not found", func(t *testing.T) {
		var out sample
		err := meddler.QueryRow(db, &out, "SELECT * FROM sample WHERE id = $1;", "missing")
		require.ErrorIs(t, ReturnErrNotFound(err), ErrNotFound)
	})
}

func TestMigrationsPrefixAndDown(t *testing.T) {
	dbPath := newTestDB(t, "custody_")
	db, err := NewSQLiteDB(dbPath)
	require.NoError(t, err)

	_, err = db.Exec("SELECT count(*) FROM custody_sample;")
	require.NoError(t, err)

	migs := []types.Migration{{ID: "sample0001", SQL: testMigration, Prefix: "custody_"}}
	require.NoError(t, RunMigrationsDownDB(log.WithFields("module", "db-test"), db, migs))
	_, err = db.Exec("SELECT count(*) FROM custody_sample;")
	require.Error(t, err)

	err = RunMigrationsDB(log.GetDefaultLogger(), db, []types.Migration{{ID: "broken", SQL: "CREATE TABLE x (a INT);"}})
	require.Error(t, err)
}

func TestTxCallbacks(t *testing.T) {
	dbPath := newTestDB(t, "")
	db, err := NewSQLiteDB(dbPath)
	require.NoError(t, err)
	ctx := context.Background()

	committed, rolledBack := false, false

	tx, err := NewTx(ctx, db)
	require.NoError(t, err)
	tx.AddCommitCallback(func() { committed = true })
	tx.AddRollbackCallback(func() { rolledBack = true })
	require.NoError(t, tx.Rollback())
	require.False(t, committed)
	require.True(t, rolledBack)

	committed, rolledBack = false, false
	tx, err = NewTx(ctx, db)
	require.NoError(t, err)
	tx.AddCommitCallback(func() { committed = true })
	tx.AddRollbackCallback(func() { rolledBack = true })
	_, err = tx.Exec(`INSERT INTO sample (id, root, nodes, tx_id) VALUES ('c', '', '', '');`)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.True(t, committed)
	require.False(t, rolledBack)
}
