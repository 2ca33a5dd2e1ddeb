package tree

import (
	"context"
	"path"
	"testing"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/db"
	"github.com/0xPolygon/pegcore/log"
	"github.com/stretchr/testify/require"
)

func Test_Storage(t *testing.T) {
	ctx := context.Background()

	dbPath := path.Join(t.TempDir(), "file::memory:?cache=shared")
	storage, err := NewSQLStorage(log.WithFields("module", "tree-db"), dbPath, 4)
	require.NoError(t, err)

	_, err = storage.GetLatest(storage.DB())
	require.ErrorIs(t, err, db.ErrNotFound)

	tree := NewIncremerkle()
	leaves := testLeaves(6)

	t.Run("Save", func(t *testing.T) {
		for _, leaf := range leaves {
			_, err := tree.Append(leaf)
			require.NoError(t, err)

			tx, err := storage.NewTx(ctx)
			require.NoError(t, err)
			require.NoError(t, storage.Save(tx, tree))
			require.NoError(t, tx.Commit())
		}

		latest, err := storage.GetLatest(storage.DB())
		require.NoError(t, err)
		require.Equal(t, tree.Root(), latest.Root())
		require.Equal(t, tree.ActiveNodes(), latest.ActiveNodes())

		// only the last 4 states are retained
		_, err = storage.GetByBlockNum(storage.DB(), 2)
		require.ErrorIs(t, err, db.ErrNotFound)
		third, err := storage.GetByBlockNum(storage.DB(), 3)
		require.NoError(t, err)
		require.Equal(t, uint64(3), third.NodeCount())

		recent, err := storage.LoadRecent(storage.DB())
		require.NoError(t, err)
		require.Equal(t, 4, recent.Len())
		require.Equal(t, uint64(6), recent.Latest().NodeCount())
	})

	t.Run("Save twice", func(t *testing.T) {
		err := storage.Save(storage.DB(), tree)
		require.ErrorIs(t, err, ErrAlreadyStored)
		require.True(t, pegcommon.IsKind(err, pegcommon.KindStorage))
	})

	t.Run("Rollback discards the state", func(t *testing.T) {
		next := tree.Copy()
		_, err := next.Append(testLeaves(7)[6])
		require.NoError(t, err)

		tx, err := storage.NewTx(ctx)
		require.NoError(t, err)
		require.NoError(t, storage.Save(tx, next))
		require.NoError(t, tx.Rollback())

		_, err = storage.GetByBlockNum(storage.DB(), 7)
		require.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("Reorg", func(t *testing.T) {
		tx, err := storage.NewTx(ctx)
		require.NoError(t, err)
		require.NoError(t, storage.Reorg(tx, 5))
		require.NoError(t, tx.Commit())

		latest, err := storage.GetLatest(storage.DB())
		require.NoError(t, err)
		require.Equal(t, uint64(4), latest.NodeCount())

		err = storage.Reorg(storage.DB(), 3)
		require.ErrorIs(t, err, ErrReorgTooDeep)
		require.True(t, pegcommon.IsKind(err, pegcommon.KindPolicy))
	})
}
