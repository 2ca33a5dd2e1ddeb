package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/custody/db/migrations"
	"github.com/0xPolygon/pegcore/custody/types"
	"github.com/0xPolygon/pegcore/db"
	"github.com/0xPolygon/pegcore/log"
	"github.com/btcsuite/btcd/wire"
	"github.com/russross/meddler"
)

const utxoTable = "utxo"

// Storage is the set of unspent outputs held in custody
type Storage interface {
	// NewTx begins a transaction to be used with the storage methods
	NewTx(ctx context.Context) (*db.Tx, error)
	// DB returns the underlying database, for calls outside a transaction
	DB() *sql.DB
	// Close closes the underlying database
	Close() error
	// AddUtxos inserts utxos, ignoring the ones already stored. It returns the number inserted
	AddUtxos(q meddler.DB, utxos []types.UtxoAndValue) (int, error)
	// Exists reports whether the outpoint is held
	Exists(q meddler.DB, outpoint wire.OutPoint) (bool, error)
	// WithdrawNext removes and returns the oldest stored utxo
	WithdrawNext(q meddler.DB) (*types.UtxoAndValue, error)
	// Balance returns the sum of the values of the held utxos
	Balance(q meddler.DB) (uint64, error)
	// Count returns the number of held utxos
	Count(q meddler.DB) (int, error)
	// GetAll returns every held utxo, oldest first
	GetAll(q meddler.DB) ([]types.UtxoAndValue, error)
}

var _ Storage = (*SQLStorage)(nil)

// SQLStorage is the sqlite implementation of Storage
type SQLStorage struct {
	logger *log.Logger
	db     *sql.DB
}

// NewSQLStorage runs the custody migrations on dbPath and opens the storage
func NewSQLStorage(logger *log.Logger, dbPath string) (*SQLStorage, error) {
	if err := migrations.RunMigrations(dbPath); err != nil {
		return nil, pegcommon.StorageError("NewSQLStorage", err)
	}
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, pegcommon.StorageError("NewSQLStorage", err)
	}
	return &SQLStorage{
		logger: logger,
		db:     database,
	}, nil
}

// NewTx begins a transaction to be used with the storage methods
func (s *SQLStorage) NewTx(ctx context.Context) (*db.Tx, error) {
	tx, err := db.NewTx(ctx, s.db)
	if err != nil {
		return nil, pegcommon.StorageError("NewTx", err)
	}
	return tx, nil
}

// DB returns the underlying database, for calls outside a transaction
func (s *SQLStorage) DB() *sql.DB {
	return s.db
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) AddUtxos(q meddler.DB, utxos []types.UtxoAndValue) (int, error) {
	inserted := 0
	for i := range utxos {
		utxo := utxos[i]
		if err := meddler.Insert(q, utxoTable, &utxo); err != nil {
			if db.IsUniqueViolation(err) {
				s.logger.Warnf("utxo %s:%d already in custody, skipping", utxo.TxID, utxo.Vout)
				continue
			}
			return inserted, pegcommon.StorageError("AddUtxos", fmt.Errorf("error inserting utxo %s: %w", utxo.Outpoint(), err))
		}
		inserted++
	}
	return inserted, nil
}

func (s *SQLStorage) Exists(q meddler.DB, outpoint wire.OutPoint) (bool, error) {
	var count int
	err := q.QueryRow(`SELECT COUNT(*) FROM utxo WHERE tx_id = $1 AND vout = $2;`,
		outpoint.Hash.String(), outpoint.Index).Scan(&count)
	if err != nil {
		return false, pegcommon.StorageError("Exists", err)
	}
	return count > 0, nil
}

func (s *SQLStorage) WithdrawNext(q meddler.DB) (*types.UtxoAndValue, error) {
	var utxo types.UtxoAndValue
	if err := meddler.QueryRow(q, &utxo, `SELECT * FROM utxo ORDER BY rowid ASC LIMIT 1;`); err != nil {
		err = db.ReturnErrNotFound(err)
		if errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
		return nil, pegcommon.StorageError("WithdrawNext", err)
	}
	if _, err := q.Exec(`DELETE FROM utxo WHERE tx_id = $1 AND vout = $2;`,
		utxo.TxID.String(), utxo.Vout); err != nil {
		return nil, pegcommon.StorageError("WithdrawNext", err)
	}
	return &utxo, nil
}

func (s *SQLStorage) Balance(q meddler.DB) (uint64, error) {
	var balance int64
	if err := q.QueryRow(`SELECT COALESCE(SUM(value), 0) FROM utxo;`).Scan(&balance); err != nil {
		return 0, pegcommon.StorageError("Balance", err)
	}
	return uint64(balance), nil
}

func (s *SQLStorage) Count(q meddler.DB) (int, error) {
	var count int
	if err := q.QueryRow(`SELECT COUNT(*) FROM utxo;`).Scan(&count); err != nil {
		return 0, pegcommon.StorageError("Count", err)
	}
	return count, nil
}

func (s *SQLStorage) GetAll(q meddler.DB) ([]types.UtxoAndValue, error) {
	var utxos []*types.UtxoAndValue
	if err := meddler.QueryAll(q, &utxos, `SELECT * FROM utxo ORDER BY rowid ASC;`); err != nil {
		return nil, pegcommon.StorageError("GetAll", err)
	}
	res := make([]types.UtxoAndValue, len(utxos))
	for i, u := range utxos {
		res[i] = *u
	}
	return res, nil
}
