package tree

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/db"
	"github.com/0xPolygon/pegcore/log"
	"github.com/0xPolygon/pegcore/tree/migrations"
	"github.com/0xPolygon/pegcore/tree/types"
	"github.com/russross/meddler"
)

const incremerkleTable = "incremerkle"

var (
	ErrAlreadyStored = errors.New("incremerkle state already stored for block")
	ErrReorgTooDeep  = errors.New("reorg goes beyond the stored incremerkle states")
)

// Storage persists the incremerkle states of the latest blocks
type Storage interface {
	// NewTx begins a transaction to be used with the storage methods
	NewTx(ctx context.Context) (*db.Tx, error)
	// DB returns the underlying database, for read only calls outside a transaction
	DB() *sql.DB
	// Close closes the underlying database
	Close() error
	// GetLatest returns the state with the highest block number
	GetLatest(q meddler.DB) (*Incremerkle, error)
	// GetByBlockNum returns the state right after appending the block blockNum
	GetByBlockNum(q meddler.DB, blockNum uint64) (*Incremerkle, error)
	// Save stores the state of t, keyed by its node count
	Save(q meddler.DB, t *Incremerkle) error
	// Reorg deletes the states from firstReorgedBlock (included) onwards
	Reorg(q meddler.DB, firstReorgedBlock uint64) error
	// LoadRecent returns the stored states, newest first
	LoadRecent(q meddler.DB) (*Incremerkles, error)
}

var _ Storage = (*SQLStorage)(nil)

// SQLStorage is the sqlite implementation of Storage
type SQLStorage struct {
	logger    *log.Logger
	db        *sql.DB
	maxStates int
}

// NewSQLStorage runs the migrations on dbPath and opens the storage. At most
// maxStates states are retained; non positive means MaxIncremerkles
func NewSQLStorage(logger *log.Logger, dbPath string, maxStates int) (*SQLStorage, error) {
	if err := migrations.RunMigrations(dbPath); err != nil {
		return nil, pegcommon.StorageError("NewSQLStorage", err)
	}

	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, pegcommon.StorageError("NewSQLStorage", err)
	}
	if maxStates <= 0 {
		maxStates = MaxIncremerkles
	}

	return &SQLStorage{
		logger:    logger,
		db:        database,
		maxStates: maxStates,
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

// DB returns the underlying database, for read only calls outside a transaction
func (s *SQLStorage) DB() *sql.DB {
	return s.db
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) GetLatest(q meddler.DB) (*Incremerkle, error) {
	return getState(q, "SELECT * FROM incremerkle ORDER BY block_num DESC LIMIT 1;")
}

func (s *SQLStorage) GetByBlockNum(q meddler.DB, blockNum uint64) (*Incremerkle, error) {
	return getState(q, "SELECT * FROM incremerkle WHERE block_num = $1;", blockNum)
}

func getState(q meddler.DB, query string, args ...interface{}) (*Incremerkle, error) {
	var state types.IncremerkleState
	if err := meddler.QueryRow(q, &state, query, args...); err != nil {
		err = db.ReturnErrNotFound(err)
		if errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
		return nil, pegcommon.StorageError("getIncremerkle", err)
	}
	return NewIncremerkleFromRow(state)
}

func (s *SQLStorage) Save(q meddler.DB, t *Incremerkle) error {
	state := t.State()
	if err := meddler.Insert(q, incremerkleTable, &state); err != nil {
		if db.IsUniqueViolation(err) {
			return pegcommon.StorageError("SaveIncremerkle", fmt.Errorf("%w: %d", ErrAlreadyStored, state.BlockNum))
		}
		return pegcommon.StorageError("SaveIncremerkle", fmt.Errorf("error inserting incremerkle: %w", err))
	}

	if state.BlockNum > uint64(s.maxStates) {
		if _, err := q.Exec(`DELETE FROM incremerkle WHERE block_num <= $1;`,
			state.BlockNum-uint64(s.maxStates)); err != nil {
			return pegcommon.StorageError("SaveIncremerkle", fmt.Errorf("error pruning incremerkles: %w", err))
		}
	}
	s.logger.Debugf("stored incremerkle for block %d, root %s", state.BlockNum, state.Root.Hex())
	return nil
}

func (s *SQLStorage) Reorg(q meddler.DB, firstReorgedBlock uint64) error {
	var remaining int
	if err := q.QueryRow(`SELECT COUNT(*) FROM incremerkle WHERE block_num < $1;`,
		firstReorgedBlock).Scan(&remaining); err != nil {
		return pegcommon.StorageError("ReorgIncremerkle", err)
	}
	if remaining == 0 {
		return pegcommon.PolicyError("ReorgIncremerkle",
			fmt.Errorf("%w: first reorged block %d", ErrReorgTooDeep, firstReorgedBlock))
	}

	res, err := q.Exec(`DELETE FROM incremerkle WHERE block_num >= $1;`, firstReorgedBlock)
	if err != nil {
		return pegcommon.StorageError("ReorgIncremerkle", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return pegcommon.StorageError("ReorgIncremerkle", err)
	}
	s.logger.Infof("reorg from block %d deleted %d incremerkle states", firstReorgedBlock, deleted)
	return nil
}

func (s *SQLStorage) LoadRecent(q meddler.DB) (*Incremerkles, error) {
	var states []*types.IncremerkleState
	if err := meddler.QueryAll(q, &states,
		"SELECT * FROM incremerkle ORDER BY block_num ASC;"); err != nil {
		return nil, pegcommon.StorageError("LoadRecent", err)
	}
	recent := NewIncremerkles(s.maxStates)
	for _, state := range states {
		t, err := NewIncremerkleFromRow(*state)
		if err != nil {
			return nil, err
		}
		recent.Add(t)
	}
	return recent, nil
}
