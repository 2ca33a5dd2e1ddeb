// Package lightclient accepts execution chain blocks once the proofs of their
// actions fold into the block action_mroot and the block links to the chain
// tracked by the incremerkle of block ids.
package lightclient

import (
	"context"
	"errors"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/db"
	"github.com/0xPolygon/pegcore/log"
	"github.com/0xPolygon/pegcore/merkle"
	"github.com/0xPolygon/pegcore/tree"
	"github.com/ethereum/go-ethereum/common"
)

const errWhileRollbackFormat = "error while rolling back tx: %v"

var (
	ErrAlreadyInitialized = errors.New("light client already initialized")
	ErrUnexpectedBlockNum = errors.New("block does not follow the last accepted block")
	ErrBlockrootMismatch  = errors.New("blockroot_merkle does not match the incremerkle root")
)

// Processor tracks the accepted blocks of an execution chain
type Processor struct {
	logger  *log.Logger
	storage tree.Storage
	recent  *tree.Incremerkles
}

// New creates a Processor backed by the database at cfg.DBPath
func New(logger *log.Logger, cfg Config) (*Processor, error) {
	storage, err := tree.NewSQLStorage(logger, cfg.DBPath, cfg.GetMaxStoredStates())
	if err != nil {
		return nil, err
	}
	recent, err := storage.LoadRecent(storage.DB())
	if err != nil {
		return nil, err
	}
	if latest := recent.Latest(); latest != nil {
		logger.Infof("light client resumed at block %d, blockroot %s", latest.NodeCount(), latest.Root().Hex())
	}
	return &Processor{
		logger:  logger,
		storage: storage,
		recent:  recent,
	}, nil
}

// Init anchors the light client to a trusted incremerkle. anchor must hold the
// ids up to the last trusted block, so the next block to process is NodeCount+1
func (p *Processor) Init(ctx context.Context, anchor *tree.Incremerkle) (err error) {
	tx, err := p.storage.NewTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				p.logger.Errorf(errWhileRollbackFormat, errRllbck)
			}
		}
	}()

	_, err = p.storage.GetLatest(tx)
	if err == nil {
		err = pegcommon.PolicyError("Init", ErrAlreadyInitialized)
		return err
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	if err = p.storage.Save(tx, anchor); err != nil {
		return err
	}
	state := anchor.Copy()
	tx.AddCommitCallback(func() { p.recent.Add(state) })
	if err = tx.Commit(); err != nil {
		err = pegcommon.StorageError("Init", err)
		return err
	}
	p.logger.Infof("light client anchored at block %d, blockroot %s", state.NodeCount(), state.Root().Hex())
	return nil
}

// VerifyActionProofs checks every action proof of block against its action_mroot
// and that each proof commits to the digest of its receipt
func VerifyActionProofs(block Block) error {
	for i, ap := range block.ActionProofs {
		if err := ap.Proof.VerifyAgainst(block.ActionMroot); err != nil {
			return fmt.Errorf("action proof %d of block %d: %w", i, block.Num, err)
		}
		if digest := ap.Receipt.Digest(); ap.Proof.Leaf() != digest {
			return pegcommon.VerificationError("VerifyActionProofs", fmt.Errorf(
				"%w: action proof %d of block %d, receipt digest %s, leaf %s",
				merkle.ErrLeafMismatch, i, block.Num, digest.Hex(), ap.Proof.Leaf().Hex()))
		}
	}
	return nil
}

// ProcessBlock verifies block and, if valid, appends its id to the incremerkle.
// It returns the new incremerkle root. A rejected block leaves the state untouched
func (p *Processor) ProcessBlock(ctx context.Context, block Block) (root common.Hash, err error) {
	if err = VerifyActionProofs(block); err != nil {
		p.logger.Warnf("rejected block %d: %v", block.Num, err)
		return common.Hash{}, err
	}

	tx, err := p.storage.NewTx(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	defer func() {
		if err != nil {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				p.logger.Errorf(errWhileRollbackFormat, errRllbck)
			}
		}
	}()

	current, err := p.storage.GetLatest(tx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			err = pegcommon.PolicyError("ProcessBlock", tree.ErrNotInitialized)
		}
		return common.Hash{}, err
	}
	if err = checkLinkage(current, block); err != nil {
		p.logger.Warnf("rejected block %d: %v", block.Num, err)
		return common.Hash{}, err
	}

	next := current.Copy()
	if root, err = next.Append(block.ID); err != nil {
		return common.Hash{}, err
	}
	if err = p.storage.Save(tx, next); err != nil {
		return common.Hash{}, err
	}
	tx.AddCommitCallback(func() { p.recent.Add(next) })
	if err = tx.Commit(); err != nil {
		err = pegcommon.StorageError("ProcessBlock", err)
		return common.Hash{}, err
	}

	p.logger.Debugf("accepted block %d (%s) with %d action proofs, blockroot %s",
		block.Num, block.ID.Hex(), len(block.ActionProofs), root.Hex())
	return root, nil
}

func checkLinkage(current *tree.Incremerkle, block Block) error {
	if current.NodeCount()+1 != block.Num {
		return pegcommon.VerificationError("checkLinkage", fmt.Errorf(
			"%w: expected %d, got %d", ErrUnexpectedBlockNum, current.NodeCount()+1, block.Num))
	}
	if current.Root() != block.BlockrootMerkle {
		return pegcommon.VerificationError("checkLinkage", fmt.Errorf(
			"%w: block %d has %s, expected %s",
			ErrBlockrootMismatch, block.Num, block.BlockrootMerkle.Hex(), current.Root().Hex()))
	}
	return nil
}

// Reorg forgets the blocks from firstReorgedBlock onwards
func (p *Processor) Reorg(ctx context.Context, firstReorgedBlock uint64) (err error) {
	tx, err := p.storage.NewTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				p.logger.Errorf(errWhileRollbackFormat, errRllbck)
			}
		}
	}()

	if err = p.storage.Reorg(tx, firstReorgedBlock); err != nil {
		return err
	}
	tx.AddCommitCallback(func() { p.recent.DropFrom(firstReorgedBlock) })
	if err = tx.Commit(); err != nil {
		err = pegcommon.StorageError("Reorg", err)
		return err
	}
	return nil
}

// LastBlock returns the number of the last accepted block and the incremerkle after it
func (p *Processor) LastBlock() (uint64, *tree.Incremerkle, error) {
	latest := p.recent.Latest()
	if latest == nil {
		return 0, nil, pegcommon.PolicyError("LastBlock", tree.ErrNotInitialized)
	}
	return latest.NodeCount(), latest.Copy(), nil
}

// IncremerkleAt returns the incremerkle right after block blockNum was accepted
func (p *Processor) IncremerkleAt(blockNum uint64) (*tree.Incremerkle, error) {
	if state, ok := p.recent.ByBlockNum(blockNum); ok {
		return state, nil
	}
	return p.storage.GetByBlockNum(p.storage.DB(), blockNum)
}

// Close closes the incremerkle storage
func (p *Processor) Close() error {
	return p.storage.Close()
}
