// Package custody holds the bitcoin outputs deposited to the bridge: it
// credits the deposits of accepted blocks and spends them into signed redemptions.
package custody

import (
	"context"
	"errors"
	"fmt"

	pegcommon "github.com/0xPolygon/pegcore/common"
	custodydb "github.com/0xPolygon/pegcore/custody/db"
	"github.com/0xPolygon/pegcore/custody/types"
	"github.com/0xPolygon/pegcore/log"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common"
)

const errWhileRollbackFormat = "error while rolling back tx: %v"

var (
	ErrInsufficientFunds    = errors.New("not enough utxos to cover the spend")
	ErrNoInputs             = errors.New("cannot build a transaction without inputs")
	ErrNoRecipients         = errors.New("cannot build a transaction without recipients")
	ErrInvalidAmount        = errors.New("invalid output amount")
	ErrWrongNetwork         = errors.New("address is not for the configured network")
	ErrUnsupportedAddress   = errors.New("only P2PKH and P2SH addresses are supported")
	ErrUnsupportedScript    = errors.New("unsupported utxo script type")
	ErrRedeemScriptMismatch = errors.New("redeem script does not hash to the utxo script")
	ErrDustChange           = errors.New("change would be dust")
)

// Custodian owns the utxo set of the bridge
type Custodian struct {
	logger         *log.Logger
	storage        custodydb.Storage
	params         *chaincfg.Params
	key            *btcec.PrivateKey
	custodyAddress *btcutil.AddressPubKeyHash
	verifiers      []BlockVerifier
	metrics        *metrics

	dustAmount             uint64
	feeRate                uint64
	safeAddress            string
	destinationSafeAddress string
}

// New opens the utxo set at cfg.DBPath. Blocks are checked against their merkle
// root and then by verifiers, in order
func New(logger *log.Logger, cfg Config, params *chaincfg.Params, key *btcec.PrivateKey,
	verifiers ...BlockVerifier) (*Custodian, error) {
	if key == nil {
		return nil, errors.New("custody key is required")
	}
	if cfg.SafeAddress != "" && !IsValidBtcAddress(params)(cfg.SafeAddress) {
		return nil, fmt.Errorf("invalid SafeAddress %q for network %s", cfg.SafeAddress, params.Name)
	}
	if cfg.DestinationSafeAddress != "" && !IsValidEvmAddress(cfg.DestinationSafeAddress) {
		return nil, fmt.Errorf("invalid DestinationSafeAddress %q", cfg.DestinationSafeAddress)
	}
	custodyAddress, err := CustodyAddress(key.PubKey(), params)
	if err != nil {
		return nil, err
	}
	storage, err := custodydb.NewSQLStorage(logger, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Infof("custody address %s, dust amount %d", custodyAddress.EncodeAddress(), cfg.GetDustAmount())

	return &Custodian{
		logger:                 logger,
		storage:                storage,
		params:                 params,
		key:                    key,
		custodyAddress:         custodyAddress,
		verifiers:              append([]BlockVerifier{MerkleRootVerifier{}}, verifiers...),
		metrics:                newMetrics(logger),
		dustAmount:             cfg.GetDustAmount(),
		feeRate:                cfg.FeeRateSatsPerByte,
		safeAddress:            cfg.SafeAddress,
		destinationSafeAddress: cfg.DestinationSafeAddress,
	}, nil
}

// Address returns the P2PKH address of the custody key, receiving the change
func (c *Custodian) Address() *btcutil.AddressPubKeyHash {
	return c.custodyAddress
}

// DustAmount returns the minimum value of a custodied output
func (c *Custodian) DustAmount() uint64 {
	return c.dustAmount
}

// NewDepositInfo derives the deposit address committing to commitment
func (c *Custodian) NewDepositInfo(nonce uint64, address string, commitment common.Hash) (types.DepositInfo, error) {
	return NewDepositInfo(nonce, address, commitment, c.key.PubKey(), c.params)
}

// ProcessBlock credits the outputs of block paying the custody address or one
// of deposits. The block is verified first; nothing is credited if it fails.
// It returns the utxos added to the set
func (c *Custodian) ProcessBlock(ctx context.Context, block *wire.MsgBlock,
	deposits []types.DepositInfo) (saved []types.UtxoAndValue, err error) {
	blockHash := block.BlockHash()
	for _, v := range c.verifiers {
		if err := v.VerifyBlock(block); err != nil {
			c.logger.Warnf("block %s rejected: %v", blockHash, err)
			return nil, err
		}
	}

	if c.destinationSafeAddress != "" {
		deposits = DivertToSafeAddress(c.logger, deposits, IsValidEvmAddress, c.destinationSafeAddress)
	}
	index, err := NewDepositAddressIndex(c.logger, deposits, c.key.PubKey(), c.params)
	if err != nil {
		return nil, err
	}

	found := ExtractDeposits(block, index, c.params)
	utxos := FilterDust(c.logger, found, c.dustAmount)
	dust := len(found) - len(utxos)

	tx, err := c.storage.NewTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				c.logger.Errorf(errWhileRollbackFormat, errRllbck)
			}
		}
	}()

	utxos, err = FilterExtant(c.logger, tx, c.storage, utxos)
	if err != nil {
		return nil, err
	}
	if _, err = c.storage.AddUtxos(tx, utxos); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = pegcommon.StorageError("ProcessBlock", err)
		return nil, err
	}

	add(ctx, c.metrics.saved, len(utxos))
	add(ctx, c.metrics.dust, dust)
	c.logger.Infof("block %s: %d deposits found, %d dust, %d utxos saved",
		blockHash, len(found), dust, len(utxos))
	return utxos, nil
}

// Spend pays recipients from the utxo set. Recipients with an invalid address
// are paid to the safe address. A zero feeRate means the configured one. The
// consumed utxos are removed only if the signed transaction is returned
func (c *Custodian) Spend(ctx context.Context, recipients []types.Recipient,
	feeRate uint64) (signed *types.SignedTransaction, err error) {
	if len(recipients) == 0 {
		return nil, pegcommon.PolicyError("Spend", ErrNoRecipients)
	}
	if feeRate == 0 {
		feeRate = c.feeRate
	}
	if c.safeAddress != "" {
		recipients = DivertToSafeAddress(c.logger, recipients, IsValidBtcAddress(c.params), c.safeAddress)
	}
	var required uint64
	for _, r := range recipients {
		if r.Amount == 0 {
			return nil, pegcommon.PolicyError("Spend", fmt.Errorf("%w: recipient %s", ErrInvalidAmount, r.Address))
		}
		if required, err = pegcommon.SafeAddUint64(required, r.Amount); err != nil {
			return nil, pegcommon.PolicyError("Spend", err)
		}
	}

	tx, err := c.storage.NewTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				c.logger.Errorf(errWhileRollbackFormat, errRllbck)
			}
		}
	}()

	selected, err := SelectUtxos(tx, c.storage, required, len(recipients)+1, feeRate, c.dustAmount)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("selected %d utxos worth %d to spend %d", len(selected), types.TotalValue(selected), required)

	_, signed, err = BuildSignedTx(SpendParams{
		Utxos:         selected,
		Recipients:    recipients,
		ChangeAddress: c.custodyAddress,
		Key:           c.key,
		FeeRate:       feeRate,
		DustAmount:    c.dustAmount,
		Params:        c.params,
	})
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = pegcommon.StorageError("Spend", err)
		return nil, err
	}

	add(ctx, c.metrics.spent, len(selected))
	c.logger.Infof("signed tx %s spending %d utxos, fee %d, change %d",
		signed.TxID, len(signed.Consumed), signed.Fee, signed.Change)
	return signed, nil
}

// Close closes the utxo set
func (c *Custodian) Close() error {
	return c.storage.Close()
}

// Balance returns the total value held
func (c *Custodian) Balance() (uint64, error) {
	return c.storage.Balance(c.storage.DB())
}

// Count returns the number of utxos held
func (c *Custodian) Count() (int, error) {
	return c.storage.Count(c.storage.DB())
}

// Utxos returns the utxos held, oldest first
func (c *Custodian) Utxos() ([]types.UtxoAndValue, error) {
	return c.storage.GetAll(c.storage.DB())
}
