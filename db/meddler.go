package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
	sqlite "github.com/mattn/go-sqlite3"
	"github.com/russross/meddler"
)

const hashSliceSeparator = ","

// init registers tags to be used to read/write from SQL DBs using meddler
func init() {
	meddler.Default = meddler.SQLite
	meddler.Register("hash", HashMeddler{})
	meddler.Register("hashslice", HashSliceMeddler{})
	meddler.Register("chainhash", ChainHashMeddler{})
}

// SQLiteErr extracts the sqlite driver error from err, looking through meddler wrapping
func SQLiteErr(err error) (*sqlite.Error, bool) {
	sqliteErr := &sqlite.Error{}
	if ok := errors.As(err, sqliteErr); ok {
		return sqliteErr, true
	}
	if driverErr, ok := meddler.DriverErr(err); ok {
		return sqliteErr, errors.As(driverErr, sqliteErr)
	}
	return sqliteErr, false
}

// HashMeddler encodes or decodes the field value to or from string
type HashMeddler struct{}

// PreRead is called before a Scan operation for fields that have the HashMeddler
func (b HashMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	// give a pointer to a byte buffer to grab the raw data
	return new(string), nil
}

// PostRead is called after a Scan operation for fields that have the HashMeddler
func (b HashMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*string)
	if !ok {
		return errors.New("scanTarget is not *string")
	}
	if ptr == nil {
		return fmt.Errorf("HashMeddler.PostRead: nil pointer")
	}
	field, ok := fieldPtr.(*common.Hash)
	if !ok {
		return errors.New("fieldPtr is not common.Hash")
	}
	*field = common.HexToHash(*ptr)
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the HashMeddler
func (b HashMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.(common.Hash)
	if !ok {
		return nil, errors.New("fieldPtr is not common.Hash")
	}
	return field.Hex(), nil
}

// HashSliceMeddler stores a list of hashes as comma separated hex
type HashSliceMeddler struct{}

// PreRead is called before a Scan operation for fields that have the HashSliceMeddler
func (b HashSliceMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(string), nil
}

// PostRead is called after a Scan operation for fields that have the HashSliceMeddler
func (b HashSliceMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*string)
	if !ok {
		return errors.New("scanTarget is not *string")
	}
	if ptr == nil {
		return errors.New("HashSliceMeddler.PostRead: nil pointer")
	}
	field, ok := fieldPtr.(*[]common.Hash)
	if !ok {
		return errors.New("fieldPtr is not []common.Hash")
	}
	if *ptr == "" {
		*field = []common.Hash{}
		return nil
	}
	strHashes := strings.Split(*ptr, hashSliceSeparator)
	hashes := make([]common.Hash, len(strHashes))
	for i, strHash := range strHashes {
		if len(common.FromHex(strHash)) != common.HashLength {
			return fmt.Errorf("invalid hash %q at position %d", strHash, i)
		}
		hashes[i] = common.HexToHash(strHash)
	}
	*field = hashes
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the HashSliceMeddler
func (b HashSliceMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.([]common.Hash)
	if !ok {
		return nil, errors.New("fieldPtr is not []common.Hash")
	}
	strHashes := make([]string, len(field))
	for i, h := range field {
		strHashes[i] = h.Hex()
	}
	return strings.Join(strHashes, hashSliceSeparator), nil
}

// ChainHashMeddler encodes or decodes a bitcoin hash using its byte-reversed display form
type ChainHashMeddler struct{}

// PreRead is called before a Scan operation for fields that have the ChainHashMeddler
func (b ChainHashMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(string), nil
}

// PostRead is called after a Scan operation for fields that have the ChainHashMeddler
func (b ChainHashMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	ptr, ok := scanTarget.(*string)
	if !ok {
		return errors.New("scanTarget is not *string")
	}
	if ptr == nil {
		return errors.New("ChainHashMeddler.PostRead: nil pointer")
	}
	field, ok := fieldPtr.(*chainhash.Hash)
	if !ok {
		return errors.New("fieldPtr is not chainhash.Hash")
	}
	h, err := chainhash.NewHashFromStr(*ptr)
	if err != nil {
		return fmt.Errorf("ChainHashMeddler.PostRead: %w", err)
	}
	*field = *h
	return nil
}

// PreWrite is called before an Insert or Update operation for fields that have the ChainHashMeddler
func (b ChainHashMeddler) PreWrite(fieldPtr interface{}) (saveValue interface{}, err error) {
	field, ok := fieldPtr.(chainhash.Hash)
	if !ok {
		return nil, errors.New("fieldPtr is not chainhash.Hash")
	}
	return field.String(), nil
}
