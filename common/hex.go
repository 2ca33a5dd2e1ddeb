package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidHashLength = errors.New("invalid hash length")

// HashFromHex decodes exactly 32 bytes of hex, with or without 0x prefix
func HashFromHex(s string) (common.Hash, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHashLength, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}
