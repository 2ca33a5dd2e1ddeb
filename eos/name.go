package eos

import (
	"strings"
)

const (
	nameMaxLen  = 13
	nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"
)

// Name is an account or action name packed in base32 into an uint64
type Name uint64

func charToSymbol(c byte) uint64 {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6 //nolint:mnd
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1
	default:
		return 0
	}
}

// StringToName packs s. Characters outside [.1-5a-z] encode as '.', and
// anything past the 13th character is ignored
func StringToName(s string) Name {
	var value uint64
	for i := 0; i < nameMaxLen && i < len(s); i++ {
		c := charToSymbol(s[i])
		if i < nameMaxLen-1 {
			c &= 0x1f
			c <<= 64 - 5*(i+1)
		} else {
			c &= 0x0f
		}
		value |= c
	}
	return Name(value)
}

// String unpacks the name, trimming the trailing dots
func (n Name) String() string {
	str := make([]byte, nameMaxLen)
	tmp := uint64(n)
	for i := 0; i < nameMaxLen; i++ {
		if i == 0 {
			str[nameMaxLen-1-i] = nameCharmap[tmp&0x0f]
			tmp >>= 4
		} else {
			str[nameMaxLen-1-i] = nameCharmap[tmp&0x1f]
			tmp >>= 5
		}
	}
	return strings.TrimRight(string(str), ".")
}

func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	*n = StringToName(string(text))
	return nil
}
