package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures surfaced by the bridge core
type ErrorKind uint8

const (
	// KindUnknown is reported for errors that were not produced by the core
	KindUnknown ErrorKind = iota
	// KindDecoding means the input could not be parsed (bad hex, wrong length, malformed tx)
	KindDecoding
	// KindVerification means a proof, root or chain linkage check failed
	KindVerification
	// KindPolicy means the input is well formed but not acceptable (dust, unknown address)
	KindPolicy
	// KindInsufficientFunds means the custodied outputs can not cover a spend
	KindInsufficientFunds
	// KindStorage means the persistence layer failed
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindDecoding:
		return "decoding"
	case KindVerification:
		return "verification"
	case KindPolicy:
		return "policy"
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a tagged error. Op names the operation that failed
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError tags err with kind. It returns nil if err is nil
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost tagged error in the chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func DecodingError(op string, err error) error {
	return NewError(KindDecoding, op, err)
}

func VerificationError(op string, err error) error {
	return NewError(KindVerification, op, err)
}

func PolicyError(op string, err error) error {
	return NewError(KindPolicy, op, err)
}

func InsufficientFundsError(op string, err error) error {
	return NewError(KindInsufficientFunds, op, err)
}

func StorageError(op string, err error) error {
	return NewError(KindStorage, op, err)
}
