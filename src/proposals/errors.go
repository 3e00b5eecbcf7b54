package proposals

import (
	"errors"
	"fmt"
)

var (
	ErrProposalNotFound = errors.New("proposal not found")
	ErrProposalClosed   = errors.New("proposal is closed")
	ErrDuplicateVote    = errors.New("author already voted on this proposal")
	ErrInvalidChoice    = errors.New("choice is not one of the proposal options")
	ErrVoteNotFound     = errors.New("author has not voted on this proposal")
	ErrInvalidDuration  = errors.New("voting period must be between 1 and 30 days")
	ErrInvalidOptions   = errors.New("proposal needs at least one option")
	ErrStorage          = errors.New("storage failure")
)

// Store implementations report missing rows and unique-key violations with these.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
)

// StorageError wraps a persistence failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageError(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ErrorKind is the closed set of failures the engine reports.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindProposalNotFound
	KindProposalClosed
	KindDuplicateVote
	KindInvalidChoice
	KindVoteNotFound
	KindInvalidDuration
	KindInvalidOptions
	KindStorage
	KindUnknown
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{KindProposalNotFound, ErrProposalNotFound},
	{KindProposalClosed, ErrProposalClosed},
	{KindDuplicateVote, ErrDuplicateVote},
	{KindInvalidChoice, ErrInvalidChoice},
	{KindVoteNotFound, ErrVoteNotFound},
	{KindInvalidDuration, ErrInvalidDuration},
	{KindInvalidOptions, ErrInvalidOptions},
	{KindStorage, ErrStorage},
}

// Kind classifies err. A nil error is KindNone; anything outside the taxonomy is KindUnknown.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindUnknown
}
