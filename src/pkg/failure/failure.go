// Package failure classifies the per-image and per-request failures the
// labeler reports outward.
package failure

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Detection     Kind = "DETECTION_FAILURE"
	RemoteService Kind = "REMOTE_SERVICE_FAILURE"
	Normalization Kind = "NORMALIZATION_FAILURE"
	Storage       Kind = "STORAGE_FAILURE"
	BadInput      Kind = "BAD_INPUT"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrDetection     = errors.New("mrz region not detected")
	ErrRemoteService = errors.New("remote recognition service failed")
	ErrNormalization = errors.New("mrz text could not be normalized")
	ErrStorage       = errors.New("storage operation failed")
	ErrBadInput      = errors.New("bad input")
)

type Error struct {
	Kind    Kind
	Op      string
	Err     error
	Details string
}

func New(kind Kind, op string, err error, details string) *Error {
	return &Error{Kind: kind, Op: op, Err: err, Details: details}
}

// Newf builds an Error whose cause is the kind's sentinel.
func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: sentinel(kind), Details: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s := sentinel(e.Kind)
	return s != nil && target == s
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

func sentinel(kind Kind) error {
	switch kind {
	case Detection:
		return ErrDetection
	case RemoteService:
		return ErrRemoteService
	case Normalization:
		return ErrNormalization
	case Storage:
		return ErrStorage
	case BadInput:
		return ErrBadInput
	}
	return nil
}
