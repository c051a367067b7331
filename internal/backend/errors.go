package backend

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a backend call failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindNetwork means the request never produced a response.
	KindNetwork
	// KindStatus means the backend answered with a non-2xx status.
	KindStatus
	// KindDecode means the response body did not match the contract.
	KindDecode
	// KindValidation means the request was rejected locally, before any I/O.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method.
type Error struct {
	Op      string
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a backend error anywhere in err's chain.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

func validationError(op, message string) *Error {
	return &Error{Op: op, Kind: KindValidation, Message: message}
}
